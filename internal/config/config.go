// Package config loads server configuration from the environment with
// sensible defaults. Every knob is a GRIDSNAKE_* environment variable.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/anabelle/gridsnake/internal/game"
)

// Config is the resolved server configuration.
type Config struct {
	Port            int
	TickPeriod      time.Duration
	GridWidth       int
	GridHeight      int
	TargetFood      int
	FoodValue       int
	MaxPowerUps     int
	PowerUpChance   float64
	PowerUpDuration time.Duration
	EffectDuration  time.Duration
	AIEnabled       bool
	MaxPlayers      int
	Seed            uint32
	LogLevel        string
}

// Load reads GRIDSNAKE_* environment variables over the reference defaults.
func Load() (*Config, error) {
	vp := viper.New()
	vp.SetEnvPrefix("gridsnake")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()

	vp.SetDefault("port", 3001)
	vp.SetDefault("tick_ms", 100)
	vp.SetDefault("grid_width", 50)
	vp.SetDefault("grid_height", 50)
	vp.SetDefault("target_food", 3)
	vp.SetDefault("food_value", 1)
	vp.SetDefault("max_powerups", 2)
	vp.SetDefault("powerup_chance", 0.01)
	vp.SetDefault("powerup_duration_ms", 10000)
	vp.SetDefault("effect_duration_ms", 8000)
	vp.SetDefault("ai", true)
	vp.SetDefault("max_players", 64)
	vp.SetDefault("seed", 0)
	vp.SetDefault("log_level", "info")

	cfg := &Config{
		Port:            vp.GetInt("port"),
		TickPeriod:      time.Duration(vp.GetInt("tick_ms")) * time.Millisecond,
		GridWidth:       vp.GetInt("grid_width"),
		GridHeight:      vp.GetInt("grid_height"),
		TargetFood:      vp.GetInt("target_food"),
		FoodValue:       vp.GetInt("food_value"),
		MaxPowerUps:     vp.GetInt("max_powerups"),
		PowerUpChance:   vp.GetFloat64("powerup_chance"),
		PowerUpDuration: time.Duration(vp.GetInt("powerup_duration_ms")) * time.Millisecond,
		EffectDuration:  time.Duration(vp.GetInt("effect_duration_ms")) * time.Millisecond,
		AIEnabled:       vp.GetBool("ai"),
		MaxPlayers:      vp.GetInt("max_players"),
		Seed:            vp.GetUint32("seed"),
		LogLevel:        vp.GetString("log_level"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GridWidth < 2 || c.GridHeight < 2 {
		return fmt.Errorf("config: grid %dx%d too small", c.GridWidth, c.GridHeight)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("config: tick period must be positive")
	}
	if c.TargetFood < 0 || c.MaxPowerUps < 0 {
		return fmt.Errorf("config: negative entity target")
	}
	if c.PowerUpChance < 0 || c.PowerUpChance > 1 {
		return fmt.Errorf("config: power-up chance %v out of [0,1]", c.PowerUpChance)
	}
	return nil
}

// Rules maps the configuration onto the simulation rule set.
func (c *Config) Rules() game.Rules {
	return game.Rules{
		Grid:              game.GridSize{Width: c.GridWidth, Height: c.GridHeight},
		TargetFood:        c.TargetFood,
		FoodValue:         c.FoodValue,
		MaxPowerUps:       c.MaxPowerUps,
		PowerUpChance:     c.PowerUpChance,
		PowerUpDurationMS: c.PowerUpDuration.Milliseconds(),
		EffectDurationMS:  c.EffectDuration.Milliseconds(),
		AIEnabled:         c.AIEnabled,
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
