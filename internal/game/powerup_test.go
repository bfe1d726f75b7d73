package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anabelle/gridsnake/internal/prng"
)

func TestSpeedFactorPrecedence(t *testing.T) {
	now := int64(1000)
	effects := []ActiveEffect{
		{Kind: PowerUpSlow, PlayerID: "p1", ExpiresAt: 2000},
		{Kind: PowerUpSpeed, PlayerID: "p1", ExpiresAt: 2000},
	}
	// SPEED wins over SLOW regardless of activation order.
	assert.Equal(t, 2.0, SpeedFactor(effects, "p1", now))
	assert.Equal(t, 1.0, SpeedFactor(effects, "p2", now))

	slowOnly := []ActiveEffect{{Kind: PowerUpSlow, PlayerID: "p1", ExpiresAt: 2000}}
	assert.Equal(t, 0.5, SpeedFactor(slowOnly, "p1", now))
}

func TestEffectExpiryIsExclusive(t *testing.T) {
	effects := []ActiveEffect{{Kind: PowerUpSpeed, PlayerID: "p1", ExpiresAt: 2000}}
	assert.Equal(t, 2.0, SpeedFactor(effects, "p1", 1999))
	assert.Equal(t, 1.0, SpeedFactor(effects, "p1", 2000), "expiry at now is dead")
	assert.Equal(t, 1.0, SpeedFactor(effects, "p1", 2001))
}

func TestScoreMultiplier(t *testing.T) {
	effects := []ActiveEffect{
		{Kind: PowerUpDoubleScore, PlayerID: "p1", ExpiresAt: 2000},
		{Kind: PowerUpDoubleScore, PlayerID: "p1", ExpiresAt: 3000},
	}
	// Multipliers do not stack.
	assert.Equal(t, 2, ScoreMultiplier(effects, "p1", 1000))
	assert.Equal(t, 1, ScoreMultiplier(effects, "p2", 1000))
	assert.Equal(t, 1, ScoreMultiplier(nil, "p1", 1000))
}

func TestIsInvincible(t *testing.T) {
	effects := []ActiveEffect{{Kind: PowerUpInvincibility, PlayerID: "p1", ExpiresAt: 2000}}
	assert.True(t, IsInvincible(effects, "p1", 1000))
	assert.False(t, IsInvincible(effects, "p1", 2000))
	assert.False(t, IsInvincible(effects, "p2", 1000))
}

func TestLiveFiltersDropExpired(t *testing.T) {
	ups := []PowerUp{
		{ID: "powerup-0", ExpiresAt: 1000},
		{ID: "powerup-1", ExpiresAt: 2000},
	}
	kept := liveGridPowerUps(ups, 1000)
	require.Len(t, kept, 1)
	assert.Equal(t, "powerup-1", kept[0].ID)

	effects := []ActiveEffect{
		{Kind: PowerUpSpeed, PlayerID: "p1", ExpiresAt: 999},
		{Kind: PowerUpSlow, PlayerID: "p2", ExpiresAt: 1001},
	}
	keptE := liveEffects(effects, 1000)
	require.Len(t, keptE, 1)
	assert.Equal(t, PowerUpSlow, keptE[0].Kind)
}

func TestSpawnPowerUp(t *testing.T) {
	rng := prng.New(42)
	u, ok := SpawnPowerUp(rng, testGrid, NewOccupancy(nil), 1000, 10000, 7)
	require.True(t, ok)
	assert.Equal(t, "powerup-7", u.ID)
	assert.Equal(t, int64(11000), u.ExpiresAt)
	assert.Contains(t, PowerUpKinds[:], u.Kind)
	assert.False(t, CollidesWithWall(u.Position, testGrid))

	// Same seed, same draw order, same result.
	again, _ := SpawnPowerUp(prng.New(42), testGrid, NewOccupancy(nil), 1000, 10000, 7)
	assert.Equal(t, u, again)
}

func TestSpawnFoodSkipsOccupiedCells(t *testing.T) {
	grid := GridSize{Width: 2, Height: 1}
	occ := NewOccupancy([]Point{{0, 0}})
	f, ok := SpawnFood(prng.New(1), grid, occ, 3)
	require.True(t, ok)
	assert.Equal(t, Point{1, 0}, f.Position)
	assert.Equal(t, 3, f.Value)
}

func TestSpawnFoodFullGrid(t *testing.T) {
	grid := GridSize{Width: 2, Height: 1}
	occ := NewOccupancy([]Point{{0, 0}, {1, 0}})
	_, ok := SpawnFood(prng.New(1), grid, occ, 1)
	assert.False(t, ok)
}
