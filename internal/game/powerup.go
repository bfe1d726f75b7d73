package game

import (
	"fmt"

	"github.com/anabelle/gridsnake/internal/prng"
)

// SpawnPowerUp places one grid power-up of a random kind at a random free
// cell. The kind index is drawn first, then the cell. The id is
// "powerup-<counter>"; the caller increments the counter on success.
func SpawnPowerUp(rng *prng.Mulberry32, grid GridSize, occ Occupancy, now, duration int64, counter int) (PowerUp, bool) {
	kind := PowerUpKinds[rng.Intn(len(PowerUpKinds))]
	cell, ok := RandomFreeCell(rng, grid, occ)
	if !ok {
		return PowerUp{}, false
	}
	return PowerUp{
		ID:        fmt.Sprintf("powerup-%d", counter),
		Kind:      kind,
		Position:  cell,
		ExpiresAt: now + duration,
	}, true
}

// effectActive reports whether the player has a live effect of the given
// kind. Expiry is exclusive: an effect whose ExpiresAt equals now is dead.
func effectActive(effects []ActiveEffect, kind PowerUpKind, playerID string, now int64) bool {
	for _, e := range effects {
		if e.Kind == kind && e.PlayerID == playerID && e.ExpiresAt > now {
			return true
		}
	}
	return false
}

// SpeedFactor returns the player's movement multiplier: 2 with SPEED, 0.5
// with SLOW, 1 otherwise. SPEED is checked first, so it wins when both are
// active.
func SpeedFactor(effects []ActiveEffect, playerID string, now int64) float64 {
	if effectActive(effects, PowerUpSpeed, playerID, now) {
		return 2
	}
	if effectActive(effects, PowerUpSlow, playerID, now) {
		return 0.5
	}
	return 1
}

// ScoreMultiplier returns the food score multiplier for the player.
// Multipliers do not stack: the first active DOUBLE_SCORE wins.
func ScoreMultiplier(effects []ActiveEffect, playerID string, now int64) int {
	if effectActive(effects, PowerUpDoubleScore, playerID, now) {
		return 2
	}
	return 1
}

// IsInvincible reports whether snake collisions are ignored for the player
// this tick.
func IsInvincible(effects []ActiveEffect, playerID string, now int64) bool {
	return effectActive(effects, PowerUpInvincibility, playerID, now)
}

// liveGridPowerUps drops grid power-ups whose expiry has passed.
func liveGridPowerUps(ups []PowerUp, now int64) []PowerUp {
	kept := ups[:0:0]
	for _, u := range ups {
		if u.ExpiresAt > now {
			kept = append(kept, u)
		}
	}
	return kept
}

// liveEffects drops active effects whose expiry has passed.
func liveEffects(effects []ActiveEffect, now int64) []ActiveEffect {
	kept := effects[:0:0]
	for _, e := range effects {
		if e.ExpiresAt > now {
			kept = append(kept, e)
		}
	}
	return kept
}

// effectsForPlayer selects the effects owned by a player, preserving order.
func effectsForPlayer(effects []ActiveEffect, playerID string) []ActiveEffect {
	owned := []ActiveEffect{}
	for _, e := range effects {
		if e.PlayerID == playerID {
			owned = append(owned, e)
		}
	}
	return owned
}
