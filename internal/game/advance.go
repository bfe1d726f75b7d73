package game

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/anabelle/gridsnake/internal/prng"
)

// Rules are the tunable simulation constants, published via configuration.
type Rules struct {
	Grid              GridSize
	TargetFood        int
	FoodValue         int
	MaxPowerUps       int
	PowerUpChance     float64
	PowerUpDurationMS int64
	EffectDurationMS  int64
	AIEnabled         bool
}

// DefaultRules returns the reference values.
func DefaultRules() Rules {
	return Rules{
		Grid:              GridSize{Width: 50, Height: 50},
		TargetFood:        3,
		FoodValue:         1,
		MaxPowerUps:       2,
		PowerUpChance:     0.01,
		PowerUpDurationMS: 10000,
		EffectDurationMS:  8000,
		AIEnabled:         true,
	}
}

// Inputs maps player id to the latest intended direction for the tick.
type Inputs map[string]Direction

// Engine evaluates ticks under a fixed rule set. The logger is diagnostic
// only; it never influences the produced state.
type Engine struct {
	rules Rules
	log   logrus.FieldLogger
}

// NewEngine returns an engine for the given rules.
func NewEngine(rules Rules, log logrus.FieldLogger) *Engine {
	return &Engine{rules: rules, log: log}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Advance is the tick reducer: it consumes the previous state, the latest
// inputs, the tick's clock value (wall-clock ms) and the connected player
// set, and returns a fresh successor state. The input state is never
// mutated. PRNG draws happen at fixed points in a fixed order, so the
// post-tick seed is a deterministic function of state and inputs.
func (e *Engine) Advance(prev *State, inputs Inputs, now int64, connectedIDs []string) *State {
	st := prev.Clone()
	rng := prng.New(st.RNGSeed)

	// 1. Membership reconciliation.
	humans := sortedUnique(connectedIDs)
	connected := make(map[string]bool, len(humans)+1)
	for _, id := range humans {
		connected[id] = true
	}
	if e.rules.AIEnabled && len(humans) > 0 {
		connected[AIPlayerID] = true
	}
	e.reconcileMembership(st, rng, connected)

	// 2. Expire power-ups and active effects.
	st.PowerUps = liveGridPowerUps(st.PowerUps, now)
	st.ActivePowerUps = liveEffects(st.ActivePowerUps, now)

	// 3. Input application. Opposite-direction intents are rejected for
	// snakes longer than one segment.
	for _, sn := range st.Snakes {
		var intent Direction
		var ok bool
		if sn.ID == AIPlayerID {
			intent, ok = AIDirection(st), true
		} else {
			intent, ok = inputs[sn.ID]
		}
		if !ok {
			continue
		}
		if intent == sn.Direction.Opposite() && len(sn.Body) > 1 {
			continue
		}
		sn.Direction = intent
	}

	// 4. Sub-stepped movement and interactions. Move budgets are fixed
	// before anyone moves; all snakes take their first step before any
	// takes its second.
	moves := make(map[string]int, len(st.Snakes))
	for _, sn := range st.Snakes {
		moves[sn.ID] = movesForFactor(SpeedFactor(st.ActivePowerUps, sn.ID, now), st.Sequence)
	}
	dead := make(map[string]bool)
	for step := 0; step < 2; step++ {
		for _, sn := range st.Snakes {
			if dead[sn.ID] || moves[sn.ID] <= step {
				continue
			}
			e.stepSnake(st, sn, dead, now)
		}
	}

	// 5. Commit removals.
	if len(dead) > 0 {
		kept := st.Snakes[:0:0]
		for _, sn := range st.Snakes {
			if !dead[sn.ID] {
				kept = append(kept, sn)
				continue
			}
			stats := st.PlayerStats[sn.ID]
			stats.Deaths++
			stats.Score = sn.Score
			e.log.WithFields(logrus.Fields{"player": sn.ID, "deaths": stats.Deaths}).Debug("snake removed")
		}
		st.Snakes = kept
	}

	// 6. Food replenishment.
	occ := NewOccupancy(OccupiedCells(st))
	for len(st.Food) < e.rules.TargetFood {
		f, ok := SpawnFood(rng, e.rules.Grid, occ, e.rules.FoodValue)
		if !ok {
			e.log.Warn("food spawn skipped: no free cell")
			break
		}
		st.Food = append(st.Food, f)
		occ.Add(f.Position)
	}

	// 7. Power-up spawn.
	if rng.Float64() < e.rules.PowerUpChance && len(st.PowerUps) < e.rules.MaxPowerUps {
		u, ok := SpawnPowerUp(rng, e.rules.Grid, occ, now, e.rules.PowerUpDurationMS, st.PowerUpCounter)
		if ok {
			st.PowerUps = append(st.PowerUps, u)
			st.PowerUpCounter++
			occ.Add(u.Position)
		} else {
			e.log.Warn("power-up spawn skipped: no free cell")
		}
	}

	// 8. Finalise.
	st.Timestamp = now
	st.Sequence++
	st.RNGSeed = rng.State()
	st.PlayerCount = len(humans)
	for _, sn := range st.Snakes {
		stats := st.PlayerStats[sn.ID]
		if stats.Score != sn.Score {
			e.log.WithFields(logrus.Fields{
				"player": sn.ID, "snake": sn.Score, "stats": stats.Score,
			}).Warn("score divergence reconciled")
			if sn.Score > stats.Score {
				stats.Score = sn.Score
			} else {
				sn.Score = stats.Score
			}
		}
		sn.Effects = effectsForPlayer(st.ActivePowerUps, sn.ID)
	}
	return st
}

// reconcileMembership spawns snakes for newly connected ids, removes snakes
// whose ids left, and keeps stats Connected flags in sync. Reconnecting
// players get their preserved score and preferred colour back before the
// tick's logic runs.
func (e *Engine) reconcileMembership(st *State, rng *prng.Mulberry32, connected map[string]bool) {
	// Departures first, so their cells free up for spawns.
	kept := st.Snakes[:0:0]
	for _, sn := range st.Snakes {
		if connected[sn.ID] {
			kept = append(kept, sn)
			continue
		}
		if stats, ok := st.PlayerStats[sn.ID]; ok {
			stats.Connected = false
			stats.Score = sn.Score
		}
	}
	st.Snakes = kept

	ids := make([]string, 0, len(connected))
	for id := range connected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	occ := NewOccupancy(OccupiedCells(st))
	for _, id := range ids {
		stats, known := st.PlayerStats[id]
		if !known {
			stats = &PlayerStats{ID: id, Name: defaultName(id), Color: colorForID(id)}
			st.PlayerStats[id] = stats
		}
		stats.Connected = true
		if st.SnakeByID(id) != nil {
			continue
		}
		sn, placed := NewSnake(id, e.rules.Grid, occ, rng, stats.Color)
		if !placed {
			e.log.WithField("player", id).Error("no free cell for spawn, using sentinel")
		}
		sn.Score = stats.Score
		stats.Color = sn.Color
		st.Snakes = append(st.Snakes, sn)
		occ.Add(sn.Head())
	}
	st.sortSnakes()

	for id, stats := range st.PlayerStats {
		if !connected[id] {
			stats.Connected = false
		}
	}
}

// stepSnake performs one movement sub-step: collision check on committed
// positions, body advance, then food and power-up pickup at the new head.
func (e *Engine) stepSnake(st *State, sn *Snake, dead map[string]bool, now int64) {
	newHead := AdvanceHead(sn.Head(), sn.Direction, e.rules.Grid)
	if !IsInvincible(st.ActivePowerUps, sn.ID, now) && collidesLive(newHead, st.Snakes, dead, sn.ID) {
		dead[sn.ID] = true
		return
	}
	sn.MoveTo(newHead)

	if i := FoodAt(newHead, st.Food); i >= 0 {
		value := st.Food[i].Value
		st.Food = append(st.Food[:i], st.Food[i+1:]...)
		sn.Grow()
		sn.Score += value * ScoreMultiplier(st.ActivePowerUps, sn.ID, now)
		st.PlayerStats[sn.ID].Score = sn.Score
	}
	if i := PowerUpAt(newHead, st.PowerUps); i >= 0 {
		u := st.PowerUps[i]
		st.PowerUps = append(st.PowerUps[:i], st.PowerUps[i+1:]...)
		st.ActivePowerUps = append(st.ActivePowerUps, ActiveEffect{
			Kind:      u.Kind,
			PlayerID:  sn.ID,
			ExpiresAt: now + e.rules.EffectDurationMS,
		})
	}
}

// collidesLive is CollidesWithSnake restricted to snakes that are not
// already marked for removal this tick.
func collidesLive(p Point, snakes []*Snake, dead map[string]bool, selfID string) bool {
	for _, sn := range snakes {
		if dead[sn.ID] {
			continue
		}
		for i, seg := range sn.Body {
			if i == 0 && sn.ID == selfID {
				continue
			}
			if seg == p {
				return true
			}
		}
	}
	return false
}

// movesForFactor converts a speed factor into this tick's move budget.
// SLOW snakes move only on odd sequence numbers, evaluated on the sequence
// value the tick started with.
func movesForFactor(factor float64, sequence uint64) int {
	switch {
	case factor == 2:
		return 2
	case factor == 0.5:
		if sequence%2 == 1 {
			return 1
		}
		return 0
	default:
		return 1
	}
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == AIPlayerID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func defaultName(id string) string {
	if id == AIPlayerID {
		return AIName
	}
	return id
}
