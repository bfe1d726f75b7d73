// Package session owns the current simulation state and everything that
// feeds it: the connected set, the per-player input intents, and the queued
// profile edits. All mutations funnel through one mutex, so the reducer sees
// a consistent view at every tick boundary and the published snapshot is
// never touched after it leaves Tick.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anabelle/gridsnake/internal/game"
)

// MaxNameLength bounds player display names.
const MaxNameLength = 16

// ProfileUpdate is a queued name/colour edit, applied at the start of the
// next tick before the reducer runs.
type ProfileUpdate struct {
	PlayerID string
	Name     string
	Color    string
}

// Manager owns the authoritative state and drives the reducer.
type Manager struct {
	mu         sync.Mutex
	engine     *game.Engine
	state      *game.State
	connected  map[string]bool
	intents    game.Inputs
	profileQ   []ProfileUpdate
	tickPeriod time.Duration
	lastTick   int64 // wall-clock ms of the previous tick, 0 before the first
	log        logrus.FieldLogger
}

// NewManager creates a manager around an initial state.
func NewManager(engine *game.Engine, initial *game.State, tickPeriod time.Duration, log logrus.FieldLogger) *Manager {
	return &Manager{
		engine:     engine,
		state:      initial,
		connected:  make(map[string]bool),
		intents:    make(game.Inputs),
		tickPeriod: tickPeriod,
		log:        log,
	}
}

// AddPlayer records the player as connected and creates or touches its stats
// row, preserving any prior score and death count. The name applies
// immediately; the colour becomes the preferred colour for the next spawn.
func (m *Manager) AddPlayer(id, name, color string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected[id] = true

	st := m.state.Clone()
	stats, ok := st.PlayerStats[id]
	if !ok {
		stats = &game.PlayerStats{ID: id}
		st.PlayerStats[id] = stats
	}
	if name = sanitizeName(name); name != "" {
		stats.Name = name
	} else if stats.Name == "" {
		stats.Name = id
	}
	if game.ValidColor(color) {
		stats.Color = color
	}
	stats.Connected = true
	m.state = st

	m.log.WithFields(logrus.Fields{"player": id, "name": stats.Name}).Info("player joined")
}

// RemovePlayer drops the player from the connected set; the snake itself is
// deleted by the next Advance. Idempotent.
func (m *Manager) RemovePlayer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected[id] {
		return
	}
	delete(m.connected, id)
	delete(m.intents, id)

	st := m.state.Clone()
	if stats, ok := st.PlayerStats[id]; ok {
		stats.Connected = false
	}
	m.state = st

	m.log.WithField("player", id).Info("player left")
}

// SetInput stashes the latest direction intent for the player. Intents are
// level-triggered: the last value before tick N is the one consumed at tick
// N. Inputs from unknown ids, or with an invalid axis pair, are dropped
// silently.
func (m *Manager) SetInput(id string, dx, dy int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected[id] {
		return
	}
	dir, ok := game.DirectionFromDelta(dx, dy)
	if !ok {
		m.log.WithFields(logrus.Fields{"player": id, "dx": dx, "dy": dy}).Debug("invalid input dropped")
		return
	}
	m.intents[id] = dir
}

// QueueProfileUpdate validates and enqueues a profile edit. Invalid updates
// are dropped; updates for unknown players are dropped with a warning at
// apply time.
func (m *Manager) QueueProfileUpdate(u ProfileUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.PlayerID == "" || sanitizeName(u.Name) == "" || !game.ValidColor(u.Color) {
		m.log.WithField("player", u.PlayerID).Debug("invalid profile update dropped")
		return
	}
	u.Name = sanitizeName(u.Name)
	m.profileQ = append(m.profileQ, u)
}

// Snapshot returns the current published state. Callers must not mutate it.
func (m *Manager) Snapshot() *game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PlayerCount returns the number of connected players.
func (m *Manager) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.connected)
}

// Tick applies queued profile updates, then advances the simulation one
// step. It returns nil when there is nothing to simulate (no connected
// player and no AI snake) or when the reducer failed, in which case the
// prior state is retained unchanged and the next tick tries again.
//
// The elapsed wall-clock is clamped to 5 tick periods so a suspended host
// does not fast-forward expiries on resume.
func (m *Manager) Tick(now time.Time) *game.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.connected) == 0 && m.state.SnakeByID(game.AIPlayerID) == nil {
		return nil
	}

	nowMS := now.UnixMilli()
	if m.lastTick != 0 {
		maxStep := 5 * m.tickPeriod.Milliseconds()
		if nowMS-m.lastTick > maxStep {
			nowMS = m.lastTick + maxStep
		}
	}
	m.lastTick = nowMS

	st := m.applyProfileUpdates()

	ids := make([]string, 0, len(m.connected))
	for id := range m.connected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	next, err := m.safeAdvance(st, nowMS, ids)
	if err != nil {
		m.log.WithError(err).Error("tick failed, state retained")
		return nil
	}
	m.state = next
	return next
}

// applyProfileUpdates drains the queue onto a fresh clone of the state,
// updating the stats row and, when the player's snake exists, its colour.
func (m *Manager) applyProfileUpdates() *game.State {
	if len(m.profileQ) == 0 {
		return m.state
	}
	st := m.state.Clone()
	for _, u := range m.profileQ {
		stats, ok := st.PlayerStats[u.PlayerID]
		if !ok {
			m.log.WithField("player", u.PlayerID).Warn("profile update for unknown player dropped")
			continue
		}
		stats.Name = u.Name
		stats.Color = u.Color
		if sn := st.SnakeByID(u.PlayerID); sn != nil {
			sn.Color = u.Color
		}
	}
	m.profileQ = m.profileQ[:0]
	m.state = st
	return st
}

// safeAdvance shields the loop from a panicking reducer: the tick is lost,
// the state is not.
func (m *Manager) safeAdvance(st *game.State, nowMS int64, ids []string) (next *game.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = &tickPanic{value: r}
		}
	}()
	return m.engine.Advance(st, cloneInputs(m.intents), nowMS, ids), nil
}

type tickPanic struct {
	value any
}

func (p *tickPanic) Error() string {
	return fmt.Sprintf("panic in advance: %v", p.value)
}

func cloneInputs(in game.Inputs) game.Inputs {
	out := make(game.Inputs, len(in))
	for id, d := range in {
		out[id] = d
	}
	return out
}

func sanitizeName(name string) string {
	if len(name) > MaxNameLength {
		return ""
	}
	return name
}
