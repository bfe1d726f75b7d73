// Package server is the transport layer: the WebSocket handshake, the
// per-connection read loop, and the fixed-cadence state broadcast.
package server

import "github.com/anabelle/gridsnake/internal/game"

// Wire protocol: JSON text frames over a WebSocket.
//
//	Client → Server:
//	  input         {"type":"input","dx":1,"dy":0}
//	                dx=-1 LEFT, dx=1 RIGHT, dy=1 UP, dy=-1 DOWN;
//	                exactly one axis non-zero
//	  updateProfile {"type":"updateProfile","playerId":"p1","name":"A","color":"#FF0000"}
//	Server → Client:
//	  state-sync    {"type":"state-sync", ...full state snapshot...}
//	  error         {"type":"error","message":"..."}
//
// The player identity is supplied at handshake time via the playerId query
// parameter and is stable across reconnects.

// Event type identifiers, carried in the "type" field of every frame.
const (
	EventInput         = "input"
	EventUpdateProfile = "updateProfile"
	EventStateSync     = "state-sync"
	EventError         = "error"
)

// ClientMessage is the envelope for every incoming frame. Axis fields are
// pointers so a missing value is distinguishable from zero; frames that
// fail to decode, or decode into an unknown type, are dropped.
type ClientMessage struct {
	Type     string `json:"type"`
	DX       *int   `json:"dx,omitempty"`
	DY       *int   `json:"dy,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
	Color    string `json:"color,omitempty"`
}

// StateSyncMsg is the per-tick snapshot broadcast. Embedding inlines the
// state fields next to the type tag, so clients see one flat object:
// snakes, food, powerUps, activePowerUps, gridSize, timestamp, sequence,
// rngSeed, playerCount, powerUpCounter, playerStats.
type StateSyncMsg struct {
	Type string `json:"type"`
	*game.State
}

// ErrorMsg tells a client why its connection is being refused.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
