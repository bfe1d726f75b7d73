package server

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anabelle/gridsnake/internal/game"
)

// populatedState exercises every snapshot field.
func populatedState() *game.State {
	st := game.NewState(game.GridSize{Width: 10, Height: 10}, 12345)
	st.Snakes = []*game.Snake{
		{
			ID: "p1", Color: "#FF0000",
			Body:      []game.Point{{5, 5}, {4, 5}},
			Direction: game.Right,
			Score:     7,
			Effects: []game.ActiveEffect{
				{Kind: game.PowerUpSpeed, PlayerID: "p1", ExpiresAt: 9000},
			},
		},
		{
			ID: "p2", Color: "#00FF00",
			Body:      []game.Point{{8, 8}},
			Direction: game.Up,
			Score:     0,
			Effects:   []game.ActiveEffect{},
		},
	}
	st.Food = []game.Food{{Position: game.Point{1, 1}, Value: 1}}
	st.PowerUps = []game.PowerUp{
		{ID: "powerup-3", Kind: game.PowerUpDoubleScore, Position: game.Point{2, 2}, ExpiresAt: 11000},
	}
	st.ActivePowerUps = []game.ActiveEffect{
		{Kind: game.PowerUpSpeed, PlayerID: "p1", ExpiresAt: 9000},
	}
	st.Timestamp = 1000
	st.Sequence = 17
	st.PlayerCount = 2
	st.PowerUpCounter = 4
	st.PlayerStats = map[string]*game.PlayerStats{
		"p2": {ID: "p2", Name: "B", Color: "#00FF00", Score: 0, Deaths: 2, Connected: true},
		"p1": {ID: "p1", Name: "A", Color: "#FF0000", Score: 7, Deaths: 0, Connected: true},
	}
	return st
}

func TestStateSyncRoundTrip(t *testing.T) {
	original := populatedState()
	data, err := json.Marshal(StateSyncMsg{Type: EventStateSync, State: original})
	require.NoError(t, err)

	var decoded StateSyncMsg
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventStateSync, decoded.Type)
	assert.Equal(t, original, decoded.State)
}

func TestStateSyncFieldNames(t *testing.T) {
	data, err := json.Marshal(StateSyncMsg{Type: EventStateSync, State: populatedState()})
	require.NoError(t, err)

	var flat map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &flat))

	for _, key := range []string{
		"type", "snakes", "food", "powerUps", "activePowerUps", "gridSize",
		"timestamp", "sequence", "rngSeed", "playerCount", "powerUpCounter", "playerStats",
	} {
		assert.Contains(t, flat, key)
	}

	var grid struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	require.NoError(t, json.Unmarshal(flat["gridSize"], &grid))
	assert.Equal(t, 10, grid.Width)
	assert.Equal(t, 10, grid.Height)
}

func TestSnapshotSerialisationIsDeterministic(t *testing.T) {
	a, err := json.Marshal(StateSyncMsg{Type: EventStateSync, State: populatedState()})
	require.NoError(t, err)
	b, err := json.Marshal(StateSyncMsg{Type: EventStateSync, State: populatedState()})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Map keys serialise lexicographically, so playerStats ordering cannot
	// leak insertion order onto the wire.
	stats := a[bytes.Index(a, []byte(`"playerStats"`)):]
	assert.Less(t, bytes.Index(stats, []byte(`"p1"`)), bytes.Index(stats, []byte(`"p2"`)))
}

func TestClientMessageDecoding(t *testing.T) {
	t.Run("input", func(t *testing.T) {
		var msg ClientMessage
		require.NoError(t, json.Unmarshal([]byte(`{"type":"input","dx":1,"dy":0}`), &msg))
		assert.Equal(t, EventInput, msg.Type)
		require.NotNil(t, msg.DX)
		require.NotNil(t, msg.DY)
		assert.Equal(t, 1, *msg.DX)
		assert.Equal(t, 0, *msg.DY)
	})

	t.Run("input with missing axis", func(t *testing.T) {
		var msg ClientMessage
		require.NoError(t, json.Unmarshal([]byte(`{"type":"input","dx":1}`), &msg))
		assert.NotNil(t, msg.DX)
		assert.Nil(t, msg.DY, "missing axis must be distinguishable from zero")
	})

	t.Run("updateProfile", func(t *testing.T) {
		var msg ClientMessage
		raw := `{"type":"updateProfile","playerId":"p1","name":"Alice","color":"#00FF00"}`
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))
		assert.Equal(t, EventUpdateProfile, msg.Type)
		assert.Equal(t, "p1", msg.PlayerID)
		assert.Equal(t, "Alice", msg.Name)
		assert.Equal(t, "#00FF00", msg.Color)
	})

	t.Run("non-numeric axis is rejected by the decoder", func(t *testing.T) {
		var msg ClientMessage
		assert.Error(t, json.Unmarshal([]byte(`{"type":"input","dx":"east","dy":0}`), &msg))
	})
}

func TestDirectionWireNames(t *testing.T) {
	data, err := json.Marshal(game.Right)
	require.NoError(t, err)
	assert.Equal(t, `"RIGHT"`, string(data))

	var d game.Direction
	require.NoError(t, json.Unmarshal([]byte(`"UP"`), &d))
	assert.Equal(t, game.Up, d)

	assert.Error(t, json.Unmarshal([]byte(`"NORTH"`), &d))
}
