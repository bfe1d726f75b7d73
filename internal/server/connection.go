package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// writeWait bounds a single frame write, so one stalled client holds
	// the broadcast for at most this long.
	writeWait = time.Second
	// pongWait is how long a client may stay silent before it is
	// considered gone.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Conn wraps a single WebSocket session. PlayerID is the client-supplied
// stable identity; SessionID distinguishes this particular socket from a
// reconnect racing its predecessor's teardown.
type Conn struct {
	PlayerID  string
	SessionID string
	ws        *websocket.Conn
	mu        sync.Mutex // protects ws writes and closed
	closed    bool
}

// NewConn wraps an upgraded socket for the given player.
func NewConn(ws *websocket.Conn, playerID string) *Conn {
	return &Conn{
		PlayerID:  playerID,
		SessionID: uuid.New().String(),
		ws:        ws,
	}
}

// Send marshals msg and writes it as a single text frame.
func (c *Conn) Send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.SendBytes(data)
}

// SendBytes writes a pre-marshalled frame. Broadcasts serialise the snapshot
// once and fan the bytes out through here.
func (c *Conn) SendBytes(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// errConnClosed reports a write attempted after Close; the ping loop uses
// it to stop.
var errConnClosed = errors.New("connection closed")

// Ping writes a control ping.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close writes a close frame best-effort and tears the socket down.
// Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.ws.Close()
}

// ReadLoop consumes frames until the socket dies, dispatching input and
// profile events. Malformed payloads are dropped at debug level. The pong
// handler extends the read deadline, so a client that stops answering
// keepalives times out here and falls into onDisconnect.
func (c *Conn) ReadLoop(
	log logrus.FieldLogger,
	onInput func(playerID string, dx, dy int),
	onProfile func(playerID, name, color string),
	onDisconnect func(c *Conn),
) {
	defer func() {
		onDisconnect(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("read loop ended")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithError(err).Debug("malformed frame dropped")
			continue
		}

		switch msg.Type {
		case EventInput:
			if msg.DX == nil || msg.DY == nil {
				log.Debug("input frame missing axis")
				continue
			}
			onInput(c.PlayerID, *msg.DX, *msg.DY)
		case EventUpdateProfile:
			onProfile(msg.PlayerID, msg.Name, msg.Color)
		default:
			log.WithField("type", msg.Type).Debug("unknown frame type dropped")
		}
	}
}

// ConnManager tracks the active connection per player id.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewConnManager creates an empty connection manager.
func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[string]*Conn)}
}

// Add registers a connection, returning the connection it replaced for the
// same player, if any, so the caller can close it.
func (m *ConnManager) Add(c *Conn) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.conns[c.PlayerID]
	m.conns[c.PlayerID] = c
	return prev
}

// RemoveSession unregisters the connection only if it is still the active
// one for its player. Returns true only when this call removed it; false
// when the player has a newer connection or no registered connection.
func (m *ConnManager) RemoveSession(c *Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.conns[c.PlayerID]
	if !ok || cur.SessionID != c.SessionID {
		return false
	}
	delete(m.conns, c.PlayerID)
	return true
}

// Count returns the number of active connections.
func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Snapshot returns a copy of all current connections.
func (m *ConnManager) Snapshot() []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		list = append(list, c)
	}
	return list
}

// CloseAll closes every connection, for shutdown.
func (m *ConnManager) CloseAll() {
	for _, c := range m.Snapshot() {
		c.Close()
	}
}
