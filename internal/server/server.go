package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anabelle/gridsnake/internal/config"
	"github.com/anabelle/gridsnake/internal/game"
	"github.com/anabelle/gridsnake/internal/session"
)

// shutdownGrace bounds the HTTP drain on shutdown; the process watchdog in
// cmd forces an exit shortly after.
const shutdownGrace = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The game carries no credentials; any origin may connect.
		return true
	},
}

// Server accepts WebSocket players, feeds their messages to the session
// manager, and runs the fixed-interval tick/broadcast loop.
type Server struct {
	cfg   *config.Config
	log   logrus.FieldLogger
	mgr   *session.Manager
	conns *ConnManager
	http  *http.Server
}

// New wires the transport around a session manager.
func New(cfg *config.Config, log logrus.FieldLogger, mgr *session.Manager) *Server {
	s := &Server{
		cfg:   cfg,
		log:   log,
		mgr:   mgr,
		conns: NewConnManager(),
	}
	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWS)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.http = &http.Server{Addr: cfg.Addr(), Handler: router}
	return s
}

// Run serves until ctx is cancelled, then drains: the loop stops, every
// client gets a close frame, and the HTTP listener shuts down.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", s.cfg.Addr()).Info("server listening")
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.loop(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.conns.CloseAll()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.http.Shutdown(shutCtx)
	})

	return g.Wait()
}

// loop drives the manager every tick period and broadcasts each produced
// snapshot. The snapshot is serialised once; the bytes fan out per client.
func (s *Server) loop(ctx context.Context) {
	s.log.WithField("period", s.cfg.TickPeriod).Info("game loop started")
	ticker := channerics.NewTicker(ctx.Done(), s.cfg.TickPeriod)
	for range ticker {
		st := s.mgr.Tick(time.Now())
		if st == nil {
			continue
		}
		s.broadcast(st)
	}
	s.log.Info("game loop stopped")
}

func (s *Server) broadcast(st *game.State) {
	data, err := json.Marshal(StateSyncMsg{Type: EventStateSync, State: st})
	if err != nil {
		s.log.WithError(err).Error("snapshot marshal failed, broadcast skipped")
		return
	}
	for _, c := range s.conns.Snapshot() {
		if err := c.SendBytes(data); err != nil {
			// A failed send is that client's disconnect; others are
			// unaffected.
			s.log.WithFields(logrus.Fields{"player": c.PlayerID, "conn": c.SessionID}).
				WithError(err).Info("send failed, dropping client")
			s.dropConn(c)
		}
	}
}

// handleWS is the join handshake. The client must supply its stable player
// identity as the playerId query parameter; name and color are optional
// profile seeds. The new connection immediately receives the current
// snapshot.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	name := r.URL.Query().Get("name")
	color := r.URL.Query().Get("color")

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("ws upgrade failed")
		return
	}

	// Reject after the upgrade so the client can read the reason.
	if playerID == "" || playerID == game.AIPlayerID {
		sendErrorAndClose(ws, "playerId query parameter required")
		return
	}
	if s.conns.Count() >= s.cfg.MaxPlayers {
		sendErrorAndClose(ws, "server full, try again later")
		return
	}

	conn := NewConn(ws, playerID)
	log := s.log.WithFields(logrus.Fields{
		"player": playerID, "conn": conn.SessionID, "remote": r.RemoteAddr,
	})

	if prev := s.conns.Add(conn); prev != nil {
		log.Info("superseding previous connection")
		prev.Close()
	}
	s.mgr.AddPlayer(playerID, name, color)
	log.Info("player connected")

	if err := conn.Send(StateSyncMsg{Type: EventStateSync, State: s.mgr.Snapshot()}); err != nil {
		log.WithError(err).Info("initial snapshot send failed")
		s.dropConn(conn)
		return
	}

	go s.pingLoop(conn)

	conn.ReadLoop(log,
		func(playerID string, dx, dy int) { s.mgr.SetInput(playerID, dx, dy) },
		func(playerID, name, color string) {
			s.mgr.QueueProfileUpdate(session.ProfileUpdate{PlayerID: playerID, Name: name, Color: color})
		},
		func(c *Conn) {
			if s.conns.RemoveSession(c) {
				s.mgr.RemovePlayer(c.PlayerID)
				log.Info("player disconnected")
			}
		},
	)
}

// pingLoop keeps the keepalive going until the connection is gone; a client
// that stops ponging blows its read deadline in ReadLoop.
func (s *Server) pingLoop(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := c.Ping(); err != nil {
			s.dropConn(c)
			return
		}
	}
}

func (s *Server) dropConn(c *Conn) {
	if s.conns.RemoveSession(c) {
		s.mgr.RemovePlayer(c.PlayerID)
	}
	c.Close()
}

// handleHealth reports liveness plus the current tick sequence and player
// count, for operators and probes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.mgr.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "ok",
		"sequence":    st.Sequence,
		"playerCount": s.mgr.PlayerCount(),
	})
}

// sendErrorAndClose sends an error frame then closes the socket.
func sendErrorAndClose(ws *websocket.Conn, msg string) {
	data, _ := json.Marshal(ErrorMsg{Type: EventError, Message: msg})
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.TextMessage, data)
	_ = ws.Close()
}
