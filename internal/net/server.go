package net

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/shipcore/internal/config"
	"go.uber.org/zap"
)

// Server accepts websocket connections on /ws and creates Sessions.
// New/dead sessions are communicated to the game loop via channels; the
// session table itself is owned by the game loop.
type Server struct {
	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64
	cfg      config.SpectatorConfig
	log      *zap.Logger
	closeCh  chan struct{}

	sessions map[uint64]*Session // game loop only
	pilot    Pilot
}

func NewServer(cfg config.SpectatorConfig, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Spectators are local tools, not browsers on other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		cfg:      cfg,
		log:      log,
		closeCh:  make(chan struct{}),
		sessions: make(map[uint64]*Session),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	s.http = &http.Server{Handler: mux}
	return s, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	err := s.http.Serve(s.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		select {
		case <-s.closeCh:
		default:
			s.log.Error("spectator server stopped", zap.Error(err))
		}
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.cfg, s, s.log)
	sess.Start()

	s.log.Info("spectator connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("session queue full, rejecting connection")
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a dead session ID to the game loop.
func (s *Server) NotifyDead(sessionID uint64) {
	s.pilot.release(sessionID)
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session IDs.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Poll moves connected and disconnected sessions into the session table.
// Call it from the game loop only.
func (s *Server) Poll() {
	for {
		select {
		case sess := <-s.newConns:
			s.sessions[sess.ID] = sess
		case id := <-s.deadCh:
			if sess, ok := s.sessions[id]; ok {
				delete(s.sessions, id)
				s.log.Info("spectator disconnected", zap.Uint64("session", id), zap.String("ip", sess.IP))
			}
		default:
			return
		}
	}
}

// Sessions is the number of sessions the game loop knows about.
func (s *Server) Sessions() int {
	return len(s.sessions)
}

// Broadcast encodes snap once and queues it on every session. Sessions that
// cannot keep up are closed. Call it from the game loop only.
func (s *Server) Broadcast(snap *Snapshot) error {
	if len(s.sessions) == 0 {
		return nil
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	for id, sess := range s.sessions {
		if sess.IsClosed() {
			delete(s.sessions, id)
			continue
		}
		sess.Send(data)
	}
	return nil
}

// Pilot is the intent source for the player ship.
func (s *Server) Pilot() *Pilot {
	return &s.pilot
}

// Shutdown stops accepting new connections and closes every session.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.http.Close()
	s.Poll()
	for _, sess := range s.sessions {
		sess.Close()
	}
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Pilot holds the newest intent sent by any session. The session that sent
// it owns the controls until it disconnects.
type Pilot struct {
	mu     sync.Mutex
	intent Intent
	owner  uint64
}

func (p *Pilot) set(session uint64, in Intent) {
	p.mu.Lock()
	p.intent = in
	p.owner = session
	p.mu.Unlock()
}

func (p *Pilot) release(session uint64) {
	p.mu.Lock()
	if p.owner == session {
		p.intent = Intent{}
		p.owner = 0
	}
	p.mu.Unlock()
}

// Intent returns the current intent and whether any session is piloting.
func (p *Pilot) Intent() (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intent, p.owner != 0
}
