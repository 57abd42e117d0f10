package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/shipcore/internal/config"
	"go.uber.org/zap"
)

// Session is one websocket connection. Network I/O runs in dedicated
// goroutines; game state is touched only from the game loop.
type Session struct {
	ID   uint64
	IP   string
	conn *websocket.Conn

	OutQueue chan []byte // writer goroutine reads from here

	server *Server
	cfg    config.SpectatorConfig

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn *websocket.Conn, id uint64, cfg config.SpectatorConfig, server *Server, log *zap.Logger) *Session {
	return &Session{
		ID:       id,
		IP:       conn.RemoteAddr().String(),
		conn:     conn,
		OutQueue: make(chan []byte, cfg.OutQueueSize),
		server:   server,
		cfg:      cfg,
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send queues one frame. Non-blocking: if OutQueue is full the session is
// disconnected.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- data:
	default:
		s.log.Warn("output queue full, dropping slow session")
		s.Close()
	}
}

// Close shuts the session down once and tells the server.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
		s.server.NotifyDead(s.ID)
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) pongWait() time.Duration {
	if s.cfg.ReadTimeout > 0 {
		return s.cfg.ReadTimeout
	}
	return 60 * time.Second
}

// readLoop decodes pilot intents until the connection fails.
func (s *Session) readLoop() {
	defer s.Close()

	if s.cfg.MaxFrameSize > 0 {
		s.conn.SetReadLimit(s.cfg.MaxFrameSize)
	}
	wait := s.pongWait()
	s.conn.SetReadDeadline(time.Now().Add(wait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		in, err := DecodeIntent(data)
		if err != nil {
			s.log.Debug("bad intent frame", zap.Error(err))
			continue
		}
		s.server.pilot.set(s.ID, in)
	}
}

// writeLoop writes queued frames and keeps the connection alive with pings.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.pongWait() * 9 / 10)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.write(websocket.BinaryMessage, data) {
				return
			}
		case <-ticker.C:
			if !s.write(websocket.PingMessage, nil) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) write(kind int, data []byte) bool {
	timeout := s.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.conn.SetWriteDeadline(time.Now().Add(timeout))
	if err := s.conn.WriteMessage(kind, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
