package chat

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andy6609/roomrelay/internal/config"
)

type Server struct {
	cfg        config.Config
	logger     zerolog.Logger
	rooms      *RoomRegistry
	sessions   *SessionRegistry
	dispatcher *Dispatcher

	listener   net.Listener
	acceptDone chan struct{}
	wg         sync.WaitGroup
}

// NewServer validates cfg and creates the configured startup rooms. Room 0 is
// the first entry of cfg.Rooms.
func NewServer(cfg config.Config, logger zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rooms := NewRoomRegistry(cfg.MaxRooms, cfg.MaxClients, logger)
	for _, name := range cfg.Rooms {
		if _, err := rooms.Create(name); err != nil {
			return nil, fmt.Errorf("create room %q: %w", name, err)
		}
	}

	return &Server{
		cfg:        cfg,
		logger:     logger,
		rooms:      rooms,
		sessions:   NewSessionRegistry(cfg.MaxClients, rooms),
		dispatcher: NewDispatcher(rooms, logger),
	}, nil
}

func (s *Server) Rooms() *RoomRegistry       { return s.rooms }
func (s *Server) Sessions() *SessionRegistry { return s.sessions }
func (s *Server) Dispatcher() *Dispatcher    { return s.dispatcher }

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listener and begins accepting in the background. A bind
// failure is returned to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	s.acceptDone = make(chan struct{})

	go s.acceptLoop(ln)

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("server started")
	return nil
}

// Stop closes the listener, disconnects every session and waits for their
// goroutines to finish.
func (s *Server) Stop() {
	s.logger.Info().Msg("shutting down")

	if s.listener != nil {
		_ = s.listener.Close()
		<-s.acceptDone
	}
	for _, sess := range s.sessions.Snapshot() {
		sess.Close()
	}
	s.wg.Wait()

	s.logger.Info().Msg("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer close(s.acceptDone)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("accept failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		sess := newSession(conn, s.cfg.QueueSize, s.logger)
		if err := s.sessions.Add(sess); err != nil {
			RejectedConnections.Inc()
			s.logger.Warn().Err(err).Str("addr", conn.RemoteAddr().String()).Msg("connection rejected")
			_ = conn.Close()
			continue
		}

		s.logger.Info().Str("addr", conn.RemoteAddr().String()).Str("session", sess.ID()).Msg("client connected")
		s.wg.Add(1)
		go s.handleSession(sess)
	}
}

// disconnect runs once per session when its receive loop ends.
func (s *Server) disconnect(sess *Session) {
	s.sessions.Remove(sess)
	sess.Close()
}
