package chat

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andy6609/roomrelay/internal/config"
	"github.com/andy6609/roomrelay/internal/wire"
)

// Session is the server-side state of one client connection.
type Session struct {
	id          string
	conn        net.Conn
	addr        string
	connectedAt time.Time

	name    atomic.Value // string, set once by the handshake
	roomID  atomic.Int32 // written only by RoomRegistry under its lock
	evicted bool         // guarded by RoomRegistry.mu

	out       chan *wire.Frame
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

func newSession(conn net.Conn, queue int, logger zerolog.Logger) *Session {
	if queue <= 0 {
		queue = 64
	}
	var addr string
	if conn != nil {
		addr = conn.RemoteAddr().String()
	}
	s := &Session{
		id:          uuid.NewString(),
		conn:        conn,
		addr:        addr,
		connectedAt: time.Now(),
		out:         make(chan *wire.Frame, queue),
		done:        make(chan struct{}),
	}
	s.name.Store("")
	s.roomID.Store(wire.NoRoom)
	s.logger = logger.With().Str("session", s.id).Str("addr", addr).Logger()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Username() string {
	name, _ := s.name.Load().(string)
	return name
}

func (s *Session) setUsername(name string) {
	s.name.Store(name)
	s.logger = s.logger.With().Str("username", name).Logger()
}

// RoomID returns the current room, or wire.NoRoom.
func (s *Session) RoomID() int { return int(s.roomID.Load()) }

// Active reports whether the session has not been closed yet.
func (s *Session) Active() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:          s.id,
		Username:    s.Username(),
		RoomID:      s.RoomID(),
		RemoteAddr:  s.addr,
		ConnectedAt: s.connectedAt,
	}
}

// send queues f for the writer goroutine. It waits while the queue is full and
// returns false once the session is closed.
func (s *Session) send(f *wire.Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- f:
		return true
	case <-s.done:
		return false
	}
}

// Close marks the session inactive and closes its connection. Safe to call
// from any goroutine, any number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// handleSession owns the receive side of one connection from handshake to
// disconnect.
func (srv *Server) handleSession(s *Session) {
	defer srv.wg.Done()
	defer srv.disconnect(s)

	r := wire.NewReader(s.conn)

	srv.armReadDeadline(s)
	username, err := srv.handshake(r)
	if err != nil {
		s.logger.Info().Err(err).Msg("handshake failed")
		if errors.Is(err, ErrUsernameInvalid) {
			srv.writeDirect(s, errorFrame(ErrUsernameInvalid, wire.NoRoom))
		}
		return
	}
	s.setUsername(username)
	StartOutboundWriter(s, srv.cfg.WriteTimeout)
	s.logger.Info().Msg("user logged in")

	if err := srv.rooms.Join(DefaultRoom, s); err != nil {
		s.logger.Warn().Err(err).Msg("could not join default room")
		srv.reportError(s, err)
	}

	for {
		srv.armReadDeadline(s)
		f, err := r.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info().Msg("client disconnected")
			} else {
				s.logger.Info().Err(err).Msg("connection closed")
			}
			return
		}

		MessagesTotal.WithLabelValues(frameLabel(f.Type)).Inc()
		if err := srv.route(s, r, f); err != nil {
			s.logger.Info().Err(err).Msg("session aborted")
			return
		}
	}
}

// route dispatches one inbound frame. A returned error ends the session.
func (srv *Server) route(s *Session, r io.Reader, f *wire.Frame) error {
	switch f.Type {
	case wire.TypeChat:
		room := s.RoomID()
		if room == wire.NoRoom {
			srv.reportError(s, ErrNotInRoom)
			return nil
		}
		msg := wire.NewText(wire.TypeChat, s.Username(), room, f.Text())
		if _, err := srv.dispatcher.Broadcast(msg, room, s); err != nil {
			srv.reportError(s, err)
		}
	case wire.TypeJoinRoom:
		if err := srv.rooms.Join(int(f.RoomID), s); err != nil {
			s.logger.Debug().Err(err).Int32("room", f.RoomID).Msg("join rejected")
			srv.reportError(s, err)
		}
	case wire.TypeLeaveRoom:
		srv.rooms.Leave(s)
	case wire.TypeListRooms:
		for _, info := range srv.rooms.List() {
			text := fmt.Sprintf("Room %d: %s (%d users)", info.ID, info.Name, info.Members)
			reply := wire.NewText(wire.TypeListRooms, "", info.ID, text)
			reply.Size = uint64(info.Members)
			s.send(reply)
		}
	case wire.TypeListUsers:
		room := s.RoomID()
		for _, name := range srv.rooms.Users(room) {
			s.send(wire.NewText(wire.TypeListUsers, "", room, name))
		}
	case wire.TypeFileStart:
		return srv.relayFile(s, r, f)
	default:
		s.logger.Debug().Stringer("type", f.Type).Msg("ignoring frame")
	}
	return nil
}

func (srv *Server) handshake(r *wire.Reader) (string, error) {
	var name string
	switch srv.cfg.Handshake {
	case config.HandshakeRaw:
		buf := make([]byte, wire.MaxUsername)
		n, err := r.Read(buf)
		if n == 0 && err != nil {
			return "", fmt.Errorf("read username: %w", err)
		}
		name = string(buf[:n])
		if i := strings.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
	default:
		f, err := r.ReadFrame()
		if err != nil {
			return "", fmt.Errorf("read hello: %w", err)
		}
		if f.Type != wire.TypeHello {
			return "", fmt.Errorf("first frame is %s: %w", f.Type, ErrUsernameInvalid)
		}
		name = f.Sender
		if name == "" {
			name = f.Text()
		}
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > wire.MaxUsername {
		return "", ErrUsernameInvalid
	}
	return name, nil
}

func (srv *Server) armReadDeadline(s *Session) {
	if srv.cfg.IdleTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(srv.cfg.IdleTimeout))
	}
}

// writeDirect writes one frame synchronously. Only valid before the outbound
// writer has been started.
func (srv *Server) writeDirect(s *Session, f *wire.Frame) {
	if srv.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(srv.cfg.WriteTimeout))
	}
	w := wire.NewWriter(s.conn)
	if err := w.WriteFrame(f); err == nil {
		_ = w.Flush()
	}
}

// reportError tells the client why its last request did nothing.
func (srv *Server) reportError(s *Session, err error) {
	s.send(errorFrame(err, s.RoomID()))
}

func errorFrame(err error, room int) *wire.Frame {
	var code errorString
	if !errors.As(err, &code) {
		code = "internal_error"
	}
	return wire.NewText(wire.TypeError, "", room, string(code))
}

func frameLabel(t wire.Type) string {
	if t < wire.TypeChat || t > wire.TypeError {
		return "unknown"
	}
	return t.String()
}
