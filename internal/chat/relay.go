package chat

import (
	"fmt"
	"io"

	"github.com/andy6609/roomrelay/internal/wire"
)

// relayFile streams the raw payload announced by start from r to the sender's
// room, one chunk at a time. Nothing beyond a single chunk is buffered.
//
// The idle deadline is re-armed before every chunk read, so a slow but steady
// sender is not cut off. FileEnd is only sent after the full declared size
// has been relayed. A read
// error aborts the transfer without FileEnd and is returned, ending the
// session.
func (srv *Server) relayFile(s *Session, r io.Reader, start *wire.Frame) error {
	declared := start.Size
	room := s.RoomID()

	if srv.cfg.MaxFileSize > 0 && declared > srv.cfg.MaxFileSize {
		srv.reportError(s, ErrFileTooLarge)
		return srv.drain(s, r, declared)
	}
	if room == wire.NoRoom {
		srv.reportError(s, ErrNotInRoom)
		return srv.drain(s, r, declared)
	}

	announcement := &wire.Frame{
		Type:    wire.TypeFileStart,
		Sender:  s.Username(),
		Content: start.Content,
		RoomID:  int32(room),
		Size:    declared,
	}
	s.logger.Info().Str("file", announcement.Text()).Uint64("size", declared).Int("room", room).Msg("file transfer started")
	srv.broadcastFrom(s, announcement, room)

	buf := make([]byte, srv.cfg.ChunkSize)
	remaining := declared
	for remaining > 0 {
		want := uint64(len(buf))
		if remaining < want {
			want = remaining
		}
		srv.armReadDeadline(s)
		n, err := r.Read(buf[:want])
		if n > 0 {
			remaining -= uint64(n)
			FileBytesRelayed.Add(float64(n))
			srv.broadcastFrom(s, &wire.Frame{
				Type:    wire.TypeFileData,
				Sender:  announcement.Sender,
				Content: append([]byte(nil), buf[:n]...),
				RoomID:  int32(room),
				Size:    uint64(n),
			}, room)
		}
		if err != nil {
			return fmt.Errorf("file transfer aborted after %d of %d bytes: %w", declared-remaining, declared, err)
		}
	}

	end := announcement.Clone()
	end.Type = wire.TypeFileEnd
	srv.broadcastFrom(s, end, room)
	s.logger.Info().Str("file", announcement.Text()).Uint64("size", declared).Msg("file transfer finished")
	return nil
}

func (srv *Server) broadcastFrom(s *Session, f *wire.Frame, room int) {
	if _, err := srv.dispatcher.Broadcast(f, room, s); err != nil {
		s.logger.Debug().Err(err).Stringer("type", f.Type).Msg("broadcast failed")
	}
}

// drain discards a payload the server refused to relay so the next frame is
// read from the right offset. The idle deadline is re-armed per chunk.
func (srv *Server) drain(s *Session, r io.Reader, size uint64) error {
	buf := make([]byte, srv.cfg.ChunkSize)
	for size > 0 {
		want := min(size, uint64(len(buf)))
		srv.armReadDeadline(s)
		n, err := r.Read(buf[:want])
		size -= uint64(n)
		if err != nil && size > 0 {
			return fmt.Errorf("discard file payload: %w", err)
		}
	}
	return nil
}
