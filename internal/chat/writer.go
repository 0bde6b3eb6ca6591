package chat

import (
	"time"

	"github.com/andy6609/roomrelay/internal/wire"
)

// StartOutboundWriter drains the session queue onto its connection until the
// session closes. A failed write closes the session, which in turn unblocks
// every broadcaster waiting on its queue.
func StartOutboundWriter(s *Session, timeout time.Duration) {
	go func() {
		w := wire.NewWriter(s.conn)
		for {
			select {
			case f := <-s.out:
				if timeout > 0 {
					_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
				}
				if err := w.WriteFrame(f); err != nil {
					s.logger.Debug().Err(err).Msg("write failed")
					s.Close()
					return
				}
				// Batch frames that are already queued into one flush.
				if len(s.out) > 0 {
					continue
				}
				if err := w.Flush(); err != nil {
					s.logger.Debug().Err(err).Msg("flush failed")
					s.Close()
					return
				}
			case <-s.done:
				return
			}
		}
	}()
}
