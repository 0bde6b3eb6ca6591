package chat

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/andy6609/roomrelay/internal/wire"
)

// Dispatcher fans frames out to room members.
type Dispatcher struct {
	rooms  *RoomRegistry
	logger zerolog.Logger
}

func NewDispatcher(rooms *RoomRegistry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{rooms: rooms, logger: logger}
}

// Broadcast queues f to every member of roomID except exclude, in member
// order, and returns how many members accepted it. Members that have gone away
// are skipped; delivery to the rest continues. The member list is a snapshot:
// a session leaving concurrently either gets f or is not in the snapshot.
func (d *Dispatcher) Broadcast(f *wire.Frame, roomID int, exclude *Session) (int, error) {
	start := time.Now()

	members, err := d.rooms.Members(roomID)
	if err != nil {
		return 0, err
	}
	delivered := fanOut(members, f, exclude)

	EventProcessingDuration.WithLabelValues(frameLabel(f.Type)).Observe(time.Since(start).Seconds())
	d.logger.Debug().
		Stringer("type", f.Type).
		Int("room", roomID).
		Int("delivered", delivered).
		Msg("broadcast")
	return delivered, nil
}

func fanOut(members []*Session, f *wire.Frame, exclude *Session) int {
	delivered := 0
	for _, m := range members {
		if m == exclude {
			continue
		}
		if m.send(f) {
			delivered++
		}
	}
	return delivered
}
