package chat

import (
	"slices"
	"sync"

	"github.com/andy6609/roomrelay/internal/wire"
)

// SessionRegistry is the bounded set of live sessions.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions []*Session
	max      int
	rooms    *RoomRegistry
}

func NewSessionRegistry(max int, rooms *RoomRegistry) *SessionRegistry {
	return &SessionRegistry{max: max, rooms: rooms}
}

// Add admits s, or returns ErrSessionsFull without touching existing entries.
func (r *SessionRegistry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		return ErrSessionsFull
	}
	r.sessions = append(r.sessions, s)
	ConnectedClients.Set(float64(len(r.sessions)))
	return nil
}

// Remove deletes s and, if it is still in a room, removes it from that room
// and announces the departure. Later joins by s fail. It reports whether s
// was registered.
func (r *SessionRegistry) Remove(s *Session) bool {
	r.mu.Lock()
	i := slices.Index(r.sessions, s)
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	r.sessions = slices.Delete(r.sessions, i, i+1)
	ConnectedClients.Set(float64(len(r.sessions)))

	// sessions lock is held; rooms lock is taken second.
	roomID, stayed := r.rooms.evict(s)
	r.mu.Unlock()

	if roomID != wire.NoRoom {
		announce(stayed, roomID, s.Username()+" left the room")
	}
	return true
}

func (r *SessionRegistry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshot returns the live sessions in admission order.
func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sessions)
}

func (r *SessionRegistry) List() []SessionInfo {
	sessions := r.Snapshot()
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}
