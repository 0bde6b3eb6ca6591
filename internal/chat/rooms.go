package chat

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/andy6609/roomrelay/internal/wire"
)

// DefaultRoom is joined by every session right after its handshake.
const DefaultRoom = 0

// MaxRoomName is the longest accepted room name in bytes.
const MaxRoomName = 49

// Room is a named group of sessions. Members are kept in join order.
type Room struct {
	ID      int
	Name    string
	members []*Session
}

func (r *Room) index(s *Session) int {
	return slices.Index(r.members, s)
}

// remove drops s while keeping the order of the remaining members.
func (r *Room) remove(s *Session) bool {
	i := r.index(s)
	if i < 0 {
		return false
	}
	r.members = slices.Delete(r.members, i, i+1)
	return true
}

func (r *Room) snapshot() []*Session {
	return slices.Clone(r.members)
}

func (r *Room) info() RoomInfo {
	return RoomInfo{ID: r.ID, Name: r.Name, Members: len(r.members)}
}

// RoomRegistry owns every room and every session's room membership. Its lock
// is never held while frames are delivered: announcements go out from a
// member snapshot after unlocking.
//
// Lock order: when both are needed, SessionRegistry.mu is taken before
// RoomRegistry.mu.
type RoomRegistry struct {
	mu         sync.Mutex
	rooms      []*Room
	maxRooms   int
	maxMembers int
	logger     zerolog.Logger
}

func NewRoomRegistry(maxRooms, maxMembers int, logger zerolog.Logger) *RoomRegistry {
	return &RoomRegistry{
		maxRooms:   maxRooms,
		maxMembers: maxMembers,
		logger:     logger,
	}
}

// Create appends a new empty room and returns its id.
func (r *RoomRegistry) Create(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxRoomName {
		return wire.NoRoom, ErrRoomNameInvalid
	}

	r.mu.Lock()
	if len(r.rooms) >= r.maxRooms {
		r.mu.Unlock()
		return wire.NoRoom, ErrRoomsFull
	}
	room := &Room{ID: len(r.rooms), Name: name}
	r.rooms = append(r.rooms, room)
	count := len(r.rooms)
	r.mu.Unlock()

	RoomsTotal.Set(float64(count))
	r.logger.Info().Int("room", room.ID).Str("name", name).Msg("room created")
	return room.ID, nil
}

// Join moves s into roomID. The target is validated before s leaves its
// current room, so a failed join changes nothing.
//
// Joining the room s is already in returns ErrAlreadyJoined; no left/joined
// announcements are sent. A session removed from the SessionRegistry can no
// longer join and gets ErrSessionClosed.
func (r *RoomRegistry) Join(roomID int, s *Session) error {
	r.mu.Lock()
	if s.evicted {
		r.mu.Unlock()
		return ErrSessionClosed
	}
	target := r.room(roomID)
	if target == nil {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	current := s.RoomID()
	if current == roomID {
		r.mu.Unlock()
		return ErrAlreadyJoined
	}
	if len(target.members) >= r.maxMembers {
		r.mu.Unlock()
		return ErrRoomFull
	}

	var stayed []*Session
	prev := r.room(current)
	if prev != nil {
		prev.remove(s)
		stayed = prev.snapshot()
	}
	target.members = append(target.members, s)
	s.roomID.Store(int32(roomID))
	others := slices.DeleteFunc(target.snapshot(), func(m *Session) bool { return m == s })
	r.mu.Unlock()

	name := s.Username()
	if prev != nil {
		announce(stayed, current, name+" left the room")
	}
	announce(others, roomID, name+" joined the room")

	r.logger.Debug().Str("username", name).Int("room", roomID).Int("from", current).Msg("joined room")
	return nil
}

// Leave removes s from its room and tells the remaining members. It is a
// no-op when s is not in a room.
func (r *RoomRegistry) Leave(s *Session) {
	roomID, stayed := r.detach(s)
	if roomID == wire.NoRoom {
		return
	}
	announce(stayed, roomID, s.Username()+" left the room")
	r.logger.Debug().Str("username", s.Username()).Int("room", roomID).Msg("left room")
}

// detach removes s from its room without announcing, returning the room it
// was in and the members that remain.
func (r *RoomRegistry) detach(s *Session) (int, []*Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detachLocked(s)
}

// evict detaches s and bars it from joining again.
func (r *RoomRegistry) evict(s *Session) (int, []*Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.evicted = true
	return r.detachLocked(s)
}

func (r *RoomRegistry) detachLocked(s *Session) (int, []*Session) {
	current := s.RoomID()
	room := r.room(current)
	if room == nil {
		return wire.NoRoom, nil
	}
	room.remove(s)
	s.roomID.Store(wire.NoRoom)
	return current, room.snapshot()
}

// Members returns a copy of the member list of roomID in join order.
func (r *RoomRegistry) Members(roomID int) ([]*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.room(roomID)
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room.snapshot(), nil
}

func (r *RoomRegistry) List() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.info())
	}
	return out
}

func (r *RoomRegistry) Lookup(roomID int) (RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.room(roomID)
	if room == nil {
		return RoomInfo{}, false
	}
	return room.info(), true
}

// Users returns member usernames of roomID in join order, or nothing when the
// room does not exist.
func (r *RoomRegistry) Users(roomID int) []string {
	members, err := r.Members(roomID)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Username())
	}
	return names
}

func (r *RoomRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// room must be called with r.mu held.
func (r *RoomRegistry) room(id int) *Room {
	if id < 0 || id >= len(r.rooms) {
		return nil
	}
	return r.rooms[id]
}

// announce sends a system chat line (empty sender) to members.
func announce(members []*Session, roomID int, text string) {
	if len(members) == 0 {
		return
	}
	fanOut(members, wire.NewText(wire.TypeChat, "", roomID, text), nil)
}
