// Package wire implements the fixed-layout frame used between relay clients
// and the server, and the framing layer that assembles complete frames from a
// TCP byte stream.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Layout of one frame on the wire. All integers are little-endian and the
// record is packed (no padding between fields).
const (
	SenderSize  = 50
	ContentSize = 1024
	FrameSize   = 4 + SenderSize + ContentSize + 4 + 8

	// MaxUsername is the longest username that still leaves room for the
	// terminating NUL in the sender field.
	MaxUsername = SenderSize - 1
	// MaxText is the longest text payload that still leaves room for the
	// terminating NUL in the content field.
	MaxText = ContentSize - 1

	// NoRoom marks a frame or session that is not bound to any room.
	NoRoom = -1

	offType    = 0
	offSender  = offType + 4
	offContent = offSender + SenderSize
	offRoom    = offContent + ContentSize
	offSize    = offRoom + 4
)

type Type int32

const (
	TypeChat Type = iota + 1
	TypeFileStart
	TypeFileData
	TypeFileEnd
	TypeJoinRoom
	TypeLeaveRoom
	TypeListRooms
	TypeListUsers
	TypeHello
	TypeError
)

func (t Type) String() string {
	switch t {
	case TypeChat:
		return "chat"
	case TypeFileStart:
		return "file_start"
	case TypeFileData:
		return "file_data"
	case TypeFileEnd:
		return "file_end"
	case TypeJoinRoom:
		return "join_room"
	case TypeLeaveRoom:
		return "leave_room"
	case TypeListRooms:
		return "list_rooms"
	case TypeListUsers:
		return "list_users"
	case TypeHello:
		return "hello"
	case TypeError:
		return "error"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

// Binary reports whether content is an opaque payload bounded by Size rather
// than NUL-terminated text.
func (t Type) Binary() bool {
	return t == TypeFileData
}

// Frame is one decoded wire record. Content holds only the meaningful bytes:
// for binary frames the first Size bytes, for text frames everything up to the
// first NUL.
type Frame struct {
	Type    Type
	Sender  string
	Content []byte
	RoomID  int32
	Size    uint64
}

// NewText builds a text frame whose Size is the text length. Text longer than
// MaxText is truncated.
func NewText(t Type, sender string, roomID int, text string) *Frame {
	if len(text) > MaxText {
		text = text[:MaxText]
	}
	return &Frame{
		Type:    t,
		Sender:  sender,
		Content: []byte(text),
		RoomID:  int32(roomID),
		Size:    uint64(len(text)),
	}
}

// Text returns the content as a string.
func (f *Frame) Text() string {
	return string(f.Content)
}

// Clone returns a copy that shares no memory with f.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Content = append([]byte(nil), f.Content...)
	return &c
}

// MarshalBinary encodes f into a FrameSize record.
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FrameSize)
	if err := f.encode(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (f *Frame) encode(buf []byte) error {
	if len(f.Sender) > MaxUsername {
		return fmt.Errorf("sender is %d bytes, max %d: %w", len(f.Sender), MaxUsername, ErrFieldTooLong)
	}
	if len(f.Content) > ContentSize {
		return fmt.Errorf("content is %d bytes, max %d: %w", len(f.Content), ContentSize, ErrFieldTooLong)
	}
	clear(buf[:FrameSize])
	binary.LittleEndian.PutUint32(buf[offType:], uint32(f.Type))
	copy(buf[offSender:offContent], f.Sender)
	copy(buf[offContent:offRoom], f.Content)
	binary.LittleEndian.PutUint32(buf[offRoom:], uint32(f.RoomID))
	binary.LittleEndian.PutUint64(buf[offSize:], f.Size)
	return nil
}

// UnmarshalBinary decodes a FrameSize record into f.
func (f *Frame) UnmarshalBinary(buf []byte) error {
	if len(buf) < FrameSize {
		return fmt.Errorf("frame is %d bytes, want %d: %w", len(buf), FrameSize, ErrShortFrame)
	}
	f.Type = Type(int32(binary.LittleEndian.Uint32(buf[offType:])))
	f.Sender = string(cstring(buf[offSender:offContent]))
	f.RoomID = int32(binary.LittleEndian.Uint32(buf[offRoom:]))
	f.Size = binary.LittleEndian.Uint64(buf[offSize:])

	content := buf[offContent:offRoom]
	if f.Type.Binary() {
		n := f.Size
		if n > ContentSize {
			n = ContentSize
		}
		content = content[:n]
	} else {
		content = cstring(content)
	}
	f.Content = append([]byte(nil), content...)
	return nil
}

func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
