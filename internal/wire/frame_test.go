package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestFrameLayout(t *testing.T) {
	if FrameSize != 1090 {
		t.Fatalf("FrameSize = %d, want 1090", FrameSize)
	}

	f := &Frame{Type: TypeChat, Sender: "alice", Content: []byte("hi"), RoomID: 3, Size: 2}
	buf, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(buf) != FrameSize {
		t.Fatalf("encoded %d bytes", len(buf))
	}
	if buf[0] != 1 || buf[1] != 0 || buf[2] != 0 || buf[3] != 0 {
		t.Fatalf("type bytes = %v, want little-endian 1", buf[:4])
	}
	if got := string(buf[4:9]); got != "alice" || buf[9] != 0 {
		t.Fatalf("sender field = %q", buf[4:10])
	}
	if got := string(buf[54:56]); got != "hi" || buf[56] != 0 {
		t.Fatalf("content field = %q", buf[54:57])
	}
	if buf[1078] != 3 {
		t.Fatalf("room byte = %d, want 3", buf[1078])
	}
	if buf[1082] != 2 {
		t.Fatalf("size byte = %d, want 2", buf[1082])
	}
}

func TestNegativeRoomSurvivesEncoding(t *testing.T) {
	f := NewText(TypeLeaveRoom, "bob", NoRoom, "")
	buf, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Frame
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RoomID != NoRoom {
		t.Fatalf("room = %d, want %d", got.RoomID, NoRoom)
	}
}

func TestBinaryContentBoundedBySize(t *testing.T) {
	payload := bytes.Repeat([]byte{0, 0xff}, 300)
	f := &Frame{Type: TypeFileData, Content: payload, Size: uint64(len(payload))}
	buf, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// garbage beyond Size must be ignored
	buf[offContent+len(payload)] = 'x'

	var got Frame
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(got.Content, payload) {
		t.Fatalf("content mismatch: got %d bytes", len(got.Content))
	}
}

func TestFullChunkHasNoTerminator(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, ContentSize)
	f := &Frame{Type: TypeFileData, Content: payload, Size: ContentSize}
	var got Frame
	buf, _ := f.MarshalBinary()
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Content) != ContentSize {
		t.Fatalf("got %d bytes", len(got.Content))
	}
}

func TestOversizedFieldsRejected(t *testing.T) {
	f := &Frame{Type: TypeChat, Sender: strings.Repeat("u", SenderSize)}
	if _, err := f.MarshalBinary(); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("sender: err = %v", err)
	}
	f = &Frame{Type: TypeFileData, Content: make([]byte, ContentSize+1)}
	if _, err := f.MarshalBinary(); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("content: err = %v", err)
	}
}

func TestNewTextTruncates(t *testing.T) {
	f := NewText(TypeChat, "", 0, strings.Repeat("x", 2000))
	if len(f.Content) != MaxText || f.Size != MaxText {
		t.Fatalf("len = %d size = %d", len(f.Content), f.Size)
	}
}

func TestReaderAssemblesSplitFrames(t *testing.T) {
	var stream bytes.Buffer
	w := NewWriter(&stream)
	for _, text := range []string{"one", "two", "three"} {
		if err := w.WriteFrame(NewText(TypeChat, "carol", 0, text)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReader(iotest.OneByteReader(&stream))
	for _, want := range []string{"one", "two", "three"} {
		f, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("read %q: %v", want, err)
		}
		if f.Text() != want || f.Sender != "carol" {
			t.Fatalf("got %q from %q", f.Text(), f.Sender)
		}
	}
	if _, err := r.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReaderCoalescedFramesAndRawTail(t *testing.T) {
	var stream bytes.Buffer
	w := NewWriter(&stream)
	start := &Frame{Type: TypeFileStart, Content: []byte("a.bin"), Size: 5}
	if err := w.WriteFrame(start); err != nil {
		t.Fatal(err)
	}
	_ = w.Flush()
	stream.WriteString("hello")

	r := NewReader(&stream)
	f, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != TypeFileStart || f.Size != 5 {
		t.Fatalf("unexpected frame %+v", f)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if string(raw) != "hello" {
		t.Fatalf("raw tail = %q", raw)
	}
}

func TestReaderTruncatedFrame(t *testing.T) {
	buf, _ := NewText(TypeChat, "dave", 0, "hi").MarshalBinary()
	r := NewReader(bytes.NewReader(buf[:FrameSize/2]))
	if _, err := r.ReadFrame(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestTypeString(t *testing.T) {
	if TypeListUsers.String() != "list_users" {
		t.Fatalf("got %q", TypeListUsers.String())
	}
	if Type(42).String() != "type(42)" {
		t.Fatalf("got %q", Type(42).String())
	}
}
