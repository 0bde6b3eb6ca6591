package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	ErrFieldTooLong = errors.New("wire: field too long")
	ErrShortFrame   = errors.New("wire: short frame")
)

// Reader assembles frames from a byte stream. A frame split across several
// TCP segments, or several frames arriving in one segment, both decode
// correctly because a frame is only returned once FrameSize bytes are buffered.
//
// Reader also implements io.Reader so raw payload bytes that follow a frame
// (file relay) are taken from the same buffer.
type Reader struct {
	br  *bufio.Reader
	buf [FrameSize]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 2*FrameSize)}
}

// ReadFrame blocks until one complete frame is available. It returns io.EOF
// only when the stream ends cleanly on a frame boundary.
func (r *Reader) ReadFrame() (*Frame, error) {
	if _, err := io.ReadFull(r.br, r.buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		return nil, err
	}
	f := new(Frame)
	if err := f.UnmarshalBinary(r.buf[:]); err != nil {
		return nil, err
	}
	return f, nil
}

// Read reads raw bytes, returning whatever is buffered or whatever a single
// read of the underlying stream yields, never more than len(p).
func (r *Reader) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

// Writer encodes frames onto a buffered stream. It is not safe for concurrent
// use; the session writer goroutine is its only user.
type Writer struct {
	bw  *bufio.Writer
	buf [FrameSize]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 4*FrameSize)}
}

// WriteFrame buffers f. Call Flush to push buffered frames to the stream.
func (w *Writer) WriteFrame(f *Frame) error {
	if err := f.encode(w.buf[:]); err != nil {
		return err
	}
	_, err := w.bw.Write(w.buf[:])
	return err
}

func (w *Writer) Flush() error {
	return w.bw.Flush()
}
