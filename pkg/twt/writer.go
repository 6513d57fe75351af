package twt

import "errors"

// DefaultReplyCapacity is the reply buffer size used when the caller does
// not provide one.
const DefaultReplyCapacity = 512

// ErrResourceExhausted is returned when rendered output does not fit the
// reply buffer.
var ErrResourceExhausted = errors.New("reply buffer exhausted")

// ReplyWriter accumulates rendered report lines up to a fixed capacity.
// Writes are all-or-nothing: a write that does not fit leaves the
// buffer as it was.
type ReplyWriter struct {
	buf      []byte
	capacity int
}

// NewReplyWriter returns a writer holding at most capacity bytes. A
// non-positive capacity selects DefaultReplyCapacity.
func NewReplyWriter(capacity int) *ReplyWriter {
	if capacity <= 0 {
		capacity = DefaultReplyCapacity
	}
	return &ReplyWriter{buf: make([]byte, 0, capacity), capacity: capacity}
}

// Write appends p verbatim.
func (w *ReplyWriter) Write(p []byte) (int, error) {
	if len(w.buf)+len(p) > w.capacity {
		return 0, ErrResourceExhausted
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// AppendLine appends line, separated from earlier content by a newline.
func (w *ReplyWriter) AppendLine(line string) error {
	need := len(line)
	if len(w.buf) > 0 {
		need++
	}
	if len(w.buf)+need > w.capacity {
		return ErrResourceExhausted
	}
	if len(w.buf) > 0 {
		w.buf = append(w.buf, '\n')
	}
	w.buf = append(w.buf, line...)
	return nil
}

// Bytes returns the written content. The slice aliases the writer.
func (w *ReplyWriter) Bytes() []byte { return w.buf }

// String returns the written content.
func (w *ReplyWriter) String() string { return string(w.buf) }

// Len returns the number of bytes written.
func (w *ReplyWriter) Len() int { return len(w.buf) }

// Cap returns the capacity.
func (w *ReplyWriter) Cap() int { return w.capacity }

// Reset discards the content and keeps the capacity.
func (w *ReplyWriter) Reset() { w.buf = w.buf[:0] }
