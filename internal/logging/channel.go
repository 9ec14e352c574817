package logging

import (
	"io"
	"strings"
	"sync"
)

// OutputChannel is the append-only text log that build, dry-run and
// pre-configure operations write into. It is the authoritative failure
// channel for those operations: process output and completion notices land
// here rather than in error returns.
type OutputChannel interface {
	// Message appends text followed by a line separator.
	Message(text string)

	// MessageNoCR appends text without a trailing separator. Used for
	// streamed process fragments that already carry their own line endings.
	MessageNoCR(text string)
}

// WriterChannel is an OutputChannel backed by an io.Writer.
type WriterChannel struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterChannel creates an output channel that appends to w.
func NewWriterChannel(w io.Writer) *WriterChannel {
	return &WriterChannel{w: w}
}

// Message appends text and a newline.
func (c *WriterChannel) Message(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, text)
	_, _ = io.WriteString(c.w, "\n")
}

// MessageNoCR appends text as-is.
func (c *WriterChannel) MessageNoCR(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, text)
}

// BufferChannel is an OutputChannel that accumulates text in memory.
type BufferChannel struct {
	mu  sync.Mutex
	buf strings.Builder
}

// NewBufferChannel creates an in-memory output channel.
func NewBufferChannel() *BufferChannel {
	return &BufferChannel{}
}

// Message appends text and a newline.
func (c *BufferChannel) Message(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(text)
	c.buf.WriteByte('\n')
}

// MessageNoCR appends text as-is.
func (c *BufferChannel) MessageNoCR(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(text)
}

// Contents returns everything written so far.
func (c *BufferChannel) Contents() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Reset clears the accumulated text.
func (c *BufferChannel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}

// nopChannel discards everything.
type nopChannel struct{}

func (nopChannel) Message(string)     {}
func (nopChannel) MessageNoCR(string) {}

// Nop returns an OutputChannel that discards all output.
func Nop() OutputChannel {
	return nopChannel{}
}
