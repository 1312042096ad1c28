// Package testutil provides in-memory stream doubles shared by tests.
package testutil

import (
	"errors"
	"io"
	"os"
	"sync"
)

// MockByteSource implements io.ReaderAt over a byte slice and records the
// furthest byte any read touched.
type MockByteSource struct {
	mu     sync.Mutex
	data   []byte
	maxEnd int64
	reads  int
	closed bool
	closes int
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// NewUnsizedByteSource returns a byte source that does not report its size.
func NewUnsizedByteSource(data []byte) io.ReaderAt {
	return unsized{NewMockByteSource(data)}
}

type unsized struct{ m *MockByteSource }

func (u unsized) ReadAt(p []byte, off int64) (int, error) { return u.m.ReadAt(p, off) }

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, errors.New("testutil: negative offset")
	}
	m.reads++
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if end := off + int64(n); end > m.maxEnd {
		m.maxEnd = end
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// MaxEnd returns the end offset of the furthest read so far.
func (m *MockByteSource) MaxEnd() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxEnd
}

// Reads returns the number of ReadAt calls so far.
func (m *MockByteSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Close makes later reads fail with os.ErrClosed.
func (m *MockByteSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closes++
	return nil
}

// Closes returns how many times Close was called.
func (m *MockByteSource) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// SeekBuffer is an in-memory io.WriteSeeker. Writing past the end grows
// the buffer; seeking past the end and writing leaves a zero gap.
type SeekBuffer struct {
	data   []byte
	pos    int64
	closes int
}

// NewSeekBuffer returns an empty SeekBuffer.
func NewSeekBuffer() *SeekBuffer {
	return &SeekBuffer{}
}

// Write implements io.Writer.
func (b *SeekBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (b *SeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = b.pos
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return 0, errors.New("testutil: invalid whence")
	}
	if base+offset < 0 {
		return 0, errors.New("testutil: negative position")
	}
	b.pos = base + offset
	return b.pos, nil
}

// Close records the call and always succeeds.
func (b *SeekBuffer) Close() error {
	b.closes++
	return nil
}

// Closes returns how many times Close was called.
func (b *SeekBuffer) Closes() int { return b.closes }

// Bytes returns the written content.
func (b *SeekBuffer) Bytes() []byte { return b.data }

// Len returns the length of the written content.
func (b *SeekBuffer) Len() int { return len(b.data) }

// ClosingBuffer is a non-seekable writer that records Close calls.
type ClosingBuffer struct {
	data   []byte
	closes int
}

// Write implements io.Writer.
func (c *ClosingBuffer) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

// Close records the call and always succeeds.
func (c *ClosingBuffer) Close() error {
	c.closes++
	return nil
}

// Closes returns how many times Close was called.
func (c *ClosingBuffer) Closes() int { return c.closes }

// Bytes returns the written content.
func (c *ClosingBuffer) Bytes() []byte { return c.data }

// FailWriter fails every write after Limit bytes with Err.
type FailWriter struct {
	Limit int
	Err   error
	n     int
}

// Write implements io.Writer.
func (f *FailWriter) Write(p []byte) (int, error) {
	if f.n+len(p) > f.Limit {
		m := max(f.Limit-f.n, 0)
		f.n += m
		return m, f.Err
	}
	f.n += len(p)
	return len(p), nil
}
