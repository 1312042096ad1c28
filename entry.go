package zpack

import (
	"bytes"
	"fmt"
	"io"

	"github.com/meigma/zpack/internal/codec"
)

// Entry is one entry of an open archive. Reads are not cached; each call
// decompresses the payload again from its recorded offset.
type Entry struct {
	r     *Reader
	index int
	desc  Descriptor
}

// Index returns the entry's position in the table.
func (e *Entry) Index() int { return e.index }

// Name returns the entry name.
func (e *Entry) Name() string { return e.desc.Name }

// Tag returns the entry's opaque tag.
func (e *Entry) Tag() int16 { return e.desc.Tag }

// Size returns the uncompressed size.
func (e *Entry) Size() int64 { return int64(e.desc.UncompressedSize) }

// IsDummy reports whether the entry carries no payload.
func (e *Entry) IsDummy() bool { return e.desc.IsDummy() }

// Descriptor returns the entry's table record.
func (e *Entry) Descriptor() Descriptor { return e.desc }

// ReadAll returns the decompressed payload.
//
// The payload must inflate to exactly the recorded uncompressed size;
// otherwise ReadAll returns ErrCodec. Entries larger than the reader's
// WithMaxEntrySize limit fail with ErrSizeOverflow.
func (e *Entry) ReadAll() ([]byte, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if limit := e.r.maxEntrySize; limit > 0 && uint64(e.desc.UncompressedSize) > limit {
		return nil, fmt.Errorf("entry %q: %w: %d bytes exceeds limit %d",
			e.desc.Name, ErrSizeOverflow, e.desc.UncompressedSize, limit)
	}
	if e.desc.CompressedSize == 0 {
		return []byte{}, nil
	}
	out, err := codec.DecompressExact(e.r.data, int64(e.desc.Offset), int64(e.desc.CompressedSize),
		int64(e.desc.UncompressedSize))
	if err != nil {
		return nil, e.wrap(err)
	}
	e.r.log().Debug("entry read", "name", e.desc.Name, "offset", e.desc.Offset, "size", len(out))
	return out, nil
}

// WriteTo streams the decompressed payload into w with bounded memory.
// It implements io.WriterTo.
func (e *Entry) WriteTo(w io.Writer) (int64, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	if e.desc.CompressedSize == 0 {
		return 0, nil
	}
	n, err := codec.DecompressExactTo(w, e.r.data, int64(e.desc.Offset), int64(e.desc.CompressedSize),
		int64(e.desc.UncompressedSize))
	if err != nil {
		return n, e.wrap(err)
	}
	return n, nil
}

// Open returns a reader over the decompressed payload. The caller must
// close it. Reading fails with ErrCodec if the payload does not inflate to
// exactly the recorded size.
func (e *Entry) Open() (io.ReadCloser, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.desc.CompressedSize == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	rc, err := codec.NewExactReader(e.r.data, int64(e.desc.Offset), int64(e.desc.CompressedSize),
		int64(e.desc.UncompressedSize))
	if err != nil {
		return nil, e.wrap(err)
	}
	return &entryReader{rc: rc, e: e}, nil
}

// check validates the reader state and the entry's window.
func (e *Entry) check() error {
	if e.r.closed.Load() {
		return ErrClosed
	}
	if e.desc.CompressedSize == 0 {
		if e.desc.UncompressedSize > 0 {
			return fmt.Errorf("entry %q: %w: no payload for %d bytes", e.desc.Name, ErrCodec, e.desc.UncompressedSize)
		}
		return nil
	}
	if !e.r.data.Contains(int64(e.desc.Offset), int64(e.desc.CompressedSize)) {
		size, _ := e.r.data.Size()
		return fmt.Errorf("entry %q: %w: window [%d, %d) exceeds data size %d",
			e.desc.Name, ErrFormat, e.desc.Offset, e.desc.End(), size)
	}
	return nil
}

func (e *Entry) wrap(err error) error {
	return fmt.Errorf("entry %q: %w", e.desc.Name, err)
}

// entryReader refuses reads once the archive is closed.
type entryReader struct {
	rc io.ReadCloser
	e  *Entry
}

func (er *entryReader) Read(p []byte) (int, error) {
	if er.e.r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := er.rc.Read(p)
	if err != nil && err != io.EOF { //nolint:errorlint // io.EOF is returned unwrapped by contract
		return n, er.e.wrap(err)
	}
	return n, err
}

func (er *entryReader) Close() error {
	return er.rc.Close()
}

var _ io.WriterTo = (*Entry)(nil)
