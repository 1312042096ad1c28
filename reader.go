package zpack

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/meigma/zpack/internal/sector"
	"github.com/meigma/zpack/internal/table"
)

// Reader provides random access to the entries of a ZPACK archive.
//
// The header table is decoded once by NewReader; entry payloads are
// decompressed on demand. Entry reads share no cursor, so a Reader may be
// used from several goroutines when its data source's ReadAt is safe for
// concurrent use (as with *os.File and *bytes.Reader).
type Reader struct {
	descs        []Descriptor
	entries      []Entry
	data         *sector.Reader
	owned        []io.Closer
	leaveOpen    bool
	maxEntrySize uint64
	logger       *slog.Logger
	closed       atomic.Bool
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// NewReader decodes the header table from header and returns a Reader whose
// entries are read from data.
//
// Slots are read until the first terminator; the rest of the header is not
// consumed. Unless WithLeaveOpen is set, Close closes header and data when
// they implement io.Closer. On error nothing is closed.
func NewReader(header io.Reader, data io.ReaderAt, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{maxEntrySize: DefaultMaxEntrySize}
	for _, opt := range opts {
		opt(r)
	}

	descs, err := table.Decode(header)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	src, err := sector.NewReader(data, SectorSize)
	if err != nil {
		return nil, err
	}

	r.descs = descs
	r.data = src
	r.entries = make([]Entry, len(descs))
	for i := range descs {
		r.entries[i] = Entry{r: r, index: i, desc: descs[i]}
	}
	for _, s := range []any{header, data} {
		if c, ok := s.(io.Closer); ok {
			r.owned = append(r.owned, c)
		}
	}

	size, known := src.Size()
	r.log().Info("archive opened", "entries", len(descs), "data_size", size, "data_size_known", known)
	return r, nil
}

// Close releases the header and data streams unless the Reader was opened
// with WithLeaveOpen. Calling Close more than once is a no-op.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if r.leaveOpen {
		return nil
	}
	var errs []error
	for _, c := range r.owned {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.owned = nil
	return errors.Join(errs...)
}

// Len returns the number of entries before the terminator, or 0 once the
// Reader is closed.
func (r *Reader) Len() int {
	if r.closed.Load() {
		return 0
	}
	return len(r.entries)
}

// Entries returns an iterator over the entries in table order.
// It yields nothing once the Reader is closed.
func (r *Reader) Entries() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for i := range r.entries {
			if r.closed.Load() {
				return
			}
			if !yield(&r.entries[i]) {
				return
			}
		}
	}
}

// Entry returns the entry at index i.
func (r *Reader) Entry(i int) (*Entry, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if i < 0 || i >= len(r.entries) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNotFound, i, len(r.entries))
	}
	return &r.entries[i], nil
}

// Lookup returns the first entry named name. Names are compared exactly.
func (r *Reader) Lookup(name string) (*Entry, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	for i := range r.entries {
		if r.entries[i].desc.Name == name {
			return &r.entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Descriptors returns a copy of the decoded table, or nil once the Reader
// is closed.
func (r *Reader) Descriptors() []Descriptor {
	if r.closed.Load() {
		return nil
	}
	out := make([]Descriptor, len(r.descs))
	copy(out, r.descs)
	return out
}

// DataSize returns the size of the data blob and whether it is known.
// It reports false once the Reader is closed.
func (r *Reader) DataSize() (int64, bool) {
	if r.closed.Load() {
		return 0, false
	}
	return r.data.Size()
}
