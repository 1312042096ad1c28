package zpack

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/meigma/zpack/internal/codec"
	"github.com/meigma/zpack/internal/sector"
	"github.com/meigma/zpack/internal/sizing"
	"github.com/meigma/zpack/internal/table"
)

var errAborted = errors.New("zpack: write aborted")

type writerState uint8

const (
	stateOpen writerState = iota
	stateWriting
	stateFinished
	stateClosed
)

// Writer builds a ZPACK archive.
//
// Entries are compressed straight into the data stream, each padded to a
// sector boundary. The header table is held in memory and written in full
// by Finish. A Writer is not safe for concurrent use.
type Writer struct {
	header    io.Writer
	rawData   io.Writer
	data      *sector.Writer
	descs     []Descriptor
	level     int
	leaveOpen bool
	logger    *slog.Logger

	state     writerState
	err       error // sticky data stream failure
	finishErr error
	onClose   func(finishErr error) error
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// NewWriter returns a Writer that appends payloads to data and writes the
// header table to header on Finish.
//
// When data is an io.Seeker, entry offsets start at its current position.
// Unless CreateWithLeaveOpen is set, Close closes header and data when they
// implement io.Closer.
func NewWriter(header, data io.Writer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		header:  header,
		rawData: data,
		level:   DefaultLevel,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.level < MinLevel || w.level > MaxLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, w.level)
	}
	sw, err := sector.NewWriter(data, SectorSize)
	if err != nil {
		return nil, err
	}
	if sw.Position() > math.MaxUint32 {
		return nil, fmt.Errorf("%w: data stream starts at %d", ErrSizeOverflow, sw.Position())
	}
	w.data = sw
	w.descs = make([]Descriptor, 0, 64)
	return w, nil
}

// Count returns the number of entries written so far.
func (w *Writer) Count() int { return len(w.descs) }

// Position returns the data stream offset the next entry will start at.
func (w *Writer) Position() int64 { return w.data.Position() }

// Descriptors returns a copy of the entries written so far.
func (w *Writer) Descriptors() []Descriptor {
	out := make([]Descriptor, len(w.descs))
	copy(out, w.descs)
	return out
}

// WriteEntry compresses src into the data stream as a new entry.
func (w *Writer) WriteEntry(name string, tag int16, src []byte) (Descriptor, error) {
	if uint64(len(src)) > math.MaxUint32 {
		return Descriptor{}, fmt.Errorf("entry %q: %w: %d bytes", name, ErrSizeOverflow, len(src))
	}
	return w.writeEntry(name, tag, func(dst io.Writer) (int64, int64, error) {
		n, err := codec.Compress(dst, src, codec.WithLevel(w.level))
		return n, int64(len(src)), err
	})
}

// WriteEntryFrom compresses everything read from src into the data stream
// as a new entry, using a fixed copy buffer.
func (w *Writer) WriteEntryFrom(name string, tag int16, src io.Reader) (Descriptor, error) {
	return w.writeEntry(name, tag, func(dst io.Writer) (int64, int64, error) {
		return codec.CompressFrom(dst, src, codec.WithLevel(w.level))
	})
}

// WriteFile adds the file at path as a new entry.
func (w *Writer) WriteFile(path, name string, tag int16) (Descriptor, error) {
	if err := w.checkWritable(); err != nil {
		return Descriptor{}, err
	}
	f, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return Descriptor{}, err
	}
	defer f.Close()
	return w.WriteEntryFrom(name, tag, f)
}

// WriteDummy records a present entry without a payload. It takes the
// current data position as its offset and writes nothing, so the next
// entry starts at the same offset.
func (w *Writer) WriteDummy(name string, tag int16) (Descriptor, error) {
	if err := w.precheck(name); err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		Name:     name,
		Tag:      tag,
		Offset:   uint32(w.data.Position()), //nolint:gosec // bounded by precheck
		Presence: PresenceNormal,
	}
	w.descs = append(w.descs, d)
	w.state = stateWriting
	w.log().Debug("dummy entry written", "name", name, "offset", d.Offset)
	return d, nil
}

// SetPresence replaces the presence value of the entry at index i, for
// tables that carry values other than PresenceNormal. Zero would end the
// table early and is rejected.
func (w *Writer) SetPresence(i int, presence int32) error {
	switch w.state {
	case stateClosed:
		return ErrClosed
	case stateFinished:
		return ErrFinished
	}
	if i < 0 || i >= len(w.descs) {
		return fmt.Errorf("%w: index %d of %d", ErrNotFound, i, len(w.descs))
	}
	if presence == table.PresenceTerminator {
		return fmt.Errorf("%w: entry %q: presence 0 marks the end of the table", ErrFormat, w.descs[i].Name)
	}
	w.descs[i].Presence = presence
	return nil
}

type compressFunc func(dst io.Writer) (written, read int64, err error)

func (w *Writer) writeEntry(name string, tag int16, compress compressFunc) (Descriptor, error) {
	if err := w.precheck(name); err != nil {
		return Descriptor{}, err
	}
	offset := w.data.Position()

	written, read, err := compress(w.data)
	if err != nil {
		w.err = err
		return Descriptor{}, fmt.Errorf("entry %q: %w", name, err)
	}
	if _, err := w.data.Pad(); err != nil {
		w.err = err
		return Descriptor{}, fmt.Errorf("entry %q: pad: %w", name, err)
	}
	span := w.data.Position() - offset

	d := Descriptor{Name: name, Tag: tag, Presence: PresenceNormal}
	overflow := fmt.Errorf("%w: entry %q", ErrSizeOverflow, name)
	for _, f := range []struct {
		dst *uint32
		v   int64
	}{
		{&d.Offset, offset},
		{&d.Span, span},
		{&d.CompressedSize, written},
		{&d.UncompressedSize, read},
	} {
		if *f.dst, err = sizing.ToUint32(f.v, overflow); err != nil {
			w.err = err
			return Descriptor{}, fmt.Errorf("%w: %d bytes in, %d bytes out", err, read, written)
		}
	}
	w.descs = append(w.descs, d)
	w.state = stateWriting
	w.log().Debug("entry written",
		"name", name,
		"offset", d.Offset,
		"span", d.Span,
		"compressed_size", d.CompressedSize,
		"uncompressed_size", d.UncompressedSize,
	)
	return d, nil
}

// precheck validates that another entry named name can be added.
func (w *Writer) precheck(name string) error {
	if err := w.checkWritable(); err != nil {
		return err
	}
	if err := table.ValidateName(name); err != nil {
		return err
	}
	if len(w.descs) >= Capacity {
		return fmt.Errorf("%w: entry %q would be number %d", ErrCapacityExceeded, name, len(w.descs)+1)
	}
	if _, err := sizing.ToUint32(w.data.Position(), ErrSizeOverflow); err != nil {
		return fmt.Errorf("%w: data offset %d", err, w.data.Position())
	}
	return nil
}

func (w *Writer) checkWritable() error {
	switch w.state {
	case stateClosed:
		return ErrClosed
	case stateFinished:
		return ErrFinished
	}
	if w.err != nil {
		return fmt.Errorf("data stream failed: %w", w.err)
	}
	return nil
}

// Finish writes the header table: every entry in insertion order followed
// by zero slots up to Capacity. The header is always HeaderSize bytes.
// Later calls return the result of the first call without writing again.
//
// If an earlier payload write failed, the table still lists the entries
// written before the failure, and Finish returns that error.
func (w *Writer) Finish() error {
	if w.state == stateFinished || w.state == stateClosed {
		return w.finishErr
	}
	w.state = stateFinished

	n, err := table.Write(w.header, w.descs)
	if err != nil {
		w.finishErr = fmt.Errorf("write header: %w", err)
		return w.finishErr
	}
	if w.err != nil {
		w.finishErr = fmt.Errorf("data stream failed: %w", w.err)
		w.log().Warn("archive finished after data stream failure", "entries", len(w.descs), "error", w.err)
		return w.finishErr
	}
	w.log().Info("archive finished", "entries", len(w.descs), "header_size", n, "data_size", w.data.Position())
	return nil
}

// Close finishes the archive if needed and closes the streams it owns.
// Like Finish, it reports an earlier payload write failure. Calling Close
// more than once is a no-op.
func (w *Writer) Close() error {
	if w.state == stateClosed {
		return nil
	}
	finishErr := w.Finish()
	w.state = stateClosed
	return errors.Join(finishErr, w.release(finishErr))
}

// release closes owned streams and runs the close hook. failed is non-nil
// when the archive must not be committed.
func (w *Writer) release(failed error) error {
	var errs []error
	if !w.leaveOpen {
		for _, s := range []io.Writer{w.header, w.rawData} {
			if c, ok := s.(io.Closer); ok {
				errs = append(errs, c.Close())
			}
		}
	}
	if w.onClose != nil {
		errs = append(errs, w.onClose(failed))
	}
	return errors.Join(errs...)
}

// Abort closes the Writer without writing the header table. Owned streams
// are closed as by Close; a Writer from CreateFile removes its temporary
// files and leaves the target paths untouched.
func (w *Writer) Abort() error {
	if w.state == stateClosed {
		return nil
	}
	if w.state != stateFinished {
		w.finishErr = errAborted
	}
	w.state = stateClosed
	w.log().Info("archive aborted", "entries", len(w.descs))
	return w.release(errAborted)
}
