package sector

import (
	"fmt"
	"io"

	"github.com/meigma/zpack/internal/sizing"
)

var zeros [4096]byte

// Writer wraps an io.Writer and tracks the absolute stream position.
type Writer struct {
	w      io.Writer
	seeker io.Seeker
	sector int64
	pos    int64
}

// NewWriter returns a Writer over w. When w is an io.Seeker the initial
// position is its current offset; otherwise positions start at 0.
func NewWriter(w io.Writer, sectorSize int64) (*Writer, error) {
	if sectorSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSectorSize, sectorSize)
	}
	sw := &Writer{w: w, sector: sectorSize}
	if s, ok := w.(io.Seeker); ok {
		pos, err := s.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("sector: query position: %w", err)
		}
		sw.seeker = s
		sw.pos = pos
	}
	return sw, nil
}

// SectorSize returns the sector size in bytes.
func (w *Writer) SectorSize() int64 { return w.sector }

// Position returns the absolute offset of the next byte written.
func (w *Writer) Position() int64 { return w.pos }

// Aligned reports whether the position is on a sector boundary.
func (w *Writer) Aligned() bool { return w.pos%w.sector == 0 }

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

// Seek repositions the base writer. It fails with ErrNotSeekable when the
// base writer cannot seek.
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	if w.seeker == nil {
		return w.pos, ErrNotSeekable
	}
	pos, err := w.seeker.Seek(offset, whence)
	if err != nil {
		return w.pos, err
	}
	w.pos = pos
	return pos, nil
}

// Pad writes zero bytes until the position is a multiple of the sector
// size and returns how many were written. It is a no-op when aligned.
func (w *Writer) Pad() (int64, error) {
	n := PadLen(w.pos, w.sector)
	var written int64
	for written < n {
		chunk := min(n-written, int64(len(zeros)))
		m, err := w.Write(zeros[:chunk])
		written += int64(m)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// PadLen returns the number of bytes needed to move pos to the next
// multiple of sectorSize.
func PadLen(pos, sectorSize int64) int64 {
	if r := pos % sectorSize; r != 0 {
		return sectorSize - r
	}
	return 0
}

// AlignUp rounds n up to a multiple of sectorSize. It reports false if the
// result would overflow int64.
func AlignUp(n, sectorSize int64) (int64, bool) {
	return sizing.AddInt64(n, PadLen(n, sectorSize))
}
