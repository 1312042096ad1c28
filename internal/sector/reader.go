package sector

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

type sizer interface {
	Size() int64
}

type statter interface {
	Stat() (fs.FileInfo, error)
}

// Reader provides positioned and windowed reads over an io.ReaderAt.
// ReadAt and Window are safe for concurrent use when the source's ReadAt is;
// Read and Seek share a cursor and are not.
type Reader struct {
	src    io.ReaderAt
	sector int64
	size   int64
	pos    int64
}

// NewReader returns a Reader over src. The source size is taken from a
// Size method or, for files, from Stat; it is unknown otherwise.
func NewReader(src io.ReaderAt, sectorSize int64) (*Reader, error) {
	if sectorSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSectorSize, sectorSize)
	}
	r := &Reader{src: src, sector: sectorSize, size: -1}
	switch s := src.(type) {
	case sizer:
		r.size = s.Size()
	case statter:
		info, err := s.Stat()
		if err != nil {
			return nil, fmt.Errorf("sector: stat source: %w", err)
		}
		if info.Mode().IsRegular() {
			r.size = info.Size()
		}
	}
	return r, nil
}

// SectorSize returns the sector size in bytes.
func (r *Reader) SectorSize() int64 { return r.sector }

// Size returns the source size and whether it is known.
func (r *Reader) Size() (int64, bool) { return r.size, r.size >= 0 }

// Position returns the offset of the next Read.
func (r *Reader) Position() int64 { return r.pos }

// Aligned reports whether the position is on a sector boundary.
func (r *Reader) Aligned() bool { return r.pos%r.sector == 0 }

// Read implements io.Reader at the tracked position.
func (r *Reader) Read(p []byte) (int, error) {
	if r.size >= 0 && r.pos >= r.size {
		return 0, io.EOF
	}
	n, err := r.src.ReadAt(p, r.pos)
	r.pos += int64(n)
	if n > 0 && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	return r.src.ReadAt(p, off)
}

// Seek implements io.Seeker. Seeking relative to the end requires a known size.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		if r.size < 0 {
			return r.pos, fmt.Errorf("%w: size unknown", ErrOutOfRange)
		}
		base = r.size
	default:
		return r.pos, fmt.Errorf("sector: invalid whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return r.pos, fmt.Errorf("%w: negative position %d", ErrOutOfRange, pos)
	}
	r.pos = pos
	return pos, nil
}

// Window returns a reader limited to [off, off+n). When the source size is
// known, a window reaching past it fails with ErrOutOfRange.
func (r *Reader) Window(off, n int64) (*io.SectionReader, error) {
	if off < 0 || n < 0 || off > off+n {
		return nil, fmt.Errorf("%w: window [%d, +%d)", ErrOutOfRange, off, n)
	}
	if r.size >= 0 && off+n > r.size {
		return nil, fmt.Errorf("%w: window [%d, %d) exceeds size %d", ErrOutOfRange, off, off+n, r.size)
	}
	return io.NewSectionReader(r.src, off, n), nil
}

// Contains reports whether [off, off+n) lies inside the source. It is
// always true when the size is unknown and the range is well formed.
func (r *Reader) Contains(off, n int64) bool {
	if off < 0 || n < 0 || off > off+n {
		return false
	}
	return r.size < 0 || off+n <= r.size
}
