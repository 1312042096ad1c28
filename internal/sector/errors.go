package sector

import "errors"

var (
	// ErrNotSeekable is returned by Writer.Seek when the base writer is not an io.Seeker.
	ErrNotSeekable = errors.New("sector: stream is not seekable")

	// ErrOutOfRange indicates a window or seek target outside the source.
	ErrOutOfRange = errors.New("sector: out of range")

	// ErrSectorSize indicates a non-positive sector size.
	ErrSectorSize = errors.New("sector: invalid sector size")
)
