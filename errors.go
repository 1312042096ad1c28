package zpack

import (
	"errors"

	"github.com/meigma/zpack/internal/codec"
	"github.com/meigma/zpack/internal/table"
)

// Errors re-exported from the table and codec layers.
var (
	// ErrFormat is returned when the header table is malformed or an entry
	// window lies outside the data blob.
	ErrFormat = table.ErrFormat

	// ErrCapacityExceeded is returned when an archive would hold more than
	// Capacity entries.
	ErrCapacityExceeded = table.ErrCapacityExceeded

	// ErrNameTooLong is returned for entry names longer than NameSize bytes.
	ErrNameTooLong = table.ErrNameTooLong

	// ErrInvalidName is returned for entry names containing a NUL byte.
	ErrInvalidName = table.ErrInvalidName

	// ErrCodec is returned when a payload fails to compress or decompress,
	// including when it inflates to a size other than the recorded one.
	ErrCodec = codec.ErrCodec

	// ErrInvalidLevel is returned for compression levels outside MinLevel..MaxLevel.
	ErrInvalidLevel = codec.ErrInvalidLevel
)

var (
	// ErrClosed is returned by operations on a closed Reader or Writer.
	ErrClosed = errors.New("zpack: archive closed")

	// ErrFinished is returned by writes after Finish.
	ErrFinished = errors.New("zpack: archive finished")

	// ErrSizeOverflow is returned when an offset or size does not fit the
	// table's 32-bit fields, or exceeds a configured limit.
	ErrSizeOverflow = errors.New("zpack: size overflow")

	// ErrNotFound is returned when no entry matches a lookup.
	ErrNotFound = errors.New("zpack: entry not found")
)
