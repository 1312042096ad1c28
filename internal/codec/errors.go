package codec

import "errors"

var (
	// ErrCodec is returned when a compressed window cannot be inflated to
	// its declared size.
	ErrCodec = errors.New("zpack: codec error")

	// ErrInvalidLevel is returned for compression levels outside MinLevel..MaxLevel.
	ErrInvalidLevel = errors.New("zpack: invalid compression level")
)
