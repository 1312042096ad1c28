package table

import "errors"

var (
	// ErrFormat indicates a malformed table.
	ErrFormat = errors.New("zpack: malformed header table")

	// ErrCapacityExceeded is returned when a table would exceed Capacity entries.
	ErrCapacityExceeded = errors.New("zpack: table capacity exceeded")

	// ErrNameTooLong is returned for names longer than NameSize bytes.
	ErrNameTooLong = errors.New("zpack: entry name too long")

	// ErrInvalidName is returned for names the name field cannot hold.
	ErrInvalidName = errors.New("zpack: invalid entry name")

	// ErrShortSlot indicates a buffer smaller than one slot.
	ErrShortSlot = errors.New("zpack: short slot buffer")
)
