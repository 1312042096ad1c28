// Package table encodes and decodes the fixed-capacity ZPACK file table.
//
// The table is a sequence of Capacity little-endian slots of SlotSize bytes:
//
//	off  size  field
//	  0    18  name, zero padded
//	 18     2  tag (int16)
//	 20     4  offset (uint32)
//	 24     4  span (uint32)
//	 28     4  compressed size (uint32)
//	 32     4  uncompressed size (uint32)
//	 36     4  presence (int32, 0 = terminator)
package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// SlotSize is the encoded size of one descriptor.
	SlotSize = 40

	// Capacity is the number of slots in every table.
	Capacity = 8192

	// Size is the encoded size of a complete table.
	Size = SlotSize * Capacity

	// NameSize is the width of the name field.
	NameSize = 18

	// PresenceNormal marks a present entry.
	PresenceNormal int32 = -1

	// PresenceTerminator marks the end of the table.
	PresenceTerminator int32 = 0
)

// Descriptor is the table record for one archive entry.
type Descriptor struct {
	// Name is the entry name, at most NameSize bytes. Names are not unique.
	Name string

	// Tag is an opaque value preserved verbatim.
	Tag int16

	// Offset is the absolute byte offset of the payload in the data blob.
	Offset uint32

	// Span is the number of bytes the payload occupies after sector padding.
	Span uint32

	// CompressedSize is the exact size of the compressed payload.
	CompressedSize uint32

	// UncompressedSize is the exact size of the decompressed payload.
	UncompressedSize uint32

	// Presence is PresenceNormal for written entries; 0 ends the table.
	// Other non-zero values read from existing tables are kept as is.
	Presence int32
}

// IsTerminator reports whether d ends the table.
func (d Descriptor) IsTerminator() bool {
	return d.Presence == PresenceTerminator
}

// IsDummy reports whether d is present but carries no payload.
func (d Descriptor) IsDummy() bool {
	return !d.IsTerminator() && d.CompressedSize == 0 && d.UncompressedSize == 0 && d.Span == 0
}

// End returns the first byte after the compressed payload.
func (d Descriptor) End() int64 {
	return int64(d.Offset) + int64(d.CompressedSize)
}

// ValidateName checks that name fits the name field.
func ValidateName(name string) error {
	if len(name) > NameSize {
		return fmt.Errorf("%w: %q is %d bytes, max %d", ErrNameTooLong, name, len(name), NameSize)
	}
	if bytes.IndexByte([]byte(name), 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	return nil
}

// Put encodes d into b, which must be at least SlotSize bytes.
func (d Descriptor) Put(b []byte) error {
	if len(b) < SlotSize {
		return fmt.Errorf("%w: buffer of %d bytes", ErrShortSlot, len(b))
	}
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	clear(b[:NameSize])
	copy(b[:NameSize], d.Name)
	binary.LittleEndian.PutUint16(b[18:20], uint16(d.Tag)) //nolint:gosec // bit pattern preserved
	binary.LittleEndian.PutUint32(b[20:24], d.Offset)
	binary.LittleEndian.PutUint32(b[24:28], d.Span)
	binary.LittleEndian.PutUint32(b[28:32], d.CompressedSize)
	binary.LittleEndian.PutUint32(b[32:36], d.UncompressedSize)
	binary.LittleEndian.PutUint32(b[36:40], uint32(d.Presence)) //nolint:gosec // bit pattern preserved
	return nil
}

// Bytes returns the encoded slot.
func (d Descriptor) Bytes() ([]byte, error) {
	var b [SlotSize]byte
	if err := d.Put(b[:]); err != nil {
		return nil, err
	}
	return b[:], nil
}

// Parse decodes one slot. The name ends at its first NUL byte.
func Parse(b []byte) (Descriptor, error) {
	if len(b) < SlotSize {
		return Descriptor{}, fmt.Errorf("%w: %d bytes", ErrShortSlot, len(b))
	}
	name := b[:NameSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return Descriptor{
		Name:             string(name),
		Tag:              int16(binary.LittleEndian.Uint16(b[18:20])), //nolint:gosec // bit pattern preserved
		Offset:           binary.LittleEndian.Uint32(b[20:24]),
		Span:             binary.LittleEndian.Uint32(b[24:28]),
		CompressedSize:   binary.LittleEndian.Uint32(b[28:32]),
		UncompressedSize: binary.LittleEndian.Uint32(b[32:36]),
		Presence:         int32(binary.LittleEndian.Uint32(b[36:40])), //nolint:gosec // bit pattern preserved
	}, nil
}
