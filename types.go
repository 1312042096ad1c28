package zpack

import (
	"github.com/meigma/zpack/internal/codec"
	"github.com/meigma/zpack/internal/table"
)

// Descriptor is the table record for one archive entry.
type Descriptor = table.Descriptor

// Format constants.
const (
	// SectorSize is the alignment of every payload in the data blob.
	SectorSize = 2048

	// Capacity is the fixed number of slots in the header table.
	Capacity = table.Capacity

	// SlotSize is the encoded size of one descriptor.
	SlotSize = table.SlotSize

	// HeaderSize is the size of every header table written by a Writer.
	HeaderSize = table.Size

	// NameSize is the maximum entry name length in bytes.
	NameSize = table.NameSize

	// PresenceNormal is the presence value of written entries.
	PresenceNormal = table.PresenceNormal
)

// Compression levels accepted by CreateWithLevel.
const (
	DefaultLevel = codec.DefaultLevel
	MinLevel     = codec.MinLevel
	MaxLevel     = codec.MaxLevel
)

// Default file names for ZPACK archives.
const (
	DefaultHeaderName = "FAT_Z.BIN"
	DefaultDataName   = "BG3ZPACK.ARC"
)
