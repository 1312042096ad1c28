package table

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDescriptor(name string, i int) Descriptor {
	return Descriptor{
		Name:             name,
		Tag:              int16(i - 3),
		Offset:           uint32(i * 2048),
		Span:             2048,
		CompressedSize:   uint32(100 + i),
		UncompressedSize: uint32(500 + i),
		Presence:         PresenceNormal,
	}
}

func TestDescriptorLayout(t *testing.T) {
	t.Parallel()

	d := Descriptor{
		Name:             "TEX001.BIN",
		Tag:              -2,
		Offset:           0x1000,
		Span:             0x800,
		CompressedSize:   0x123,
		UncompressedSize: 0x4567,
		Presence:         PresenceNormal,
	}
	b, err := d.Bytes()
	require.NoError(t, err)
	require.Len(t, b, SlotSize)

	assert.Equal(t, "TEX001.BIN", string(b[:10]))
	assert.Equal(t, make([]byte, 8), b[10:18])
	assert.Equal(t, []byte{0xfe, 0xff}, b[18:20])
	assert.Equal(t, uint32(0x1000), binary.LittleEndian.Uint32(b[20:24]))
	assert.Equal(t, uint32(0x800), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, uint32(0x123), binary.LittleEndian.Uint32(b[28:32]))
	assert.Equal(t, uint32(0x4567), binary.LittleEndian.Uint32(b[32:36]))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, b[36:40])

	got, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDescriptorName(t *testing.T) {
	t.Parallel()

	full := "ABCDEFGHIJKLMN.BIN"
	require.Len(t, full, NameSize)

	d := Descriptor{Name: full, Presence: PresenceNormal}
	b, err := d.Bytes()
	require.NoError(t, err)
	got, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, full, got.Name)

	d.Name = full + "X"
	_, err = d.Bytes()
	require.ErrorIs(t, err, ErrNameTooLong)

	d.Name = "A\x00B"
	_, err = d.Bytes()
	require.ErrorIs(t, err, ErrInvalidName)

	require.NoError(t, ValidateName(""))
}

func TestParseStopsNameAtNul(t *testing.T) {
	t.Parallel()

	var b [SlotSize]byte
	copy(b[:], "AB\x00garbage")
	binary.LittleEndian.PutUint32(b[36:], 7)

	d, err := Parse(b[:])
	require.NoError(t, err)
	assert.Equal(t, "AB", d.Name)
	assert.Equal(t, int32(7), d.Presence)
	assert.False(t, d.IsTerminator())
}

func TestParseShort(t *testing.T) {
	t.Parallel()

	_, err := Parse(make([]byte, SlotSize-1))
	require.ErrorIs(t, err, ErrShortSlot)
}

func TestDummyAndEnd(t *testing.T) {
	t.Parallel()

	d := Descriptor{Name: "X", Offset: 4096, Presence: PresenceNormal}
	assert.True(t, d.IsDummy())
	assert.Equal(t, int64(4096), d.End())

	d.CompressedSize = 10
	assert.False(t, d.IsDummy())
	assert.Equal(t, int64(4106), d.End())

	var zero Descriptor
	assert.True(t, zero.IsTerminator())
	assert.False(t, zero.IsDummy())
}

func TestDescriptorMethodsOnReturnedValue(t *testing.T) {
	t.Parallel()

	// Values returned from functions are not addressable.
	assert.Equal(t, int64(2149), sampleDescriptor("A.BIN", 1).End())
	assert.False(t, sampleDescriptor("A.BIN", 1).IsDummy())
	assert.False(t, sampleDescriptor("A.BIN", 1).IsTerminator())

	b, err := sampleDescriptor("A.BIN", 1).Bytes()
	require.NoError(t, err)
	assert.Len(t, b, SlotSize)
}

func TestEncodeSizeInvariant(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, Capacity} {
		descs := make([]Descriptor, n)
		for i := range descs {
			descs[i] = sampleDescriptor("F.BIN", i)
		}
		buf, err := Encode(descs)
		require.NoError(t, err)
		assert.Len(t, buf, Size, "entries=%d", n)

		if n < Capacity {
			assert.Equal(t, make([]byte, Size-n*SlotSize), buf[n*SlotSize:])
		}

		got, err := Decode(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Len(t, got, n)
		if n > 0 {
			assert.Equal(t, descs[n-1], got[n-1])
		}
	}
}

func TestEncodeRejects(t *testing.T) {
	t.Parallel()

	_, err := Encode(make([]Descriptor, Capacity+1))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = Encode([]Descriptor{{Name: "A"}})
	require.ErrorIs(t, err, ErrFormat)

	_, err = Encode([]Descriptor{{Name: "ABCDEFGHIJKLMNOPQRS", Presence: PresenceNormal}})
	require.ErrorIs(t, err, ErrNameTooLong)
}

func TestDecodeTerminator(t *testing.T) {
	t.Parallel()

	t.Run("terminator first", func(t *testing.T) {
		t.Parallel()
		got, err := Decode(bytes.NewReader(make([]byte, Size)))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("garbage after terminator", func(t *testing.T) {
		t.Parallel()
		descs := make([]Descriptor, 5)
		for i := range descs {
			descs[i] = sampleDescriptor("E.BIN", i)
		}
		buf, err := Encode(descs)
		require.NoError(t, err)
		for i := 6 * SlotSize; i < len(buf); i++ {
			buf[i] = 0xAB
		}

		got, err := Decode(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, descs, got)
	})

	t.Run("terminator with short tail", func(t *testing.T) {
		t.Parallel()
		buf := make([]byte, 2*SlotSize)
		d := sampleDescriptor("ONE", 0)
		require.NoError(t, d.Put(buf))

		got, err := Decode(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	one := sampleDescriptor("A.BIN", 0)
	slot, err := one.Bytes()
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(bytes.NewReader(nil))
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("no terminator", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(bytes.NewReader(bytes.Repeat(slot, 3)))
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("partial slot", func(t *testing.T) {
		t.Parallel()
		buf := append(bytes.Repeat(slot, 2), slot[:17]...)
		_, err := Decode(bytes.NewReader(buf))
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("full table accepted", func(t *testing.T) {
		t.Parallel()
		descs, err := Decode(bytes.NewReader(bytes.Repeat(slot, Capacity)))
		require.NoError(t, err)
		assert.Len(t, descs, Capacity)
	})

	t.Run("overflow slot", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(bytes.NewReader(bytes.Repeat(slot, Capacity+1)))
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("terminator after full table", func(t *testing.T) {
		t.Parallel()
		buf := append(bytes.Repeat(slot, Capacity), make([]byte, SlotSize)...)
		descs, err := Decode(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Len(t, descs, Capacity)
	})

	t.Run("partial slot after full table", func(t *testing.T) {
		t.Parallel()
		buf := append(bytes.Repeat(slot, Capacity), 1, 2, 3)
		_, err := Decode(bytes.NewReader(buf))
		require.ErrorIs(t, err, ErrFormat)
	})
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestDecodeReadError(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk gone")
	_, err := Decode(errReader{errDisk})
	require.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrFormat)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := Write(&buf, []Descriptor{sampleDescriptor("W", 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(Size), n)
	assert.Equal(t, Size, buf.Len())
}
