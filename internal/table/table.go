package table

import (
	"errors"
	"fmt"
	"io"
)

// Decode reads slots from r until the first terminator and returns the
// descriptors before it. Slots after the terminator are never read.
//
// A table that ends, or ends mid-slot, before a terminator and before
// Capacity slots is an ErrFormat. After Capacity present slots one more
// slot is probed: end of input or a terminator is accepted, anything else
// is an ErrFormat.
func Decode(r io.Reader) ([]Descriptor, error) {
	var (
		slot  [SlotSize]byte
		descs []Descriptor
	)
	for i := 0; i <= Capacity; i++ {
		n, err := io.ReadFull(r, slot[:])
		if err != nil {
			if i == Capacity && errors.Is(err, io.EOF) {
				break
			}
			switch {
			case errors.Is(err, io.EOF):
				return nil, fmt.Errorf("%w: table ends after %d slots without terminator", ErrFormat, i)
			case errors.Is(err, io.ErrUnexpectedEOF):
				return nil, fmt.Errorf("%w: slot %d truncated at %d of %d bytes", ErrFormat, i, n, SlotSize)
			default:
				return nil, fmt.Errorf("read slot %d: %w", i, err)
			}
		}
		d, err := Parse(slot[:])
		if err != nil {
			return nil, err
		}
		if d.IsTerminator() {
			break
		}
		if i == Capacity {
			return nil, fmt.Errorf("%w: more than %d entries", ErrFormat, Capacity)
		}
		if descs == nil {
			descs = make([]Descriptor, 0, 64)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Encode returns a complete table: descs in order followed by zero slots
// up to Capacity.
func Encode(descs []Descriptor) ([]byte, error) {
	if len(descs) > Capacity {
		return nil, fmt.Errorf("%w: %d entries", ErrCapacityExceeded, len(descs))
	}
	buf := make([]byte, Size)
	for i := range descs {
		if descs[i].IsTerminator() {
			return nil, fmt.Errorf("%w: entry %d (%q) has zero presence", ErrFormat, i, descs[i].Name)
		}
		if err := descs[i].Put(buf[i*SlotSize:]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return buf, nil
}

// Write encodes descs as a complete table into w and returns the bytes written.
func Write(w io.Writer, descs []Descriptor) (int64, error) {
	buf, err := Encode(descs)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}
