// Package sizing provides overflow-checked conversions between the uint32
// fields of the on-disk table and the int64 offsets used by io.
package sizing

import "math"

// ToInt converts a non-negative int64 to int, returning overflowErr if it doesn't fit.
func ToInt(size int64, overflowErr error) (int, error) {
	if size < 0 || size > math.MaxInt {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToUint32 converts an int64 to uint32, returning overflowErr if it is
// negative or too large for a table field.
func ToUint32(size int64, overflowErr error) (uint32, error) {
	if size < 0 || size > math.MaxUint32 {
		return 0, overflowErr
	}
	return uint32(size), nil
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
