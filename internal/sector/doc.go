// Package sector provides position-tracking streams over sector-aligned data.
//
// A Writer tracks the absolute position of everything written through it and
// can zero-fill up to the next sector boundary. A Reader exposes bounded
// windows of a random-access source so that each consumer reads only its own
// byte range.
package sector
