// Package codec implements the deflate codec used by zpack payloads.
//
// Compression writes one complete zlib (or raw deflate) block at the
// destination's current position and reports exactly how many bytes it
// wrote. Decompression is always given a bounded window of the source:
// inflaters buffer ahead of what they consume, and an unbounded source
// would let one entry's decoder swallow the bytes of the next entry.
package codec
