// Package single handles the standalone compressed files shipped next to
// ZPACK archives.
//
// A GST file is one zlib stream and nothing else. A FOZ file carries a
// 32-byte header naming the file it holds, followed by one zlib stream that
// runs to the end of the file:
//
//	offset  size  field
//	0       16    name, UTF-8, zero padded
//	16      4     field 0, int32 little-endian (usually 1)
//	20      12    fields 1..3, int32 little-endian
//	32      ...   zlib stream
//
// The int32 fields are opaque and preserved as read.
package single
