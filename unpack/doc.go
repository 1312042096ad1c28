// Package unpack extracts ZPACK archives to a directory and rebuilds them.
//
// Unpack writes every entry to its own file and records the archive layout
// in a manifest (_zpack.toml). Repack reads the manifest back and writes a
// new header and data blob with the entries in their original order, names
// and tags.
package unpack
