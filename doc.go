// Package zpack reads and writes ZPACK archives: a fixed-capacity file
// table (the header, conventionally FAT_Z.BIN) paired with a data blob
// (conventionally BG3ZPACK.ARC) of zlib payloads, each padded to a
// 2048-byte sector.
//
// The header always holds [Capacity] slots of [SlotSize] bytes. Only the
// slots before the first terminator (presence 0) describe entries.
//
// # Reading
//
// A [Reader] decodes the table once and decompresses entries on demand.
// Every read opens its own window over the data blob, so entries may be
// read in any order and, when the data source supports concurrent ReadAt,
// from several goroutines:
//
//	r, err := zpack.OpenFile("FAT_Z.BIN", "BG3ZPACK.ARC")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for e := range r.Entries() {
//	    data, err := e.ReadAll()
//	    ...
//	}
//
// # Writing
//
// A [Writer] appends entries to the data blob and writes the complete table
// on Finish. Close finishes the archive if needed:
//
//	w, err := zpack.CreateFile("FAT_Z.BIN", "BG3ZPACK.ARC")
//	if err != nil {
//	    return err
//	}
//	if _, err := w.WriteEntry("A.BIN", 0, data); err != nil {
//	    w.Close()
//	    return err
//	}
//	return w.Close()
package zpack
