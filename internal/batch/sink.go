package batch

import "io"

// Source produces the content of one item.
type Source interface {
	// Name identifies the source in errors and progress reports.
	Name() string

	// Size returns the expected content length.
	Size() int64

	// WriteTo streams the content into w.
	WriteTo(w io.Writer) (int64, error)
}

// Item is one unit of batch work: a source and the path it is written to.
type Item struct {
	Source Source

	// Path is the slash-separated destination path relative to the sink.
	Path string
}

// Sink receives item content during batch processing.
//
// Implementations determine where content is written and can filter which
// items to process.
type Sink interface {
	// ShouldProcess returns false if this item should be skipped.
	ShouldProcess(item Item) bool

	// Writer returns a writer for the item's content.
	// The returned Committer must have Commit called after a successful
	// write, or Discard called on any error.
	Writer(item Item) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called. For example,
// a file-based implementation writes to a temp file and renames it on
// Commit, or deletes it on Discard.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
