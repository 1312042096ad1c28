package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
)

// ErrSizeMismatch is returned by Commit when an item's content length
// differs from its source's Size.
var ErrSizeMismatch = errors.New("batch: size mismatch")

// tempSeq numbers staging files across every sink in the process.
var tempSeq atomic.Uint64

// FileSink writes items as files directly inside one directory.
//
// Item paths are single file names; archive entries have no directory
// structure. Each item is staged in a hidden ".part" file and renamed over
// its final name on Commit, so readers never see a partial file. All file
// operations go through one os.Root held for the sink's lifetime.
type FileSink struct {
	root      *os.Root
	overwrite bool
	perm      fs.FileMode
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite replaces files that already exist. By default they are
// skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithFileMode sets the permission bits of committed files (default 0o644).
func WithFileMode(perm fs.FileMode) FileSinkOption {
	return func(s *FileSink) {
		s.perm = perm.Perm()
	}
}

// NewFileSink creates dir if needed and opens it as the sink's root.
// Close releases the root.
func NewFileSink(dir string, opts ...FileSinkOption) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", dir, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", dir, err)
	}
	s := &FileSink{root: root, perm: 0o644}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the destination root. Call it once every committer has
// been committed or discarded.
func (s *FileSink) Close() error {
	return s.root.Close()
}

// ShouldProcess reports false when overwrite is off and the file exists.
// Invalid names are let through so Writer can report them.
func (s *FileSink) ShouldProcess(item Item) bool {
	if s.overwrite || !isFileName(item.Path) {
		return true
	}
	_, err := s.root.Lstat(item.Path)
	return errors.Is(err, fs.ErrNotExist)
}

// Writer stages item in a new temp file next to its final name.
func (s *FileSink) Writer(item Item) (Committer, error) {
	if !isFileName(item.Path) {
		return nil, &fs.PathError{Op: "extract", Path: item.Path, Err: fs.ErrInvalid}
	}
	expected := int64(-1)
	if item.Source != nil {
		expected = item.Source.Size()
	}

	for {
		temp := fmt.Sprintf(".%s.%d-%d.part", item.Path, os.Getpid(), tempSeq.Add(1))
		f, err := s.root.OpenFile(temp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", item.Path, err)
		}
		return &fileCommitter{sink: s, name: item.Path, temp: temp, f: f, expected: expected}, nil
	}
}

// isFileName reports whether name is one path element that stays inside
// the sink directory.
func isFileName(name string) bool {
	return fs.ValidPath(name) && name != "." && !strings.ContainsAny(name, `/\`)
}

type fileCommitter struct {
	sink     *FileSink
	name     string
	temp     string
	f        *os.File
	written  int64
	expected int64
}

func (c *fileCommitter) Write(p []byte) (int, error) {
	n, err := c.f.Write(p)
	c.written += int64(n)
	return n, err
}

// Commit checks the length, applies the file mode and renames the staged
// file over the final name. The staged file is removed on any failure.
func (c *fileCommitter) Commit() error {
	err := c.f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("close %s: %w", c.name, err)
	case c.expected >= 0 && c.written != c.expected:
		err = fmt.Errorf("%s: %w: wrote %d of %d bytes", c.name, ErrSizeMismatch, c.written, c.expected)
	default:
		if err = c.sink.root.Chmod(c.temp, c.sink.perm); err == nil {
			err = c.sink.root.Rename(c.temp, c.name)
		}
	}
	if err != nil {
		_ = c.sink.root.Remove(c.temp) //nolint:errcheck // best-effort cleanup
		return err
	}
	return nil
}

// Discard removes the staged file.
func (c *fileCommitter) Discard() error {
	_ = c.f.Close() //nolint:errcheck // the file is removed below
	return c.sink.root.Remove(c.temp)
}
