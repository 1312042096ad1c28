package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	name string
	data []byte
	err  error
}

func (m memSource) Name() string { return m.name }
func (m memSource) Size() int64  { return int64(len(m.data)) }

func (m memSource) WriteTo(w io.Writer) (int64, error) {
	if m.err != nil {
		n, _ := w.Write(m.data[:len(m.data)/2])
		return int64(n), m.err
	}
	n, err := w.Write(m.data)
	return int64(n), err
}

// mockSink captures committed content for testing.
type mockSink struct {
	mu        sync.Mutex
	skip      map[string]bool
	written   map[string][]byte
	discarded []string
}

func newMockSink() *mockSink {
	return &mockSink{skip: map[string]bool{}, written: map[string][]byte{}}
}

func (s *mockSink) ShouldProcess(item Item) bool {
	return !s.skip[item.Path]
}

func (s *mockSink) Writer(item Item) (Committer, error) {
	return &mockCommitter{sink: s, path: item.Path}, nil
}

type mockCommitter struct {
	bytes.Buffer
	sink *mockSink
	path string
}

func (c *mockCommitter) Commit() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.written[c.path] = c.Bytes()
	return nil
}

func (c *mockCommitter) Discard() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.discarded = append(c.sink.discarded, c.path)
	return nil
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		name := string(rune('a' + i))
		items[i] = Item{
			Source: memSource{name: name, data: bytes.Repeat([]byte(name), 100+i)},
			Path:   name + ".bin",
		}
	}
	return items
}

func TestProcessorWritesAll(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{-1, 0, 1, 4} {
		items := makeItems(10)
		sink := newMockSink()

		var (
			mu     sync.Mutex
			events []Result
		)
		p := NewProcessor(WithWorkers(workers), WithProgress(func(r Result) {
			mu.Lock()
			events = append(events, r)
			mu.Unlock()
		}))
		stats, err := p.Process(context.Background(), items, sink)
		require.NoError(t, err)

		assert.Equal(t, 10, stats.Processed, "workers=%d", workers)
		assert.Zero(t, stats.Skipped)
		assert.Len(t, sink.written, 10)
		for _, it := range items {
			assert.Equal(t, it.Source.(memSource).data, sink.written[it.Path])
		}
		require.Len(t, events, 10)
		assert.Equal(t, 10, events[9].Done)
		assert.Equal(t, 10, events[9].Total)
	}
}

func TestProcessorSkips(t *testing.T) {
	t.Parallel()

	items := makeItems(3)
	sink := newMockSink()
	sink.skip["b.bin"] = true

	stats, err := NewProcessor().Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.NotContains(t, sink.written, "b.bin")
}

func TestProcessorStopsOnError(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken entry")
	items := makeItems(3)
	items[1].Source = memSource{name: "bad", data: []byte("xxxx"), err: errBroken}
	sink := newMockSink()

	_, err := NewProcessor(WithWorkers(-1)).Process(context.Background(), items, sink)
	require.ErrorIs(t, err, errBroken)

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "bad", itemErr.Name)
	assert.Equal(t, "b.bin", itemErr.Path)
	assert.Contains(t, sink.discarded, "b.bin")
	assert.NotContains(t, sink.written, "c.bin")
}

func TestProcessorContinueOnError(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken entry")
	items := makeItems(4)
	items[2].Source = memSource{name: "bad", data: []byte("xxxx"), err: errBroken}
	sink := newMockSink()

	stats, err := NewProcessor(WithWorkers(2), WithContinueOnError(true)).Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Failures, 1)
	require.ErrorIs(t, stats.Failures[0], errBroken)
}

func TestProcessorCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewProcessor().Process(ctx, makeItems(5), newMockSink())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Processed)
}

func TestFileSink(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	defer sink.Close()

	items := []Item{
		{Source: memSource{name: "A", data: []byte("alpha")}, Path: "A.BIN"},
		{Source: memSource{name: "B", data: []byte("beta")}, Path: "B (1).BIN"},
	}
	stats, err := NewProcessor().Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, int64(9), stats.TotalBytes)

	got, err := os.ReadFile(filepath.Join(dir, "A.BIN"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
	got, err = os.ReadFile(filepath.Join(dir, "B (1).BIN"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(got))

	info, err := os.Stat(filepath.Join(dir, "A.BIN"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o644), info.Mode().Perm())

	temps, err := filepath.Glob(filepath.Join(dir, "*.part"))
	require.NoError(t, err)
	assert.Empty(t, temps)
}

func TestFileSinkOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.BIN"), []byte("old"), 0o644))
	items := []Item{{Source: memSource{name: "A", data: []byte("new")}, Path: "A.BIN"}}

	keep, err := NewFileSink(dir)
	require.NoError(t, err)
	defer keep.Close()
	stats, err := NewProcessor().Process(context.Background(), items, keep)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	got, err := os.ReadFile(filepath.Join(dir, "A.BIN"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	replace, err := NewFileSink(dir, WithOverwrite(true))
	require.NoError(t, err)
	defer replace.Close()
	stats, err = NewProcessor().Process(context.Background(), items, replace)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	got, err = os.ReadFile(filepath.Join(dir, "A.BIN"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileSinkDiscardsFailedItems(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	defer sink.Close()

	errBroken := errors.New("broken")
	items := []Item{{Source: memSource{name: "X", data: []byte("partial data"), err: errBroken}, Path: "X.BIN"}}
	_, err = NewProcessor().Process(context.Background(), items, sink)
	require.ErrorIs(t, err, errBroken)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileSinkRejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	for _, p := range []string{"../evil", "/abs", "", ".", "a/../../b", "sub/B.BIN", `sub\B.BIN`} {
		_, err := sink.Writer(Item{Source: memSource{name: "E"}, Path: p})
		require.ErrorIs(t, err, fs.ErrInvalid, "path %q", p)
	}
}

type shortSource struct{ memSource }

func (s shortSource) Size() int64 { return int64(len(s.data)) + 1 }

func TestFileSinkRejectsSizeMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	defer sink.Close()

	items := []Item{{Source: shortSource{memSource{name: "S", data: []byte("short")}}, Path: "S.BIN"}}
	_, err = NewProcessor().Process(context.Background(), items, sink)
	require.ErrorIs(t, err, ErrSizeMismatch)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileSinkWithoutSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir, WithFileMode(0o600))
	require.NoError(t, err)
	defer sink.Close()

	w, err := sink.Writer(Item{Path: "OUT.DE"})
	require.NoError(t, err)
	_, err = w.Write([]byte("any length"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	info, err := os.Stat(filepath.Join(dir, "OUT.DE"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())
}
