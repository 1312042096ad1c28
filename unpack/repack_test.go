package unpack

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zpack"
)

func unpackSample(t *testing.T) (srcDir, unpacked string) {
	t.Helper()
	srcDir = t.TempDir()
	headerPath, dataPath := writeArchive(t, srcDir, sampleEntries())
	unpacked = filepath.Join(t.TempDir(), "unpacked")
	_, _, err := UnpackFiles(context.Background(), headerPath, dataPath, unpacked)
	require.NoError(t, err)
	return srcDir, unpacked
}

func TestRepackRoundTrip(t *testing.T) {
	t.Parallel()

	srcDir, unpacked := unpackSample(t)
	outDir := filepath.Join(t.TempDir(), "repacked")

	stats, err := Repack(context.Background(), unpacked, outDir)
	require.NoError(t, err)

	entries := sampleEntries()
	assert.Equal(t, len(entries), stats.Entries)
	assert.Equal(t, len(entries)-1, stats.Written)
	assert.Equal(t, 1, stats.Dummies)

	orig, err := zpack.OpenFile(filepath.Join(srcDir, zpack.DefaultHeaderName), filepath.Join(srcDir, zpack.DefaultDataName))
	require.NoError(t, err)
	defer orig.Close()
	r, err := zpack.OpenFile(filepath.Join(outDir, zpack.DefaultHeaderName), filepath.Join(outDir, zpack.DefaultDataName))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, orig.Len(), r.Len())
	origDescs := orig.Descriptors()
	for i, d := range r.Descriptors() {
		assert.Equal(t, origDescs[i].Name, d.Name)
		assert.Equal(t, origDescs[i].Tag, d.Tag)
		assert.Equal(t, origDescs[i].UncompressedSize, d.UncompressedSize)
		assert.Equal(t, origDescs[i].IsDummy(), d.IsDummy())
		assert.Zero(t, d.Offset%zpack.SectorSize)

		e, err := r.Entry(i)
		require.NoError(t, err)
		if e.IsDummy() {
			continue
		}
		got, err := e.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, entries[i].data, got, "entry %d", i)
	}
}

func TestRepackKeepsPresence(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	headerPath, dataPath := writeArchive(t, srcDir, []testEntry{
		{name: "A.BIN", data: []byte("alpha")},
		{name: "B.BIN", data: []byte("beta"), presence: 7},
		{name: "C.BIN", dummy: true, presence: -2},
	})
	unpacked := filepath.Join(t.TempDir(), "unpacked")
	m, _, err := UnpackFiles(context.Background(), headerPath, dataPath, unpacked)
	require.NoError(t, err)
	require.Len(t, m.Entries, 3)
	assert.Zero(t, m.Entries[0].Presence)
	assert.Equal(t, int32(7), m.Entries[1].Presence)
	assert.Equal(t, int32(-2), m.Entries[2].Presence)

	outDir := filepath.Join(t.TempDir(), "repacked")
	_, err = Repack(context.Background(), unpacked, outDir)
	require.NoError(t, err)

	r, err := zpack.OpenFile(filepath.Join(outDir, zpack.DefaultHeaderName), filepath.Join(outDir, zpack.DefaultDataName))
	require.NoError(t, err)
	defer r.Close()
	descs := r.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, zpack.PresenceNormal, descs[0].Presence)
	assert.Equal(t, int32(7), descs[1].Presence)
	assert.Equal(t, int32(-2), descs[2].Presence)
	assert.True(t, descs[2].IsDummy())
}

func TestRepackDeterministic(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	first := t.TempDir()
	second := t.TempDir()

	_, err := Repack(context.Background(), unpacked, first)
	require.NoError(t, err)
	_, err = Repack(context.Background(), unpacked, second)
	require.NoError(t, err)

	for _, name := range []string{zpack.DefaultHeaderName, zpack.DefaultDataName} {
		assert.Equal(t, readFile(t, filepath.Join(first, name)), readFile(t, filepath.Join(second, name)), name)
	}
	assert.Len(t, readFile(t, filepath.Join(first, zpack.DefaultHeaderName)), zpack.HeaderSize)
}

func TestRepackBackup(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	outDir := t.TempDir()
	headerPath := filepath.Join(outDir, zpack.DefaultHeaderName)
	dataPath := filepath.Join(outDir, zpack.DefaultDataName)
	require.NoError(t, os.WriteFile(headerPath, []byte("original header"), 0o644))
	require.NoError(t, os.WriteFile(dataPath, []byte("original data"), 0o644))

	_, err := Repack(context.Background(), unpacked, outDir)
	require.NoError(t, err)
	assert.Equal(t, []byte("original header"), readFile(t, headerPath+BackupSuffix))
	assert.Equal(t, []byte("original data"), readFile(t, dataPath+BackupSuffix))

	// A second repack keeps the first backup.
	_, err = Repack(context.Background(), unpacked, outDir)
	require.NoError(t, err)
	assert.Equal(t, []byte("original header"), readFile(t, headerPath+BackupSuffix))
	assert.Equal(t, []byte("original data"), readFile(t, dataPath+BackupSuffix))
	assert.Len(t, readFile(t, headerPath), zpack.HeaderSize)
}

func TestRepackWithoutBackup(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	outDir := t.TempDir()
	headerPath := filepath.Join(outDir, zpack.DefaultHeaderName)
	require.NoError(t, os.WriteFile(headerPath, []byte("original header"), 0o644))

	_, err := Repack(context.Background(), unpacked, outDir, WithBackup(false))
	require.NoError(t, err)
	_, err = os.Stat(headerPath + BackupSuffix)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Len(t, readFile(t, headerPath), zpack.HeaderSize)
}

func TestRepackMissingFile(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	require.NoError(t, os.Remove(filepath.Join(unpacked, "COURSE (1).BIN")))
	outDir := t.TempDir()
	headerPath := filepath.Join(outDir, zpack.DefaultHeaderName)
	require.NoError(t, os.WriteFile(headerPath, []byte("original header"), 0o644))

	_, err := Repack(context.Background(), unpacked, outDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, filepath.Join(unpacked, "COURSE (1).BIN"), pathErr.Path)

	// Nothing was touched.
	assert.Equal(t, []byte("original header"), readFile(t, headerPath))
	_, err = os.Stat(headerPath + BackupSuffix)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = os.Stat(filepath.Join(outDir, zpack.DefaultDataName))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRepackMissingManifest(t *testing.T) {
	t.Parallel()

	_, err := Repack(context.Background(), t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRepackInvalidManifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest Manifest
	}{
		{
			name: "escaping filename",
			manifest: Manifest{Decoder: Decoder, Entries: []ManifestEntry{
				{Name: "A.BIN", Filename: "../A.BIN"},
			}},
		},
		{
			name: "nested filename",
			manifest: Manifest{Decoder: Decoder, Entries: []ManifestEntry{
				{Name: "A.BIN", Filename: "sub/A.BIN"},
			}},
		},
		{
			name:     "escaping header name",
			manifest: Manifest{Decoder: Decoder, HeaderName: "../FAT_Z.BIN", Entries: []ManifestEntry{
				{Name: "A.BIN", Dummy: true},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			require.NoError(t, tt.manifest.Save(dir))

			_, err := Repack(context.Background(), dir, t.TempDir())
			require.ErrorIs(t, err, ErrManifest)
		})
	}
}

func TestRepackDefaultNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.BIN"), []byte("a"), 0o644))
	m := Manifest{Decoder: "someone-else", Entries: []ManifestEntry{{Name: "A.BIN", Tag: 9}}}
	require.NoError(t, m.Save(dir))

	outDir := t.TempDir()
	_, err := Repack(context.Background(), dir, outDir)
	require.NoError(t, err)

	r, err := zpack.OpenFile(filepath.Join(outDir, zpack.DefaultHeaderName), filepath.Join(outDir, zpack.DefaultDataName))
	require.NoError(t, err)
	defer r.Close()
	e, err := r.Lookup("A.BIN")
	require.NoError(t, err)
	assert.Equal(t, int16(9), e.Tag())
}

func TestRepackCancelled(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outDir := t.TempDir()
	_, err := Repack(ctx, unpacked, outDir)
	require.ErrorIs(t, err, context.Canceled)

	dir, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, dir, "aborted repack leaves no files")
}

func TestRepackInvalidLevel(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	_, err := Repack(context.Background(), unpacked, t.TempDir(), WithLevel(42))
	require.ErrorIs(t, err, zpack.ErrInvalidLevel)
}

func TestRepackProgress(t *testing.T) {
	t.Parallel()

	_, unpacked := unpackSample(t)
	var events []ProgressEvent
	_, err := Repack(context.Background(), unpacked, t.TempDir(), WithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))
	require.NoError(t, err)

	entries := sampleEntries()
	require.Len(t, events, len(entries)+2)
	assert.Equal(t, StageReadingIndex, events[0].Stage)
	for i, ev := range events[1 : len(events)-1] {
		assert.Equal(t, StageCompressing, ev.Stage)
		assert.Equal(t, entries[i].name, ev.Name)
		assert.Equal(t, i+1, ev.EntriesDone)
	}
	assert.Equal(t, StageFinishing, events[len(events)-1].Stage)
}

func TestBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "FILE")

	made, err := Backup(path)
	require.NoError(t, err)
	assert.False(t, made, "missing file is not backed up")

	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	made, err = Backup(path)
	require.NoError(t, err)
	assert.True(t, made)
	assert.Equal(t, []byte("one"), readFile(t, path+BackupSuffix))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	made, err = Backup(path)
	require.NoError(t, err)
	assert.False(t, made)
	assert.Equal(t, []byte("one"), readFile(t, path+BackupSuffix))
	assert.Equal(t, []byte("two"), readFile(t, path))
}
