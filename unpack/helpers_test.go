package unpack

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/zpack"
)

type testEntry struct {
	name     string
	tag      int16
	data     []byte
	dummy    bool
	presence int32
}

func sampleEntries() []testEntry {
	return []testEntry{
		{name: "TITLE.TM2", tag: 3, data: bytes.Repeat([]byte("title"), 1000)},
		{name: "COURSE.BIN", tag: -1, data: randomBytes(5000, 1)},
		{name: "COURSE.BIN", tag: 2, data: []byte("second course")},
		{name: "EMPTY.BIN", tag: 0, dummy: true},
		{name: "course.bin", tag: 4, data: []byte("lower case")},
		{name: ManifestName, tag: 5, data: []byte("not a manifest")},
		{name: "ZERO.BIN", tag: 6, data: []byte{}},
	}
}

// writeArchive writes entries as FAT_Z.BIN and BG3ZPACK.ARC in dir.
func writeArchive(t *testing.T, dir string, entries []testEntry) (headerPath, dataPath string) {
	t.Helper()
	headerPath = filepath.Join(dir, zpack.DefaultHeaderName)
	dataPath = filepath.Join(dir, zpack.DefaultDataName)
	w, err := zpack.CreateFile(headerPath, dataPath)
	require.NoError(t, err)
	for _, e := range entries {
		if e.dummy {
			_, err = w.WriteDummy(e.name, e.tag)
		} else {
			_, err = w.WriteEntry(e.name, e.tag, e.data)
		}
		require.NoError(t, err)
		if e.presence != 0 {
			require.NoError(t, w.SetPresence(w.Count()-1, e.presence))
		}
	}
	require.NoError(t, w.Close())
	return headerPath, dataPath
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b) //nolint:gosec // deterministic test data
	return b
}
