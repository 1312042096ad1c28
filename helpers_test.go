package zpack

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type testEntry struct {
	name string
	tag  int16
	data []byte
}

// buildArchive writes entries into in-memory header and data blobs.
func buildArchive(t *testing.T, entries []testEntry, opts ...WriterOption) (header, data []byte) {
	t.Helper()

	var h, d bytes.Buffer
	w, err := NewWriter(&h, &d, opts...)
	require.NoError(t, err)
	for _, e := range entries {
		_, err := w.WriteEntry(e.name, e.tag, e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return h.Bytes(), d.Bytes()
}

func openArchive(t *testing.T, header, data []byte, opts ...ReaderOption) *Reader {
	t.Helper()

	r, err := NewReader(bytes.NewReader(header), bytes.NewReader(data), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b) //nolint:gosec // deterministic test data
	return b
}
