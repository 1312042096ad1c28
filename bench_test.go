package zpack

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"testing"

	"github.com/meigma/zpack/internal/testutil"
)

var (
	benchSinkBytes []byte
	benchSinkEntry *Entry
	benchSinkInt   int64
)

type benchPattern string

const (
	benchPatternCompressible benchPattern = "compressible"
	benchPatternRandom       benchPattern = "random"
)

func init() {
	if os.Getenv("ZPACK_PROFILE_BLOCK") == "1" {
		runtime.SetBlockProfileRate(1)
	}
	if os.Getenv("ZPACK_PROFILE_MUTEX") == "1" {
		runtime.SetMutexProfileFraction(1)
	}
}

func makeBenchPayloads(count, size int, pattern benchPattern) [][]byte {
	rng := rand.New(rand.NewSource(int64(count*size) + 1)) //nolint:gosec // deterministic benchmark data
	out := make([][]byte, count)
	for i := range out {
		b := make([]byte, size)
		switch pattern {
		case benchPatternRandom:
			rng.Read(b)
		default:
			line := fmt.Appendf(nil, "entry %04d: the quick brown fox jumps over the lazy dog\n", i)
			for off := 0; off < size; off += len(line) {
				copy(b[off:], line)
			}
		}
		out[i] = b
	}
	return out
}

func benchName(i int) string { return fmt.Sprintf("FILE%04d.BIN", i) }

func createBenchArchive(b *testing.B, payloads [][]byte) (header, data []byte) {
	b.Helper()

	var h, d bytes.Buffer
	w, err := NewWriter(&h, &d)
	if err != nil {
		b.Fatal(err)
	}
	for i, p := range payloads {
		if _, err := w.WriteEntry(benchName(i), 0, p); err != nil {
			b.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		b.Fatal(err)
	}
	return h.Bytes(), d.Bytes()
}

func BenchmarkWriter(b *testing.B) {
	cases := []struct {
		name    string
		count   int
		size    int
		level   int
		pattern benchPattern
	}{
		{name: "files=128/size=16k/default/compressible", count: 128, size: 16 << 10, level: DefaultLevel, pattern: benchPatternCompressible},
		{name: "files=128/size=16k/fastest/compressible", count: 128, size: 16 << 10, level: MinLevel, pattern: benchPatternCompressible},
		{name: "files=128/size=16k/default/random", count: 128, size: 16 << 10, level: DefaultLevel, pattern: benchPatternRandom},
	}

	for _, bc := range cases {
		b.Run(bc.name, func(b *testing.B) {
			payloads := makeBenchPayloads(bc.count, bc.size, bc.pattern)
			b.SetBytes(int64(bc.count * bc.size))

			var h, d bytes.Buffer
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				h.Reset()
				d.Reset()
				w, err := NewWriter(&h, &d, CreateWithLevel(bc.level))
				if err != nil {
					b.Fatal(err)
				}
				for i, p := range payloads {
					if _, err := w.WriteEntry(benchName(i), 0, p); err != nil {
						b.Fatal(err)
					}
				}
				if err := w.Close(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkOpen(b *testing.B) {
	header, data := createBenchArchive(b, makeBenchPayloads(512, 1<<10, benchPatternCompressible))
	src := testutil.NewMockByteSource(data)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		r, err := NewReader(bytes.NewReader(header), src)
		if err != nil {
			b.Fatal(err)
		}
		benchSinkInt = int64(r.Len())
	}
}

func BenchmarkLookup(b *testing.B) {
	for _, count := range []int{256, 4096} {
		b.Run(fmt.Sprintf("files=%d", count), func(b *testing.B) {
			header, data := createBenchArchive(b, makeBenchPayloads(count, 256, benchPatternCompressible))
			r, err := NewReader(bytes.NewReader(header), testutil.NewMockByteSource(data))
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; b.Loop(); i++ {
				e, err := r.Lookup(benchName(i % count))
				if err != nil {
					b.Fatal(err)
				}
				benchSinkEntry = e
			}
		})
	}
}

func BenchmarkReadAll(b *testing.B) {
	cases := []struct {
		name    string
		size    int
		pattern benchPattern
	}{
		{name: "size=4k/compressible", size: 4 << 10, pattern: benchPatternCompressible},
		{name: "size=256k/compressible", size: 256 << 10, pattern: benchPatternCompressible},
		{name: "size=256k/random", size: 256 << 10, pattern: benchPatternRandom},
	}

	for _, bc := range cases {
		b.Run(bc.name, func(b *testing.B) {
			header, data := createBenchArchive(b, makeBenchPayloads(16, bc.size, bc.pattern))
			r, err := NewReader(bytes.NewReader(header), testutil.NewMockByteSource(data))
			if err != nil {
				b.Fatal(err)
			}
			b.SetBytes(int64(bc.size))

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; b.Loop(); i++ {
				e, err := r.Entry(i % r.Len())
				if err != nil {
					b.Fatal(err)
				}
				benchSinkBytes, err = e.ReadAll()
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkWriteTo(b *testing.B) {
	const size = 256 << 10
	header, data := createBenchArchive(b, makeBenchPayloads(16, size, benchPatternCompressible))
	r, err := NewReader(bytes.NewReader(header), testutil.NewMockByteSource(data))
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(size)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; b.Loop(); i++ {
		e, err := r.Entry(i % r.Len())
		if err != nil {
			b.Fatal(err)
		}
		benchSinkInt, err = e.WriteTo(io.Discard)
		if err != nil {
			b.Fatal(err)
		}
	}
}
