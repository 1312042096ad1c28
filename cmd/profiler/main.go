// Command profiler drives archive reads and writes in a loop under the
// runtime profilers.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"

	"github.com/meigma/zpack"
	"github.com/meigma/zpack/internal/testutil"
	"github.com/meigma/zpack/unpack"
)

type config struct {
	mode            string
	entries         int
	entrySize       int
	names           int
	level           int
	pattern         string
	remoteURL       string
	httpLatency     time.Duration
	httpBPS         int64
	fgProfile       string
	duration        time.Duration
	iterations      int
	pprofAddr       string
	cpuProfile      string
	memProfile      string
	traceFile       string
	workers         int
	readRandom      bool
	tempDir         string
	keepTemp        bool
	randomSeed      int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes []byte
	sinkEntry *zpack.Entry
	sinkCount int
)

type dataset struct {
	names    []string
	payloads [][]byte
	header   []byte
	data     []byte
}

//nolint:gocognit,gocyclo // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	ds, err := makeDataset(cfg)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}

	r, remote, err := openArchive(cfg, ds)
	if err != nil {
		log.Fatal(err)
	}
	defer remote.Close()
	defer r.Close()

	if cfg.fgProfile != "" {
		fgFile, fgErr := os.Create(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr)
		}
		stopFG := fgprof.Start(fgFile, fgprof.FormatPprof)
		defer func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = fgFile.Close()
		}()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, r, ds, dir)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
	if remote != nil {
		fmt.Println(remote.summary())
	}
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocyclo,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, r *zpack.Reader, ds *dataset, rootDir string) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "readentry":
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		for shouldContinue() {
			e, err := r.Entry(pickIndex(r.Len(), ops, rng, cfg.readRandom))
			if err != nil {
				return profileStats{}, err
			}
			content, err := e.ReadAll()
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = content
			byteCount += int64(len(content))
			ops++
		}

	case "lookup":
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		for shouldContinue() {
			name := ds.names[pickIndex(len(ds.names), ops, rng, cfg.readRandom)]
			e, err := r.Lookup(name)
			if err != nil {
				return profileStats{}, err
			}
			sinkEntry = e
			ops++
		}

	case "entries":
		for shouldContinue() {
			count := 0
			for e := range r.Entries() {
				sinkEntry = e
				count++
			}
			sinkCount = count
			ops++
		}

	case "unpack":
		for shouldContinue() {
			destDir := filepath.Join(rootDir, "unpack", fmt.Sprintf("iter-%d", ops))
			_, stats, err := unpack.Unpack(context.Background(), r, destDir, unpack.WithWorkers(cfg.workers))
			if err != nil {
				return profileStats{}, err
			}
			if err := os.RemoveAll(destDir); err != nil {
				return profileStats{}, err
			}
			byteCount += stats.Bytes
			ops++
		}

	case "repack":
		srcDir := filepath.Join(rootDir, "unpacked")
		if _, _, err := unpack.Unpack(context.Background(), r, srcDir, unpack.WithWorkers(cfg.workers)); err != nil {
			return profileStats{}, err
		}
		start = time.Now()
		for shouldContinue() {
			destDir := filepath.Join(rootDir, "repack")
			stats, err := unpack.Repack(context.Background(), srcDir, destDir,
				unpack.WithLevel(cfg.level),
				unpack.WithBackup(false),
			)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += stats.Bytes
			ops++
		}

	case "writer":
		var headerBuf, dataBuf bytes.Buffer
		for shouldContinue() {
			headerBuf.Reset()
			dataBuf.Reset()
			if err := writeArchive(&headerBuf, &dataBuf, ds, cfg.level); err != nil {
				return profileStats{}, err
			}
			byteCount += int64(dataBuf.Len())
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	var httpBPS string
	flag.StringVar(&cfg.mode, "mode", "readentry", "mode: readentry, lookup, entries, unpack, repack, writer")
	flag.IntVar(&cfg.entries, "entries", 512, "number of entries")
	flag.IntVar(&cfg.entrySize, "entry-size", 16<<10, "entry size in bytes")
	flag.IntVar(&cfg.names, "names", 0, "distinct entry names (0 = one per entry)")
	flag.IntVar(&cfg.level, "level", zpack.DefaultLevel, "zlib compression level")
	flag.StringVar(&cfg.pattern, "pattern", "compressible", "pattern: compressible or random")
	flag.StringVar(&cfg.remoteURL, "remote", "", "base URL serving FAT_Z.BIN and BG3ZPACK.ARC (use \"local\" to serve generated data)")
	flag.DurationVar(&cfg.httpLatency, "http-latency", 0, "per-request latency for remote archives")
	flag.StringVar(&httpBPS, "http-bps", "", "shared bytes/sec limit for remote archives (e.g. 10MiBps)")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.IntVar(&cfg.workers, "workers", 0, "unpack workers: <0 serial, 0 auto, >0 fixed")
	flag.BoolVar(&cfg.readRandom, "read-random", true, "randomize entry selection")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for unpack and repack output")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()
	if httpBPS != "" {
		bps, err := parseBytesPerSecond(httpBPS)
		if err != nil {
			log.Fatalf("http-bps: %v", err)
		}
		cfg.httpBPS = bps
	}
	return cfg
}

func pickIndex(n, idx int, rng *rand.Rand, random bool) int {
	if random {
		return rng.Intn(n)
	}
	return idx % n
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "zpack-profiler-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() error {
		if cfg.keepTemp {
			return nil
		}
		return os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

// makeDataset generates entry payloads and encodes them once.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func makeDataset(cfg config) (*dataset, error) {
	if cfg.entries <= 0 || cfg.entries > zpack.Capacity {
		return nil, fmt.Errorf("entries must be in 1..%d", zpack.Capacity)
	}
	names := cfg.names
	if names <= 0 || names > cfg.entries {
		names = cfg.entries
	}
	ds := &dataset{
		names:    make([]string, cfg.entries),
		payloads: make([][]byte, cfg.entries),
	}
	rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := range cfg.entries {
		ds.names[i] = fmt.Sprintf("E%05d.DAT", i%names)
		content := make([]byte, cfg.entrySize)
		switch cfg.pattern {
		case "random":
			if _, err := rng.Read(content); err != nil {
				return nil, err
			}
		default:
			fillByte := byte('a' + (i % 26))
			for j := range content {
				content[j] = fillByte
			}
			if len(content) > 0 {
				content[0] = byte(i)
			}
		}
		ds.payloads[i] = content
	}

	var headerBuf, dataBuf bytes.Buffer
	if err := writeArchive(&headerBuf, &dataBuf, ds, cfg.level); err != nil {
		return nil, err
	}
	ds.header = headerBuf.Bytes()
	ds.data = dataBuf.Bytes()
	return ds, nil
}

func writeArchive(header, data *bytes.Buffer, ds *dataset, level int) error {
	w, err := zpack.NewWriter(header, data, zpack.CreateWithLevel(level))
	if err != nil {
		return err
	}
	for i, name := range ds.names {
		if _, err := w.WriteEntry(name, int16(i%32768), ds.payloads[i]); err != nil { //nolint:gosec // bounded by modulo
			return err
		}
	}
	return w.Close()
}

// openArchive opens the generated archive in memory, or over HTTP when a
// remote URL is configured. remote is nil for in-memory archives.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func openArchive(cfg config, ds *dataset) (*zpack.Reader, *remoteArchive, error) {
	if cfg.remoteURL != "" {
		return openRemote(cfg, ds)
	}
	r, err := zpack.NewReader(bytes.NewReader(ds.header), testutil.NewMockByteSource(ds.data))
	if err != nil {
		return nil, nil, err
	}
	return r, nil, nil
}
