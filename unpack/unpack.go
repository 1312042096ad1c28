package unpack

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meigma/zpack"
	"github.com/meigma/zpack/internal/batch"
)

// Stats summarizes an Unpack or Repack.
type Stats struct {
	// Entries is the number of table entries, dummies included.
	Entries int

	// Written is the number of entries extracted or packed.
	Written int

	// Dummies is the number of entries without a payload.
	Dummies int

	// Skipped is the number of existing files left alone.
	Skipped int

	// Failed is the number of entries that failed under WithContinueOnError.
	Failed int

	// Bytes is the total uncompressed size of written entries.
	Bytes int64

	// Failures holds one error per failed entry.
	Failures []error
}

// Unpack extracts every entry of r into outDir and writes the manifest.
//
// Files are written atomically. Entries sharing a name are disambiguated as
// "STEM (n).EXT" and the manifest records the file each entry went to.
// Dummy entries produce no file. The manifest is written last, and only if
// extraction did not stop on an error.
func Unpack(ctx context.Context, r *zpack.Reader, outDir string, opts ...Option) (*Manifest, Stats, error) {
	cfg := newConfig(opts)
	log := cfg.log()

	cfg.report(ProgressEvent{Stage: StageReadingIndex, EntriesTotal: r.Len()})

	m := &Manifest{
		Decoder:    Decoder,
		HeaderName: zpack.DefaultHeaderName,
		DataName:   zpack.DefaultDataName,
		Entries:    make([]ManifestEntry, 0, r.Len()),
	}
	if cfg.headerName != "" {
		m.HeaderName = cfg.headerName
	}
	if cfg.dataName != "" {
		m.DataName = cfg.dataName
	}

	var (
		stats Stats
		items []batch.Item
		names = newNameAllocator()
	)
	for e := range r.Entries() {
		stats.Entries++
		me := ManifestEntry{Name: e.Name(), Tag: e.Tag()}
		if p := e.Descriptor().Presence; p != zpack.PresenceNormal {
			me.Presence = p
		}
		if e.IsDummy() {
			me.Dummy = true
			stats.Dummies++
			m.Entries = append(m.Entries, me)
			continue
		}
		file := names.allocate(e.Name(), e.Index())
		if file != e.Name() {
			me.Filename = file
		}
		m.Entries = append(m.Entries, me)
		items = append(items, batch.Item{Source: e, Path: file})
	}

	sink, err := batch.NewFileSink(outDir, batch.WithOverwrite(cfg.overwrite))
	if err != nil {
		return nil, stats, err
	}
	defer sink.Close()

	var bytesDone int64
	proc := batch.NewProcessor(
		batch.WithWorkers(cfg.workers),
		batch.WithContinueOnError(cfg.continueOnError),
		batch.WithProcessorLogger(cfg.logger),
		batch.WithProgress(func(res batch.Result) {
			bytesDone += res.Bytes
			cfg.report(ProgressEvent{
				Stage:        StageExtracting,
				Name:         res.Item.Source.Name(),
				EntriesDone:  res.Done,
				EntriesTotal: res.Total,
				BytesDone:    bytesDone,
			})
		}),
	)
	ps, err := proc.Process(ctx, items, sink)
	stats.Written = ps.Processed
	stats.Skipped = ps.Skipped
	stats.Failed = ps.Failed
	stats.Bytes = ps.TotalBytes
	stats.Failures = ps.Failures
	if err != nil {
		return nil, stats, fmt.Errorf("unpack: %w", err)
	}

	cfg.report(ProgressEvent{Stage: StageFinishing, EntriesDone: len(items), EntriesTotal: len(items), BytesDone: bytesDone})
	if err := m.Save(outDir); err != nil {
		return nil, stats, fmt.Errorf("unpack: write manifest: %w", err)
	}
	log.Info("archive unpacked",
		"dir", outDir,
		"entries", stats.Entries,
		"written", stats.Written,
		"dummies", stats.Dummies,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"bytes", stats.Bytes,
	)
	return m, stats, nil
}

// UnpackFiles opens the archive at headerPath and dataPath and unpacks it
// into outDir. The manifest records the base names of both files.
func UnpackFiles(ctx context.Context, headerPath, dataPath, outDir string, opts ...Option) (*Manifest, Stats, error) {
	cfg := newConfig(opts)
	r, err := zpack.OpenFile(headerPath, dataPath, zpack.WithLogger(cfg.logger))
	if err != nil {
		return nil, Stats{}, err
	}
	defer r.Close()

	opts = append([]Option{WithNames(filepath.Base(headerPath), filepath.Base(dataPath))}, opts...)
	return Unpack(ctx, r, outDir, opts...)
}

// DefaultOutDir returns the directory Unpack writes to by convention: the
// data file name with dots replaced by dashes, next to the data file
// (BG3ZPACK.ARC unpacks into BG3ZPACK-ARC).
func DefaultOutDir(dataPath string) string {
	name := strings.ReplaceAll(filepath.Base(dataPath), ".", "-")
	return filepath.Join(filepath.Dir(dataPath), name)
}
