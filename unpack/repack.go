package unpack

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/zpack"
)

// Repack rebuilds an archive from a directory written by Unpack.
//
// The manifest in inDir fixes the order, names and tags of the entries and
// the header and data file names, which are created in outDir. Every entry
// file is checked before anything is written; a missing file fails with an
// fs.ErrNotExist path error. Existing archive files are moved to *.bak first
// unless WithBackup(false) is given. The new files only appear once the
// archive is complete.
func Repack(ctx context.Context, inDir, outDir string, opts ...Option) (Stats, error) {
	cfg := newConfig(opts)
	log := cfg.log()

	cfg.report(ProgressEvent{Stage: StageReadingIndex})
	m, err := LoadManifest(inDir)
	if err != nil {
		return Stats{}, fmt.Errorf("repack: %w", err)
	}
	if m.Decoder != Decoder {
		log.Warn("unrecognized manifest decoder", "decoder", m.Decoder)
	}

	headerName, dataName := m.HeaderName, m.DataName
	if headerName == "" {
		headerName = zpack.DefaultHeaderName
	}
	if dataName == "" {
		dataName = zpack.DefaultDataName
	}
	for _, name := range []string{headerName, dataName} {
		if !isPlainName(name) {
			return Stats{}, fmt.Errorf("repack: %w: archive file name %q", ErrManifest, name)
		}
	}

	stats := Stats{Entries: len(m.Entries)}
	paths := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		if e.Dummy {
			continue
		}
		file := e.File()
		if !isPlainName(file) {
			return stats, fmt.Errorf("repack: %w: entry %q file %q", ErrManifest, e.Name, file)
		}
		paths[i] = filepath.Join(inDir, file)
		info, err := os.Stat(paths[i])
		if err != nil {
			return stats, fmt.Errorf("repack: entry %q: %w", e.Name, err)
		}
		if !info.Mode().IsRegular() {
			return stats, fmt.Errorf("repack: entry %q: %w", e.Name,
				&fs.PathError{Op: "open", Path: paths[i], Err: fs.ErrInvalid})
		}
	}

	headerPath := filepath.Join(outDir, headerName)
	dataPath := filepath.Join(outDir, dataName)
	if cfg.backup {
		for _, p := range []string{headerPath, dataPath} {
			made, err := Backup(p)
			if err != nil {
				return stats, fmt.Errorf("repack: %w", err)
			}
			if made {
				log.Info("backed up archive file", "path", p+BackupSuffix)
			}
		}
	}

	w, err := zpack.CreateFile(headerPath, dataPath,
		zpack.CreateWithLevel(cfg.level),
		zpack.CreateWithLogger(cfg.logger),
	)
	if err != nil {
		return stats, fmt.Errorf("repack: %w", err)
	}

	total := len(m.Entries)
	for i, e := range m.Entries {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return stats, err
		}
		if e.Dummy {
			_, err = w.WriteDummy(e.Name, e.Tag)
			stats.Dummies++
		} else {
			var d zpack.Descriptor
			d, err = w.WriteFile(paths[i], e.Name, e.Tag)
			if err == nil {
				stats.Written++
				stats.Bytes += int64(d.UncompressedSize)
			}
		}
		if err == nil && e.Presence != 0 && e.Presence != zpack.PresenceNormal {
			err = w.SetPresence(w.Count()-1, e.Presence)
		}
		if err != nil {
			w.Abort()
			return stats, fmt.Errorf("repack: entry %q: %w", e.Name, err)
		}
		cfg.report(ProgressEvent{
			Stage:        StageCompressing,
			Name:         e.Name,
			EntriesDone:  i + 1,
			EntriesTotal: total,
			BytesDone:    stats.Bytes,
		})
	}

	cfg.report(ProgressEvent{Stage: StageFinishing, EntriesDone: total, EntriesTotal: total, BytesDone: stats.Bytes})
	if err := w.Close(); err != nil {
		return stats, fmt.Errorf("repack: %w", err)
	}
	log.Info("archive repacked",
		"header", headerPath,
		"data", dataPath,
		"entries", stats.Entries,
		"dummies", stats.Dummies,
		"bytes", stats.Bytes,
	)
	return stats, nil
}

// isPlainName reports whether name is a single relative path element.
func isPlainName(name string) bool {
	return fs.ValidPath(name) && name != "." && filepath.Base(name) == name
}
