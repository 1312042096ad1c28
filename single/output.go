package single

import (
	"io"
	"path/filepath"

	"github.com/meigma/zpack/internal/batch"
)

// writeOutput writes a file atomically: fill writes into a temp file next
// to outPath, which replaces outPath only if fill succeeds.
func writeOutput(outPath string, fill func(io.Writer) error) error {
	sink, err := batch.NewFileSink(filepath.Dir(outPath), batch.WithOverwrite(true))
	if err != nil {
		return err
	}
	defer sink.Close()

	w, err := sink.Writer(batch.Item{Path: filepath.Base(outPath)})
	if err != nil {
		return err
	}
	if err := fill(w); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return err
	}
	return w.Commit()
}
