package zpack

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// OpenFile opens the archive stored in headerPath and dataPath.
//
// The header is decoded and closed before OpenFile returns; the data file
// stays open for random access until the Reader is closed.
func OpenFile(headerPath, dataPath string, opts ...ReaderOption) (*Reader, error) {
	headerFile, err := os.Open(headerPath) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open header file: %w", err)
	}
	defer headerFile.Close()

	dataFile, err := os.Open(dataPath) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}

	opts = append(opts, WithLeaveOpen(false))
	r, err := NewReader(bufio.NewReaderSize(headerFile, 64<<10), dataFile, opts...)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("%s: %w", headerPath, err)
	}
	return r, nil
}

// CreateFile returns a Writer that builds the archive in temporary files
// next to headerPath and dataPath. Close finishes the archive and renames
// both files into place; if anything failed the temporary files are
// removed and existing files at the target paths are left untouched.
// Parent directories are created as needed.
func CreateFile(headerPath, dataPath string, opts ...WriterOption) (*Writer, error) {
	headerTmp, err := createTemp(headerPath)
	if err != nil {
		return nil, fmt.Errorf("create header file: %w", err)
	}
	dataTmp, err := createTemp(dataPath)
	if err != nil {
		discardTemp(headerTmp)
		return nil, fmt.Errorf("create data file: %w", err)
	}

	opts = append(opts, CreateWithLeaveOpen(true))
	w, err := NewWriter(headerTmp, dataTmp, opts...)
	if err != nil {
		discardTemp(headerTmp)
		discardTemp(dataTmp)
		return nil, err
	}

	w.onClose = func(failed error) error {
		closeErr := errors.Join(headerTmp.Close(), dataTmp.Close())
		if failed != nil || closeErr != nil {
			os.Remove(headerTmp.Name())
			os.Remove(dataTmp.Name())
			if failed != nil && !errors.Is(failed, errAborted) {
				closeErr = errors.Join(closeErr, fmt.Errorf("archive discarded: %w", failed))
			}
			return closeErr
		}
		if err := os.Rename(dataTmp.Name(), dataPath); err != nil {
			os.Remove(headerTmp.Name())
			os.Remove(dataTmp.Name())
			return fmt.Errorf("commit data file: %w", err)
		}
		if err := os.Rename(headerTmp.Name(), headerPath); err != nil {
			os.Remove(headerTmp.Name())
			return fmt.Errorf("commit header file: %w", err)
		}
		return nil
	}
	return w, nil
}

func createTemp(target string) (*os.File, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return os.CreateTemp(dir, ".zpack-*")
}

func discardTemp(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}
