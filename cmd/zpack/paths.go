package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/zpack/single"
	"github.com/meigma/zpack/unpack"
)

// archivePaths returns the header and data file of the archive that path
// belongs to. path may name either file; the other is expected next to it.
func archivePaths(path, headerName, dataName string) (headerPath, dataPath string, err error) {
	dir := filepath.Dir(path)
	switch {
	case strings.HasSuffix(path, dataName):
		headerPath, dataPath = filepath.Join(dir, headerName), path
	case strings.HasSuffix(path, headerName):
		headerPath, dataPath = path, filepath.Join(dir, dataName)
	default:
		return "", "", fmt.Errorf("%s: not a %s or %s file", path, headerName, dataName)
	}
	for _, p := range []string{headerPath, dataPath} {
		if _, err := os.Stat(p); err != nil {
			return "", "", fmt.Errorf("could not find archive file: %w", err)
		}
	}
	return headerPath, dataPath, nil
}

// repackDirs returns the unpacked directory and the directory the archive
// is rebuilt in, given the unpacked directory or its manifest. The archive
// goes next to the unpacked directory unless out is set.
func repackDirs(path, out string) (inDir, outDir string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}
	inDir = filepath.Clean(path)
	if !info.IsDir() {
		if filepath.Base(path) != unpack.ManifestName {
			return "", "", fmt.Errorf("%s: not a directory or %s", path, unpack.ManifestName)
		}
		inDir = filepath.Dir(inDir)
	}
	outDir = out
	if outDir == "" {
		abs, err := filepath.Abs(inDir)
		if err != nil {
			return "", "", err
		}
		outDir = filepath.Dir(abs)
	}
	return inDir, outDir, nil
}

type action int

const (
	actionNone action = iota
	actionUnpack
	actionRepack
	actionGSTDecompress
	actionGSTCompress
	actionFOZExtract
)

func (a action) String() string {
	switch a {
	case actionUnpack:
		return "Unpacking ZPACK"
	case actionRepack:
		return "Repacking ZPACK"
	case actionGSTDecompress:
		return "Decompressing GST"
	case actionGSTCompress:
		return "Compressing GST"
	case actionFOZExtract:
		return "Unpacking FOZ"
	default:
		return "Skipping"
	}
}

// classify decides what auto does with path, going by its name.
func classify(path, headerName, dataName string) (action, error) {
	info, err := os.Stat(path)
	if err != nil {
		return actionNone, err
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(path, unpack.ManifestName))
		switch {
		case err == nil:
			return actionRepack, nil
		case errors.Is(err, fs.ErrNotExist):
			return actionNone, nil
		default:
			return actionNone, err
		}
	}
	switch {
	case strings.HasSuffix(path, dataName), strings.HasSuffix(path, headerName):
		return actionUnpack, nil
	case strings.HasSuffix(path, single.GSTSuffix):
		return actionGSTDecompress, nil
	case strings.HasSuffix(path, single.GSTSuffix+single.DecompressedSuffix):
		return actionGSTCompress, nil
	case strings.HasSuffix(path, single.FOZSuffix):
		return actionFOZExtract, nil
	case filepath.Base(path) == unpack.ManifestName:
		return actionRepack, nil
	default:
		return actionNone, nil
	}
}
