package single

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meigma/zpack/internal/codec"
)

// GSTSuffix is the extension of compressed GST files.
const GSTSuffix = ".GST"

// DecompressedSuffix is appended to a GST file name when it is decompressed.
const DecompressedSuffix = ".DE"

// DecompressGST inflates the GST stream read from src into dst and returns
// the number of bytes written.
func DecompressGST(dst io.Writer, src io.Reader) (int64, error) {
	return codec.DecompressAllTo(dst, src)
}

// CompressGST deflates everything read from src into dst as a GST stream
// and returns the number of compressed bytes written.
func CompressGST(dst io.Writer, src io.Reader, level int) (int64, error) {
	written, _, err := codec.CompressFrom(dst, src, codec.WithLevel(level))
	return written, err
}

// DecompressGSTFile inflates the GST file at path into outPath.
func DecompressGSTFile(path, outPath string) error {
	in, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return err
	}
	defer in.Close()

	return writeOutput(outPath, func(w io.Writer) error {
		if _, err := DecompressGST(w, in); err != nil {
			return fmt.Errorf("decompress %s: %w", path, err)
		}
		return nil
	})
}

// CompressGSTFile deflates the file at path into the GST file outPath.
func CompressGSTFile(path, outPath string, level int) error {
	in, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return err
	}
	defer in.Close()

	return writeOutput(outPath, func(w io.Writer) error {
		if _, err := CompressGST(w, in, level); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		return nil
	})
}

// DecompressedGSTPath returns where DecompressGSTFile writes by convention:
// X.GST becomes X.GST.DE.
func DecompressedGSTPath(path string) string {
	return path + DecompressedSuffix
}

// CompressedGSTPath reverses DecompressedGSTPath: X.GST.DE becomes X.GST.
// Other names get GSTSuffix appended.
func CompressedGSTPath(path string) string {
	if base, ok := strings.CutSuffix(path, DecompressedSuffix); ok {
		return base
	}
	return path + GSTSuffix
}
