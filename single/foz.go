package single

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/meigma/zpack"
	"github.com/meigma/zpack/internal/codec"
)

const (
	// FOZHeaderSize is the size of the fixed FOZ header.
	FOZHeaderSize = 32

	// FOZNameSize is the width of the zero-padded name field.
	FOZNameSize = 16

	// FOZSuffix is the extension of FOZ files.
	FOZSuffix = ".FOZ"
)

// FOZHeader is the fixed header at the start of a FOZ file.
type FOZHeader struct {
	// Name is the name of the file carried by the FOZ.
	Name string

	// Fields are opaque values preserved verbatim.
	Fields [4]int32
}

// FOZ is a decoded FOZ file.
type FOZ struct {
	FOZHeader

	// Data is the decompressed payload.
	Data []byte
}

// NewFOZ returns a FOZ carrying data under name, with the header fields
// set to their usual values.
func NewFOZ(name string, data []byte) *FOZ {
	return &FOZ{
		FOZHeader: FOZHeader{Name: name, Fields: [4]int32{1, 0, 0, 0}},
		Data:      data,
	}
}

// ParseFOZHeader decodes the first FOZHeaderSize bytes of b.
func ParseFOZHeader(b []byte) (FOZHeader, error) {
	if len(b) < FOZHeaderSize {
		return FOZHeader{}, fmt.Errorf("%w: foz header is %d bytes, need %d", zpack.ErrFormat, len(b), FOZHeaderSize)
	}
	name := b[:FOZNameSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if !utf8.Valid(name) {
		return FOZHeader{}, fmt.Errorf("%w: foz name is not UTF-8", zpack.ErrFormat)
	}
	h := FOZHeader{Name: string(name)}
	for i := range h.Fields {
		off := FOZNameSize + 4*i
		h.Fields[i] = int32(binary.LittleEndian.Uint32(b[off:])) //nolint:gosec // two's complement field
	}
	return h, nil
}

// Bytes encodes the header.
func (h FOZHeader) Bytes() ([]byte, error) {
	if len(h.Name) > FOZNameSize {
		return nil, fmt.Errorf("%w: %q is %d bytes, max %d", zpack.ErrNameTooLong, h.Name, len(h.Name), FOZNameSize)
	}
	if bytes.IndexByte([]byte(h.Name), 0) >= 0 {
		return nil, fmt.Errorf("%w: %q contains NUL", zpack.ErrInvalidName, h.Name)
	}
	b := make([]byte, FOZHeaderSize)
	copy(b, h.Name)
	for i, f := range h.Fields {
		binary.LittleEndian.PutUint32(b[FOZNameSize+4*i:], uint32(f)) //nolint:gosec // two's complement field
	}
	return b, nil
}

// ReadFOZHeader reads the header from the start of src.
func ReadFOZHeader(src io.ReaderAt) (FOZHeader, error) {
	var b [FOZHeaderSize]byte
	n, err := src.ReadAt(b[:], 0)
	if n < len(b) {
		if err == nil || errors.Is(err, io.EOF) {
			return FOZHeader{}, fmt.Errorf("%w: truncated foz header", zpack.ErrFormat)
		}
		return FOZHeader{}, err
	}
	return ParseFOZHeader(b[:])
}

// ReadFOZ decodes a FOZ file of size bytes. The payload is inflated from
// the bytes between the header and size only.
func ReadFOZ(src io.ReaderAt, size int64) (*FOZ, error) {
	if size < FOZHeaderSize {
		return nil, fmt.Errorf("%w: foz file is %d bytes, need %d", zpack.ErrFormat, size, FOZHeaderSize)
	}
	h, err := ReadFOZHeader(src)
	if err != nil {
		return nil, err
	}
	data, err := codec.DecompressWindow(src, FOZHeaderSize, size-FOZHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("foz %q: %w", h.Name, err)
	}
	return &FOZ{FOZHeader: h, Data: data}, nil
}

// WriteTo encodes the FOZ into w at the default compression level.
func (f *FOZ) WriteTo(w io.Writer) (int64, error) {
	return f.Encode(w, zpack.DefaultLevel)
}

// Encode writes the header followed by the payload compressed at level.
func (f *FOZ) Encode(w io.Writer, level int) (int64, error) {
	hdr, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(hdr)
	if err != nil {
		return int64(n), err
	}
	written, err := codec.Compress(w, f.Data, codec.WithLevel(level))
	return int64(n) + written, err
}

// ExtractFOZFile inflates the FOZ file at path into outDir, under the name
// stored in its header, and returns the path written. The name must be a
// single path element.
func ExtractFOZFile(path, outDir string) (string, error) {
	in, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return "", err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", err
	}
	h, err := ReadFOZHeader(in)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if !fs.ValidPath(h.Name) || h.Name == "." || filepath.Base(h.Name) != h.Name {
		return "", fmt.Errorf("%s: %w: unusable name %q", path, zpack.ErrFormat, h.Name)
	}

	outPath := filepath.Join(outDir, h.Name)
	err = writeOutput(outPath, func(w io.Writer) error {
		_, err := codec.DecompressWindowTo(w, in, FOZHeaderSize, info.Size()-FOZHeaderSize)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}
