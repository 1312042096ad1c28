package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// resetWriter is satisfied by both *zlib.Writer and *flate.Writer.
type resetWriter interface {
	io.WriteCloser
	Reset(w io.Writer)
}

// resetReader is satisfied by the readers returned from zlib.NewReader
// and flate.NewReader.
type resetReader interface {
	io.ReadCloser
	Reset(r io.Reader, dict []byte) error
}

// Encoder pools are indexed by level-MinLevel.
var (
	zlibWriters  [MaxLevel - MinLevel + 1]sync.Pool
	flateWriters [MaxLevel - MinLevel + 1]sync.Pool

	zlibReaders  sync.Pool
	flateReaders sync.Pool

	buffers = sync.Pool{
		New: func() any {
			b := make([]byte, bufferSize)
			return &b
		},
	}
)

// getWriter returns an encoder writing to w.
// The caller must call the returned release function when done.
func getWriter(w io.Writer, cfg config) (resetWriter, func(), error) {
	pools := &zlibWriters
	if cfg.raw {
		pools = &flateWriters
	}
	pool := &pools[cfg.level-MinLevel]

	if enc, ok := pool.Get().(resetWriter); ok {
		enc.Reset(w)
		return enc, func() { pool.Put(enc) }, nil
	}

	var (
		enc resetWriter
		err error
	)
	if cfg.raw {
		enc, err = flate.NewWriter(w, cfg.level)
	} else {
		enc, err = zlib.NewWriterLevel(w, cfg.level)
	}
	if err != nil {
		return nil, nil, err
	}
	return enc, func() { pool.Put(enc) }, nil
}

// getReader returns an inflater reading from r. For zlib streams the header
// is consumed before getReader returns, so a malformed header fails here.
// If an error is returned, no release function needs to be called.
func getReader(r io.Reader, raw bool) (io.Reader, func(), error) {
	pool := &zlibReaders
	if raw {
		pool = &flateReaders
	}

	if dec, ok := pool.Get().(resetReader); ok {
		if err := dec.Reset(r, nil); err != nil {
			// Reset failed; let this one be collected.
			return nil, nil, err
		}
		return dec, func() { pool.Put(dec) }, nil
	}

	var (
		dec io.ReadCloser
		err error
	)
	if raw {
		dec = flate.NewReader(r)
	} else {
		dec, err = zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
	}
	rr, ok := dec.(resetReader)
	if !ok {
		return dec, func() { _ = dec.Close() }, nil
	}
	return rr, func() { pool.Put(rr) }, nil
}

func getBuffer() (*[]byte, func()) {
	buf, _ := buffers.Get().(*[]byte)
	return buf, func() { buffers.Put(buf) }
}
