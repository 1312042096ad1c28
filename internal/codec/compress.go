package codec

import (
	"io"
)

// Compress writes src to dst as one complete compressed block and returns
// the number of bytes written to dst.
func Compress(dst io.Writer, src []byte, opts ...Option) (int64, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: dst}
	enc, release, err := getWriter(cw, cfg)
	if err != nil {
		return 0, err
	}
	defer release()

	if _, err := enc.Write(src); err != nil {
		return cw.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// CompressFrom streams src into dst as one complete compressed block.
// It returns the number of compressed bytes written and the number of
// source bytes consumed. Memory use is bounded by a fixed copy buffer.
func CompressFrom(dst io.Writer, src io.Reader, opts ...Option) (written, read int64, err error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return 0, 0, err
	}

	cw := &countingWriter{w: dst}
	cr := &countingReader{r: src}
	enc, release, err := getWriter(cw, cfg)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	buf, putBuf := getBuffer()
	defer putBuf()

	// Hide any ReadFrom on the encoder so the fixed buffer is used.
	if _, err := io.CopyBuffer(struct{ io.Writer }{enc}, cr, *buf); err != nil {
		return cw.n, cr.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, cr.n, err
	}
	return cw.n, cr.n, nil
}
