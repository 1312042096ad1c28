package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/zpack/internal/sizing"
)

// openWindow returns an inflater restricted to src[start:start+length].
// A zero-length window yields a nil reader.
func openWindow(src io.ReaderAt, start, length int64, raw bool) (io.Reader, func(), error) {
	if start < 0 || length < 0 {
		return nil, nil, fmt.Errorf("%w: invalid window [%d, +%d)", ErrCodec, start, length)
	}
	if length == 0 {
		return nil, func() {}, nil
	}
	section := io.NewSectionReader(src, start, length)
	dec, release, err := getReader(section, raw)
	if err != nil {
		return nil, nil, wrapInflateErr(err)
	}
	return dec, release, nil
}

// wrapInflateErr tags err as a codec failure while keeping the cause
// (for example os.ErrClosed) matchable.
func wrapInflateErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated stream", ErrCodec)
	}
	return fmt.Errorf("%w: %w", ErrCodec, err)
}

// exactReader yields exactly want bytes from an inflater and fails with
// ErrCodec if the stream is shorter or longer than that.
type exactReader struct {
	dec     io.Reader
	want    int64
	remain  int64
	release func()
	err     error
}

// NewExactReader returns a reader over the decompressed content of the
// window src[start:start+length], which must inflate to exactly expected
// bytes. Close must be called to return the inflater to its pool.
func NewExactReader(src io.ReaderAt, start, length, expected int64, opts ...Option) (io.ReadCloser, error) {
	if expected < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrCodec, expected)
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	dec, release, err := openWindow(src, start, length, cfg.raw)
	if err != nil {
		return nil, err
	}
	return &exactReader{dec: dec, want: expected, remain: expected, release: release}, nil
}

// Read implements io.Reader.
func (r *exactReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.remain == 0 {
		r.err = r.checkEnd()
		return 0, r.err
	}
	if r.dec == nil {
		r.err = fmt.Errorf("%w: empty window for %d bytes", ErrCodec, r.want)
		return 0, r.err
	}
	if int64(len(p)) > r.remain {
		p = p[:r.remain]
	}
	n, err := r.dec.Read(p)
	r.remain -= int64(n)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, io.EOF) && r.remain == 0 {
		return n, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		r.err = fmt.Errorf("%w: inflated %d of %d bytes", ErrCodec, r.want-r.remain, r.want)
	} else {
		r.err = fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return n, r.err
}

// checkEnd confirms the stream ends where declared. Reading past the last
// byte also makes the zlib reader verify its checksum.
func (r *exactReader) checkEnd() error {
	if r.dec == nil {
		return io.EOF
	}
	var one [1]byte
	for {
		n, err := r.dec.Read(one[:])
		if n > 0 {
			return fmt.Errorf("%w: stream exceeds declared size %d", ErrCodec, r.want)
		}
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCodec, err)
		}
	}
}

// Close implements io.Closer.
func (r *exactReader) Close() error {
	if r.release != nil {
		r.release()
		r.release = nil
	}
	if r.err == nil {
		r.err = errors.New("zpack: read after close")
	}
	return nil
}

// DecompressExact inflates the window src[start:start+length] and returns
// exactly expected bytes. A stream that inflates to fewer or more bytes is
// an ErrCodec; the result is never padded.
func DecompressExact(src io.ReaderAt, start, length, expected int64, opts ...Option) ([]byte, error) {
	r, err := NewExactReader(src, start, length, expected, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	n, err := sizing.ToInt(expected, fmt.Errorf("%w: entry of %d bytes does not fit in memory", ErrCodec, expected))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	if _, err := r.Read(nil); !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}

// DecompressExactTo is DecompressExact streaming into dst through a fixed
// buffer. Errors returned by dst are passed through unwrapped.
func DecompressExactTo(dst io.Writer, src io.ReaderAt, start, length, expected int64, opts ...Option) (int64, error) {
	r, err := NewExactReader(src, start, length, expected, opts...)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	buf, putBuf := getBuffer()
	defer putBuf()
	return io.CopyBuffer(onlyWriter{dst}, r, *buf)
}

// DecompressWindow inflates the whole window src[start:start+length] when
// the decompressed size is not recorded anywhere.
func DecompressWindow(src io.ReaderAt, start, length int64, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	dec, release, err := openWindow(src, start, length, cfg.raw)
	if err != nil {
		return nil, err
	}
	defer release()
	if dec == nil {
		return []byte{}, nil
	}
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, wrapInflateErr(err)
	}
	return out, nil
}

// DecompressWindowTo is DecompressWindow streaming into dst.
func DecompressWindowTo(dst io.Writer, src io.ReaderAt, start, length int64, opts ...Option) (int64, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return 0, err
	}
	dec, release, err := openWindow(src, start, length, cfg.raw)
	if err != nil {
		return 0, err
	}
	defer release()
	if dec == nil {
		return 0, nil
	}
	return pump(dst, dec)
}

// DecompressAll inflates src until the end of the compressed stream.
// It is meant for single-blob files, never for entries inside an archive.
func DecompressAll(src io.Reader, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	dec, release, err := getReader(src, cfg.raw)
	if err != nil {
		return nil, wrapInflateErr(err)
	}
	defer release()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, wrapInflateErr(err)
	}
	return out, nil
}

// DecompressAllTo is DecompressAll streaming into dst.
func DecompressAllTo(dst io.Writer, src io.Reader, opts ...Option) (int64, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return 0, err
	}
	dec, release, err := getReader(src, cfg.raw)
	if err != nil {
		return 0, wrapInflateErr(err)
	}
	defer release()
	return pump(dst, dec)
}

// pump copies an inflater into dst, tagging read-side failures as ErrCodec.
func pump(dst io.Writer, dec io.Reader) (int64, error) {
	buf, putBuf := getBuffer()
	defer putBuf()
	return io.CopyBuffer(onlyWriter{dst}, codecErrReader{dec}, *buf)
}

// onlyWriter hides ReadFrom so io.CopyBuffer keeps to the fixed buffer.
type onlyWriter struct {
	io.Writer
}

// codecErrReader tags non-EOF read errors as ErrCodec.
type codecErrReader struct {
	r io.Reader
}

func (c codecErrReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, wrapInflateErr(err)
	}
	return n, err
}
