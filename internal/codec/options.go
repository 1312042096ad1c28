package codec

import (
	"fmt"

	"github.com/klauspost/compress/zlib"
)

const (
	// DefaultLevel is the zlib default compression level.
	DefaultLevel = zlib.DefaultCompression

	// MinLevel and MaxLevel bound the accepted compression levels.
	MinLevel = zlib.HuffmanOnly
	MaxLevel = zlib.BestCompression

	// bufferSize is the fixed copy buffer used by streaming paths.
	bufferSize = 32 << 10
)

type config struct {
	level int
	raw   bool
}

// Option configures a codec operation.
type Option func(*config)

// WithLevel sets the compression level (MinLevel..MaxLevel).
// It is ignored by decompression.
func WithLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithRaw selects raw deflate (no zlib header or Adler-32 footer).
func WithRaw(raw bool) Option {
	return func(c *config) {
		c.raw = raw
	}
}

func newConfig(opts []Option) (config, error) {
	cfg := config{level: DefaultLevel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.level < MinLevel || cfg.level > MaxLevel {
		return cfg, fmt.Errorf("%w: %d", ErrInvalidLevel, cfg.level)
	}
	return cfg, nil
}
