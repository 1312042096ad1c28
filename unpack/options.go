package unpack

import (
	"log/slog"

	"github.com/meigma/zpack"
)

type config struct {
	workers         int
	overwrite       bool
	continueOnError bool
	level           int
	backup          bool
	headerName      string
	dataName        string
	progress        ProgressFunc
	logger          *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		overwrite: true,
		level:     zpack.DefaultLevel,
		backup:    true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func (c *config) report(ev ProgressEvent) {
	if c.progress != nil {
		c.progress(ev)
	}
}

// Option configures Unpack and Repack.
type Option func(*config)

// WithWorkers sets the number of entries extracted in parallel.
// Values < 0 force serial extraction. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithOverwrite controls whether Unpack replaces existing files (default true).
// When false, existing files are left alone and counted as skipped.
func WithOverwrite(overwrite bool) Option {
	return func(c *config) {
		c.overwrite = overwrite
	}
}

// WithContinueOnError makes Unpack record failed entries in Stats and carry
// on instead of stopping at the first failure.
func WithContinueOnError(enabled bool) Option {
	return func(c *config) {
		c.continueOnError = enabled
	}
}

// WithLevel sets the zlib compression level used by Repack.
func WithLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithBackup controls whether Repack renames existing archive files to
// *.bak before writing (default true). An existing backup is never replaced.
func WithBackup(enabled bool) Option {
	return func(c *config) {
		c.backup = enabled
	}
}

// WithNames sets the header and data file names recorded in the manifest
// by Unpack. Empty values keep the defaults.
func WithNames(headerName, dataName string) Option {
	return func(c *config) {
		if headerName != "" {
			c.headerName = headerName
		}
		if dataName != "" {
			c.dataName = dataName
		}
	}
}

// WithProgress sets a callback for progress updates.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithLogger sets the logger. If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
