package zpack

import "log/slog"

// DefaultMaxEntrySize is the default ReadAll limit (256MB).
const DefaultMaxEntrySize = 256 << 20

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxEntrySize limits the uncompressed size ReadAll will allocate.
// Set limit to 0 to disable the limit. Streaming reads are not limited.
func WithMaxEntrySize(limit uint64) ReaderOption {
	return func(r *Reader) {
		r.maxEntrySize = limit
	}
}

// WithLogger sets the logger for reader diagnostics.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithLeaveOpen keeps the header and data streams open when the
// Reader is closed.
func WithLeaveOpen(leaveOpen bool) ReaderOption {
	return func(r *Reader) {
		r.leaveOpen = leaveOpen
	}
}
