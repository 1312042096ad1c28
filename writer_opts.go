package zpack

import "log/slog"

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// CreateWithLevel sets the zlib compression level (MinLevel..MaxLevel).
// The default is DefaultLevel.
func CreateWithLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// CreateWithLogger sets the logger for writer diagnostics.
func CreateWithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// CreateWithLeaveOpen keeps the header and data streams open when the
// Writer is closed.
func CreateWithLeaveOpen(leaveOpen bool) WriterOption {
	return func(w *Writer) {
		w.leaveOpen = leaveOpen
	}
}
