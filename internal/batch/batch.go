// Package batch writes many items to a sink with bounded parallelism.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result describes one finished item. It is passed to the ProgressFunc.
type Result struct {
	Item    Item
	Bytes   int64
	Skipped bool
	Err     error

	// Done is the number of items finished so far, including this one.
	Done  int
	Total int
}

// ProgressFunc is called once per finished item. Calls are serialized.
type ProgressFunc func(Result)

// Processor writes items to a sink.
type Processor struct {
	workers         int // 0 = GOMAXPROCS, <0 = serial, >0 = fixed count
	continueOnError bool
	progress        ProgressFunc
	logger          *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of workers for parallel processing.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithContinueOnError records item failures in the stats instead of
// stopping at the first one.
func WithContinueOnError(enabled bool) ProcessorOption {
	return func(p *Processor) {
		p.continueOnError = enabled
	}
}

// WithProgress sets a callback invoked after each item.
func WithProgress(fn ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// WithProcessorLogger sets the logger for batch processing operations.
// If not set, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a new batch processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process writes every item to the sink.
//
// Without WithContinueOnError processing stops at the first failure and the
// error is returned; items already committed stay in the sink. Cancelling
// ctx stops scheduling new items.
func (p *Processor) Process(ctx context.Context, items []Item, sink Sink) (ProcessStats, error) {
	var (
		mu    sync.Mutex
		stats ProcessStats
		done  int
	)
	report := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		done++
		switch {
		case r.Skipped:
			stats.Skipped++
		case r.Err != nil:
			stats.Failed++
			stats.Failures = append(stats.Failures, r.Err)
		default:
			stats.Processed++
			stats.TotalBytes += r.Bytes
		}
		if p.progress != nil {
			r.Done = done
			r.Total = len(items)
			p.progress(r)
		}
	}

	workers := p.workerCount(len(items))
	p.log().Debug("batch processing", "items", len(items), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range items {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !sink.ShouldProcess(item) {
				report(Result{Item: item, Skipped: true})
				return nil
			}
			n, err := p.processItem(item, sink)
			if err != nil {
				err = &ItemError{Name: item.Source.Name(), Path: item.Path, Err: err}
				report(Result{Item: item, Err: err})
				if p.continueOnError {
					p.log().Warn("item failed", "name", item.Source.Name(), "path", item.Path, "error", err)
					return nil
				}
				return err
			}
			report(Result{Item: item, Bytes: n})
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return stats, err
}

// processItem streams one item into a committer from the sink.
func (p *Processor) processItem(item Item, sink Sink) (int64, error) {
	w, err := sink.Writer(item)
	if err != nil {
		return 0, err
	}
	n, err := item.Source.WriteTo(w)
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return n, err
	}
	if err := w.Commit(); err != nil {
		return n, err
	}
	return n, nil
}

// workerCount determines the number of workers to use.
func (p *Processor) workerCount(items int) int {
	if p.workers < 0 || items < 2 {
		return 1
	}
	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return max(1, min(workers, items))
}
