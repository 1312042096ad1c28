package batch

import "fmt"

// ProcessStats contains statistics from a batch processing operation.
type ProcessStats struct {
	// Processed is the number of items successfully written to the sink.
	Processed int

	// Skipped is the number of items skipped (ShouldProcess returned false).
	Skipped int

	// Failed is the number of items that failed when errors are tolerated.
	Failed int

	// TotalBytes is the number of content bytes written for processed items.
	TotalBytes int64

	// Failures holds one error per failed item, in completion order.
	Failures []error
}

// ItemError reports the failure of one item.
type ItemError struct {
	Name string
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("batch: %s -> %s: %v", e.Name, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
