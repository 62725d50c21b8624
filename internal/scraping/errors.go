package scraping

import (
	"errors"
	"fmt"
)

// ErrQueueClosed is returned by Queue.Dequeue once the queue has been closed.
var ErrQueueClosed = errors.New("task queue closed")

// ConfigurationError reports an invalid task list or worker bounds at
// submission time. It is fatal to a run; no partial execution happens.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// PoolExhaustionError reports that fewer than the minimum number of workers
// could be started.
type PoolExhaustionError struct {
	Started int
	Min     int
}

func (e *PoolExhaustionError) Error() string {
	return fmt.Sprintf("pool exhausted: started %d of %d minimum workers", e.Started, e.Min)
}

// ResolutionError reports a task type the selector does not recognize. It is
// recorded as a failed result for that task with no retries.
type ResolutionError struct {
	Type TaskType
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unsupported task type %q", e.Type)
}

// IsResolutionError reports whether err stems from scraper resolution.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
