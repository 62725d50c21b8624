package scraping

import (
	"context"
	"time"
)

// Scraper fetches one URL and returns structured records. Implementations
// own their timeout behavior; the scheduler only bounds attempt counts.
type Scraper interface {
	Scrape(ctx context.Context, url, searchWord string) ([]Record, error)
}

// Selector resolves a task type to a Scraper. Resolution failure is a
// configuration problem, never retried.
type Selector interface {
	Resolve(taskType TaskType, searchWord string) (Scraper, error)
	Validate(taskType TaskType) bool
}

// Queue provides priority-ordered hand-off of tasks to workers. Dequeue
// blocks until a task is available, the context ends, or the queue closes.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
	Len() int
	Close()
}

// RateLimiter throttles outbound requests across the whole pool.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// ResultStore persists finished results.
type ResultStore interface {
	SaveResult(ctx context.Context, runID string, result Result) error
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
