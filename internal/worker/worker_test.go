package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	queuememory "github.com/newsharvest/harvestd/internal/queue/memory"
	"github.com/newsharvest/harvestd/internal/scraping"
)

type countingScraper struct {
	mu       sync.Mutex
	attempts int
	failures int
	panics   bool
	records  []scraping.Record
}

func (s *countingScraper) Scrape(_ context.Context, _, _ string) ([]scraping.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.panics {
		panic("scraper blew up")
	}
	if s.attempts <= s.failures {
		return nil, errors.New("transient error")
	}
	return s.records, nil
}

func (s *countingScraper) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

type fakeSelector struct {
	scraper scraping.Scraper
}

func (f *fakeSelector) Resolve(taskType scraping.TaskType, _ string) (scraping.Scraper, error) {
	if f.scraper == nil {
		return nil, &scraping.ResolutionError{Type: taskType}
	}
	return f.scraper, nil
}

func (f *fakeSelector) Validate(_ scraping.TaskType) bool {
	return f.scraper != nil
}

type countingLimiter struct {
	mu    sync.Mutex
	waits int
}

func (l *countingLimiter) Wait(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waits++
	return nil
}

func (l *countingLimiter) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waits
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(10 * time.Millisecond)
	return c.now
}

type zeroBackoff struct {
	maxAttempts int
}

func (p zeroBackoff) ShouldRetry(err error, attempt int) bool {
	return err == nil || attempt < p.maxAttempts
}

func (p zeroBackoff) Backoff(int) time.Duration { return 0 }

func runSingleTask(t *testing.T, task scraping.Task, sel scraping.Selector, limiter scraping.RateLimiter) scraping.Result {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queuememory.NewPriorityQueue()
	require.NoError(t, q.Enqueue(ctx, task))

	results := make(chan scraping.Result, 1)
	w := New("worker-0", q, sel, limiter, &fixedClock{now: time.Unix(1000, 0)}, zeroBackoff{maxAttempts: 3}, results, nil)

	go w.Run(ctx)

	select {
	case res := <-results:
		q.Close()
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no result emitted")
		return scraping.Result{}
	}
}

func TestWorker_RetryConvergence(t *testing.T) {
	t.Parallel()

	scraper := &countingScraper{failures: 2, records: []scraping.Record{{"title": "ok"}}}
	limiter := &countingLimiter{}
	task := scraping.Task{ID: 1, Type: scraping.TaskTypeNews, URL: "https://example.com"}

	res := runSingleTask(t, task, &fakeSelector{scraper: scraper}, limiter)

	require.True(t, res.Success)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, 3, scraper.calls())
	require.Equal(t, 3, limiter.calls(), "rate limiter acquired before every attempt")
	require.Equal(t, 1, res.TaskID)
	require.Equal(t, "worker-0", res.WorkerName)
	require.Len(t, res.Data, 1)
	require.Positive(t, res.ProcessingTime)
}

func TestWorker_PermanentFailureStopsAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	scraper := &countingScraper{failures: 100}
	task := scraping.Task{ID: 2, Type: scraping.TaskTypeBlog, URL: "https://example.com"}

	res := runSingleTask(t, task, &fakeSelector{scraper: scraper}, &countingLimiter{})

	require.False(t, res.Success)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, 3, scraper.calls(), "never more than three attempts")
	require.Equal(t, "transient error", res.ErrorMessage)
	require.Equal(t, scraping.TaskTypeBlog, res.SourceType)
}

func TestWorker_ResolutionFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{}
	task := scraping.Task{ID: 3, Type: scraping.TaskType("podcast"), URL: "https://example.com"}

	res := runSingleTask(t, task, &fakeSelector{}, limiter)

	require.False(t, res.Success)
	require.Zero(t, res.Attempts)
	require.Zero(t, limiter.calls(), "no fetch attempts for unknown type")
	require.Contains(t, res.ErrorMessage, "podcast")
}

func TestWorker_PanicYieldsFailedResultAndLoopSurvives(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queuememory.NewPriorityQueue()
	require.NoError(t, q.Enqueue(ctx, scraping.Task{ID: 1, Priority: 2, Type: scraping.TaskTypeNews}))
	require.NoError(t, q.Enqueue(ctx, scraping.Task{ID: 2, Priority: 1, Type: scraping.TaskTypeNews}))

	panicky := &countingScraper{panics: true}
	healthy := &countingScraper{records: []scraping.Record{{"title": "fine"}}}
	sel := &switchingSelector{first: panicky, rest: healthy}

	results := make(chan scraping.Result, 2)
	w := New("worker-0", q, sel, &countingLimiter{}, &fixedClock{now: time.Unix(0, 0)}, zeroBackoff{maxAttempts: 3}, results, nil)
	go w.Run(ctx)

	first := <-results
	require.False(t, first.Success)
	require.Equal(t, 1, first.TaskID)
	require.Contains(t, first.ErrorMessage, "panic")

	second := <-results
	require.True(t, second.Success)
	require.Equal(t, 2, second.TaskID)

	q.Close()

	status := w.Status()
	require.Equal(t, 1, status.TasksCompleted)
	require.Equal(t, 1, status.TasksFailed)
}

// switchingSelector hands out one scraper for the first resolution and a
// different one afterwards.
type switchingSelector struct {
	mu    sync.Mutex
	calls int
	first scraping.Scraper
	rest  scraping.Scraper
}

func (s *switchingSelector) Resolve(_ scraping.TaskType, _ string) (scraping.Scraper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == 1 {
		return s.first, nil
	}
	return s.rest, nil
}

func (s *switchingSelector) Validate(_ scraping.TaskType) bool { return true }

func TestWorker_StopsWhenQueueCloses(t *testing.T) {
	t.Parallel()

	q := queuememory.NewPriorityQueue()
	results := make(chan scraping.Result, 1)
	w := New("worker-0", q, &fakeSelector{}, &countingLimiter{}, &fixedClock{now: time.Unix(0, 0)}, nil, results, nil)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after queue close")
	}
	require.Equal(t, scraping.WorkerStateStopped, w.Status().State)
}
