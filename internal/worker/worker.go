// Package worker implements the task execution loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/metrics"
	"github.com/newsharvest/harvestd/internal/scraping"
)

// Worker pulls tasks from the shared queue, executes them with retry and
// rate-limiting discipline, and emits exactly one Result per task on the
// result channel. A Worker never blocks its siblings: all coordination goes
// through the queue, the limiter, and the buffered result channel.
type Worker struct {
	name     string
	queue    scraping.Queue
	selector scraping.Selector
	limiter  scraping.RateLimiter
	clock    scraping.Clock
	retry    RetryPolicy
	results  chan<- scraping.Result
	logger   *zap.Logger

	mu     sync.RWMutex
	status scraping.WorkerStatus
}

// New constructs a Worker. A nil retry policy defaults to the exponential
// three-attempt policy.
func New(
	name string,
	queue scraping.Queue,
	sel scraping.Selector,
	limiter scraping.RateLimiter,
	clock scraping.Clock,
	retry RetryPolicy,
	results chan<- scraping.Result,
	logger *zap.Logger,
) *Worker {
	if retry == nil {
		retry = NewExponentialRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		name:     name,
		queue:    queue,
		selector: sel,
		limiter:  limiter,
		clock:    clock,
		retry:    retry,
		results:  results,
		logger:   logger,
		status: scraping.WorkerStatus{
			Name:  name,
			State: scraping.WorkerStateIdle,
		},
	}
}

// Name returns the worker identifier.
func (w *Worker) Name() string {
	return w.name
}

// Status returns a snapshot copy of the worker's current status.
func (w *Worker) Status() scraping.WorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Run consumes tasks until the queue closes or the context ends. The
// shutdown check happens between task pickups; an in-flight task is always
// finished and its result emitted before the loop exits.
func (w *Worker) Run(ctx context.Context) {
	defer w.setStopped()
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, scraping.ErrQueueClosed) || ctx.Err() != nil {
				w.logger.Debug("worker exiting", zap.String("worker", w.name))
				return
			}
			w.logger.Error("dequeue failed", zap.String("worker", w.name), zap.Error(err))
			continue
		}
		w.logger.Info("task dispatched",
			zap.String("worker", w.name),
			zap.Int("task_id", task.ID),
			zap.String("type", string(task.Type)),
		)
		result := w.process(ctx, task)
		w.recordOutcome(result)
		w.results <- result
	}
}

// process turns one task into one result. Panics from scraper code are
// contained here so a misbehaving scraper cannot swallow its task.
func (w *Worker) process(ctx context.Context, task scraping.Task) (result scraping.Result) {
	start := w.clock.Now()
	w.setBusy(task.ID)
	metrics.WorkerBusy(1)
	defer metrics.WorkerBusy(-1)
	defer w.setIdle()

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker panic recovered",
				zap.String("worker", w.name),
				zap.Int("task_id", task.ID),
				zap.Any("panic", r),
			)
			result = w.failed(task, start, 0, fmt.Sprintf("worker panic: %v", r))
		}
	}()

	scraper, err := w.selector.Resolve(task.Type, task.SearchWord)
	if err != nil {
		w.logger.Warn("scraper resolution failed", zap.Int("task_id", task.ID), zap.Error(err))
		return w.failed(task, start, 0, err.Error())
	}

	var lastErr error
	attempt := 0
	for {
		attempt++
		if err := w.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		records, err := scraper.Scrape(ctx, task.URL, task.SearchWord)
		if err == nil {
			return w.succeeded(task, start, attempt, records)
		}
		lastErr = err
		w.logger.Warn("scrape attempt failed",
			zap.Int("task_id", task.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if !w.retry.ShouldRetry(err, attempt) {
			break
		}
		metrics.IncRetry()
		if serr := w.sleep(ctx, w.retry.Backoff(attempt)); serr != nil {
			break
		}
	}
	return w.failed(task, start, attempt, lastErr.Error())
}

func (w *Worker) succeeded(task scraping.Task, start time.Time, attempts int, data []scraping.Record) scraping.Result {
	elapsed := w.clock.Now().Sub(start)
	metrics.ObserveTask(string(task.Type), true, elapsed)
	return scraping.Result{
		TaskID:         task.ID,
		WorkerName:     w.name,
		SourceType:     task.Type,
		Data:           data,
		Success:        true,
		Attempts:       attempts,
		ProcessingTime: elapsed,
		ScrapedAt:      w.clock.Now(),
	}
}

func (w *Worker) failed(task scraping.Task, start time.Time, attempts int, message string) scraping.Result {
	elapsed := w.clock.Now().Sub(start)
	metrics.ObserveTask(string(task.Type), false, elapsed)
	return scraping.Result{
		TaskID:         task.ID,
		WorkerName:     w.name,
		SourceType:     task.Type,
		Success:        false,
		ErrorMessage:   message,
		Attempts:       attempts,
		ProcessingTime: elapsed,
		ScrapedAt:      w.clock.Now(),
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (w *Worker) setBusy(taskID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.State = scraping.WorkerStateBusy
	w.status.CurrentTaskID = taskID
}

func (w *Worker) setIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.State = scraping.WorkerStateIdle
	w.status.CurrentTaskID = 0
}

func (w *Worker) setStopped() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.State = scraping.WorkerStateStopped
	w.status.CurrentTaskID = 0
}

func (w *Worker) recordOutcome(result scraping.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if result.Success {
		w.status.TasksCompleted++
	} else {
		w.status.TasksFailed++
	}
}
