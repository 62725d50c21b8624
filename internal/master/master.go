// Package master coordinates the worker pool over a run of scraping tasks.
package master

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/metrics"
	queuememory "github.com/newsharvest/harvestd/internal/queue/memory"
	"github.com/newsharvest/harvestd/internal/scraping"
	"github.com/newsharvest/harvestd/internal/worker"
)

// Config controls pool sizing and run behavior.
type Config struct {
	MinWorkers      int
	MaxWorkers      int
	MonitorInterval time.Duration
	ResultTopic     string
}

// Master owns the task queue, sizes and starts the worker pool, collects
// results, and aggregates run statistics. Workers hand results over through
// a buffered channel sized for the whole run, so emitting a result never
// blocks and shutdown never drops one.
type Master struct {
	queue     *queuememory.PriorityQueue
	selector  scraping.Selector
	limiter   scraping.RateLimiter
	store     scraping.ResultStore
	publisher scraping.Publisher
	clock     scraping.Clock
	retry     worker.RetryPolicy
	logger    *zap.Logger
	cfg       Config

	runID string

	mu        sync.Mutex
	tasks     []scraping.Task
	nextID    int
	workers   []*worker.Worker
	results   []scraping.Result
	completed int

	// startWorker is swappable so tests can simulate spawn failures.
	startWorker func(ctx context.Context, w *worker.Worker, wg *sync.WaitGroup) error
}

// New constructs a Master.
func New(
	queue *queuememory.PriorityQueue,
	sel scraping.Selector,
	limiter scraping.RateLimiter,
	store scraping.ResultStore,
	publisher scraping.Publisher,
	clock scraping.Clock,
	cfg Config,
	logger *zap.Logger,
) *Master {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 4 * time.Second
	}
	if cfg.ResultTopic == "" {
		cfg.ResultTopic = "harvest.results"
	}
	m := &Master{
		queue:     queue,
		selector:  sel,
		limiter:   limiter,
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
		runID:     uuid.NewString(),
	}
	m.startWorker = func(ctx context.Context, w *worker.Worker, wg *sync.WaitGroup) error {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
		return nil
	}
	return m
}

// RunID returns the identifier for this run.
func (m *Master) RunID() string {
	return m.runID
}

// Submit loads tasks into the priority queue. Task IDs are assigned here,
// sequential in submission order, and are never reused within a run.
func (m *Master) Submit(tasks []scraping.Task) error {
	if len(tasks) == 0 {
		return &scraping.ConfigurationError{Reason: "no tasks submitted"}
	}
	for _, t := range tasks {
		if !m.selector.Validate(t.Type) {
			return &scraping.ConfigurationError{
				Reason: fmt.Sprintf("unrecognized task type %q", t.Type),
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.nextID++
		t.ID = m.nextID
		t.Submitted = m.clock.Now()
		if err := m.queue.Enqueue(context.Background(), t); err != nil {
			return fmt.Errorf("enqueue task %d: %w", t.ID, err)
		}
		m.tasks = append(m.tasks, t)
	}
	m.logger.Info("tasks submitted", zap.Int("count", len(tasks)))
	return nil
}

// Run starts a static pool of between minWorkers and maxWorkers workers,
// blocks until every submitted task has produced a result, and returns the
// aggregated run statistics. Task-scoped failures never surface here; only
// invalid bounds or an unstartable pool fail the run itself.
func (m *Master) Run(ctx context.Context, minWorkers, maxWorkers int) (scraping.RunStats, error) {
	if minWorkers < 1 || minWorkers > maxWorkers {
		return scraping.RunStats{}, &scraping.ConfigurationError{
			Reason: fmt.Sprintf("invalid worker bounds [%d, %d]", minWorkers, maxWorkers),
		}
	}
	m.mu.Lock()
	total := len(m.tasks)
	m.mu.Unlock()
	if total == 0 {
		return scraping.RunStats{}, &scraping.ConfigurationError{Reason: "no tasks submitted"}
	}

	startedAt := m.clock.Now()
	poolSize := clamp(total, minWorkers, maxWorkers)
	resultCh := make(chan scraping.Result, total)

	var wg sync.WaitGroup
	started := m.spawnPool(ctx, poolSize, resultCh, &wg)
	if started < minWorkers {
		m.queue.Close()
		wg.Wait()
		return scraping.RunStats{}, &scraping.PoolExhaustionError{Started: started, Min: minWorkers}
	}
	m.logger.Info("worker pool started",
		zap.String("run_id", m.runID),
		zap.Int("workers", started),
		zap.Int("tasks", total),
	)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go m.monitor(monitorCtx)

	canceled := m.collect(ctx, resultCh, total)

	m.queue.Close()
	wg.Wait()

	if canceled {
		m.drainAfterCancel(resultCh)
	}

	finishedAt := m.clock.Now()
	stats := m.buildStats(startedAt, finishedAt, started)
	m.logger.Info("run finished",
		zap.String("run_id", m.runID),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration()),
	)
	return stats, nil
}

// Results returns a copy of all collected results.
func (m *Master) Results() []scraping.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]scraping.Result, len(m.results))
	copy(out, m.results)
	return out
}

// Snapshot exposes the current pool state for monitoring surfaces. Worker
// statuses are best-effort copies; staleness is tolerated.
func (m *Master) Snapshot() scraping.PoolSnapshot {
	m.mu.Lock()
	workers := make([]*worker.Worker, len(m.workers))
	copy(workers, m.workers)
	completed := m.completed
	total := len(m.tasks)
	m.mu.Unlock()

	statuses := make([]scraping.WorkerStatus, 0, len(workers))
	for _, w := range workers {
		statuses = append(statuses, w.Status())
	}
	return scraping.PoolSnapshot{
		RunID:      m.runID,
		Workers:    statuses,
		QueueDepth: m.queue.Len(),
		Completed:  completed,
		Total:      total,
	}
}

func (m *Master) spawnPool(ctx context.Context, poolSize int, resultCh chan scraping.Result, wg *sync.WaitGroup) int {
	started := 0
	for i := range poolSize {
		w := worker.New(
			fmt.Sprintf("worker-%d", i),
			m.queue,
			m.selector,
			m.limiter,
			m.clock,
			m.retry,
			resultCh,
			m.logger.Named("worker"),
		)
		if err := m.startWorker(ctx, w, wg); err != nil {
			m.logger.Error("worker start failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		m.mu.Lock()
		m.workers = append(m.workers, w)
		m.mu.Unlock()
		started++
	}
	return started
}

// collect gathers results until the run completes or the context ends.
// Returns true when the run was canceled before completion.
func (m *Master) collect(ctx context.Context, resultCh <-chan scraping.Result, total int) bool {
	for {
		m.mu.Lock()
		done := m.completed >= total
		m.mu.Unlock()
		if done {
			return false
		}
		select {
		case res := <-resultCh:
			m.record(res)
		case <-ctx.Done():
			m.logger.Warn("run canceled, shutting down pool", zap.String("run_id", m.runID))
			return true
		}
	}
}

// drainAfterCancel collects in-flight results emitted during shutdown and
// synthesizes failed results for tasks never dispatched, so the run still
// yields exactly one result per submitted task.
func (m *Master) drainAfterCancel(resultCh <-chan scraping.Result) {
	for {
		select {
		case res := <-resultCh:
			m.record(res)
			continue
		default:
		}
		break
	}

	m.queue.Drain()

	m.mu.Lock()
	seen := make(map[int]bool, len(m.results))
	for _, res := range m.results {
		seen[res.TaskID] = true
	}
	var missing []scraping.Task
	for _, t := range m.tasks {
		if !seen[t.ID] {
			missing = append(missing, t)
		}
	}
	m.mu.Unlock()

	now := m.clock.Now()
	for _, t := range missing {
		m.record(scraping.Result{
			TaskID:       t.ID,
			WorkerName:   "master",
			SourceType:   t.Type,
			Success:      false,
			ErrorMessage: "run canceled before dispatch",
			ScrapedAt:    now,
		})
	}
}

// record appends one result, updates counters, and hands it to the
// persistence and event layers. Persistence failures are logged, never
// propagated: partial success must stay observable.
func (m *Master) record(res scraping.Result) {
	m.mu.Lock()
	m.results = append(m.results, res)
	m.completed++
	m.mu.Unlock()

	if res.Success {
		m.logger.Info("task completed",
			zap.Int("task_id", res.TaskID),
			zap.String("worker", res.WorkerName),
			zap.Int("items", len(res.Data)),
		)
	} else {
		m.logger.Warn("task failed",
			zap.Int("task_id", res.TaskID),
			zap.String("worker", res.WorkerName),
			zap.String("error", res.ErrorMessage),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if m.store != nil {
		if err := m.store.SaveResult(ctx, m.runID, res); err != nil {
			m.logger.Error("persist result failed", zap.Int("task_id", res.TaskID), zap.Error(err))
		}
	}
	if m.publisher != nil {
		payload := map[string]any{
			"run_id":      m.runID,
			"task_id":     res.TaskID,
			"worker":      res.WorkerName,
			"source_type": res.SourceType,
			"success":     res.Success,
			"items":       len(res.Data),
			"scraped_at":  res.ScrapedAt.Format(time.RFC3339),
		}
		if _, err := m.publisher.Publish(ctx, m.cfg.ResultTopic, payload); err != nil {
			m.logger.Error("publish result failed", zap.Int("task_id", res.TaskID), zap.Error(err))
		}
	}
}

// monitor periodically logs run progress, mirroring the status surface
// exposed via Snapshot.
func (m *Master) monitor(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.Snapshot()
			metrics.SetQueueDepth(snap.QueueDepth)
			pct := 0.0
			if snap.Total > 0 {
				pct = float64(snap.Completed) / float64(snap.Total) * 100
			}
			m.logger.Info("run progress",
				zap.String("run_id", m.runID),
				zap.Float64("percent_complete", pct),
				zap.Int("queue_depth", snap.QueueDepth),
				zap.Int("completed", snap.Completed),
				zap.Int("total", snap.Total),
			)
		}
	}
}

func clamp(n, low, high int) int {
	if n < low {
		return low
	}
	if n > high {
		return high
	}
	return n
}
