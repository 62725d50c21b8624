// Package scraping defines core types shared across subsystems.
package scraping

import (
	"time"
)

// TaskType identifies which scraper implementation handles a task.
type TaskType string

// Supported task types. The set is closed; the selector rejects anything else.
const (
	TaskTypeNews TaskType = "news"
	TaskTypeRSS  TaskType = "rss"
	TaskTypeBlog TaskType = "blog"
)

// Task is one immutable unit of scraping work. IDs are assigned by the
// master at submission time and are unique within a run. Higher Priority
// values are dispatched sooner; ties break on ascending ID.
type Task struct {
	ID         int       `json:"id"`
	Priority   int       `json:"priority"`
	URL        string    `json:"url"`
	Type       TaskType  `json:"type"`
	SearchWord string    `json:"search_word,omitempty"`
	Submitted  time.Time `json:"submitted_at"`
}

// Record is one scraped item. The scheduler treats the fields as opaque.
type Record map[string]any

// Result is the outcome of executing exactly one Task by exactly one worker.
// Results are handed off to the master over the result channel and never
// mutated afterwards.
type Result struct {
	TaskID         int           `json:"task_id"`
	WorkerName     string        `json:"worker_name"`
	SourceType     TaskType      `json:"source_type"`
	Data           []Record      `json:"data"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Attempts       int           `json:"attempts"`
	ProcessingTime time.Duration `json:"processing_time"`
	ScrapedAt      time.Time     `json:"scraped_at"`
}

// WorkerState is the coarse lifecycle state of a worker.
type WorkerState string

// Worker states reported in status snapshots.
const (
	WorkerStateIdle    WorkerState = "idle"
	WorkerStateBusy    WorkerState = "busy"
	WorkerStateStopped WorkerState = "stopped"
)

// WorkerStatus is an observational snapshot of a single worker. It is owned
// and mutated only by its worker; the master reads copies and tolerates
// staleness.
type WorkerStatus struct {
	Name           string      `json:"name"`
	State          WorkerState `json:"state"`
	CurrentTaskID  int         `json:"current_task_id,omitempty"`
	TasksCompleted int         `json:"tasks_completed"`
	TasksFailed    int         `json:"tasks_failed"`
}

// RunStats aggregates all results of a completed run. Aggregation is
// order-independent: results arrive in completion order, not priority order.
type RunStats struct {
	RunID          string           `json:"run_id"`
	TotalTasks     int              `json:"total_tasks"`
	Succeeded      int              `json:"succeeded"`
	Failed         int              `json:"failed"`
	TotalRecords   int              `json:"total_records"`
	CountsByType   map[TaskType]int `json:"counts_by_type"`
	TotalTaskTime  time.Duration    `json:"total_task_time"`
	MeanTaskTime   time.Duration    `json:"mean_task_time"`
	MaxTaskTime    time.Duration    `json:"max_task_time"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	WorkersStarted int              `json:"workers_started"`
}

// SuccessRate returns the percentage of tasks that succeeded.
func (s RunStats) SuccessRate() float64 {
	if s.TotalTasks == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.TotalTasks) * 100
}

// Duration returns the wall-clock duration of the run.
func (s RunStats) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// PoolSnapshot is a point-in-time view of the pool for monitoring surfaces.
type PoolSnapshot struct {
	RunID      string         `json:"run_id"`
	Workers    []WorkerStatus `json:"workers"`
	QueueDepth int            `json:"queue_depth"`
	Completed  int            `json:"completed"`
	Total      int            `json:"total"`
}
