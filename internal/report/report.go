// Package report writes per-run summary files to disk.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// Writer emits CSV artifacts for a completed run.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("report output dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteSummary writes run-level aggregates as key/value rows and returns the
// file path.
func (w *Writer) WriteSummary(stats scraping.RunStats) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("run-%s-summary.csv", stats.RunID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	rows := [][]string{
		{"metric", "value"},
		{"run_id", stats.RunID},
		{"total_tasks", strconv.Itoa(stats.TotalTasks)},
		{"succeeded", strconv.Itoa(stats.Succeeded)},
		{"failed", strconv.Itoa(stats.Failed)},
		{"total_records", strconv.Itoa(stats.TotalRecords)},
		{"success_rate", strconv.FormatFloat(stats.SuccessRate(), 'f', 4, 64)},
		{"workers_started", strconv.Itoa(stats.WorkersStarted)},
		{"duration_seconds", strconv.FormatFloat(stats.Duration().Seconds(), 'f', 3, 64)},
		{"mean_task_seconds", strconv.FormatFloat(stats.MeanTaskTime.Seconds(), 'f', 3, 64)},
		{"max_task_seconds", strconv.FormatFloat(stats.MaxTaskTime.Seconds(), 'f', 3, 64)},
	}
	// Deterministic ordering for the per-type counters.
	types := make([]string, 0, len(stats.CountsByType))
	for tt := range stats.CountsByType {
		types = append(types, string(tt))
	}
	sort.Strings(types)
	for _, tt := range types {
		rows = append(rows, []string{
			"tasks_" + tt,
			strconv.Itoa(stats.CountsByType[scraping.TaskType(tt)]),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write summary rows: %w", err)
	}
	return path, nil
}

// WriteResults writes one row per task result and returns the file path.
func (w *Writer) WriteResults(runID string, results []scraping.Result) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("run-%s-results.csv", runID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	rows := [][]string{
		{"task_id", "worker", "source_type", "success", "attempts", "records", "processing_ms", "error", "scraped_at"},
	}
	for _, res := range results {
		rows = append(rows, []string{
			strconv.Itoa(res.TaskID),
			res.WorkerName,
			string(res.SourceType),
			strconv.FormatBool(res.Success),
			strconv.Itoa(res.Attempts),
			strconv.Itoa(len(res.Data)),
			strconv.FormatInt(res.ProcessingTime.Milliseconds(), 10),
			res.ErrorMessage,
			res.ScrapedAt.Format(time.RFC3339),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write result rows: %w", err)
	}
	return path, nil
}
