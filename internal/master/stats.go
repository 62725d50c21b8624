package master

import (
	"time"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// buildStats folds the collected results into a RunStats summary. The fold
// is order-independent: results arrive in completion order, not priority
// order, and the totals must not depend on that.
func (m *Master) buildStats(startedAt, finishedAt time.Time, workersStarted int) scraping.RunStats {
	m.mu.Lock()
	results := make([]scraping.Result, len(m.results))
	copy(results, m.results)
	total := len(m.tasks)
	m.mu.Unlock()

	stats := scraping.RunStats{
		RunID:          m.runID,
		TotalTasks:     total,
		CountsByType:   make(map[scraping.TaskType]int),
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		WorkersStarted: workersStarted,
	}
	for _, res := range results {
		if res.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.TotalRecords += len(res.Data)
		stats.CountsByType[res.SourceType]++
		stats.TotalTaskTime += res.ProcessingTime
		if res.ProcessingTime > stats.MaxTaskTime {
			stats.MaxTaskTime = res.ProcessingTime
		}
	}
	if len(results) > 0 {
		stats.MeanTaskTime = stats.TotalTaskTime / time.Duration(len(results))
	}
	return stats
}
