package report

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newsharvest/harvestd/internal/scraping"
)

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	stats := scraping.RunStats{
		RunID:        "abc",
		TotalTasks:   4,
		Succeeded:    3,
		Failed:       1,
		TotalRecords: 12,
		CountsByType: map[scraping.TaskType]int{
			scraping.TaskTypeRSS:  3,
			scraping.TaskTypeNews: 1,
		},
		MeanTaskTime:   500 * time.Millisecond,
		MaxTaskTime:    time.Second,
		StartedAt:      time.Unix(100, 0),
		FinishedAt:     time.Unix(110, 0),
		WorkersStarted: 2,
	}

	path, err := w.WriteSummary(stats)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	byMetric := map[string]string{}
	for _, row := range rows[1:] {
		byMetric[row[0]] = row[1]
	}
	require.Equal(t, "abc", byMetric["run_id"])
	require.Equal(t, "4", byMetric["total_tasks"])
	require.Equal(t, "75.0000", byMetric["success_rate"])
	require.Equal(t, "10.000", byMetric["duration_seconds"])
	require.Equal(t, "1", byMetric["tasks_news"])
	require.Equal(t, "3", byMetric["tasks_rss"])
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	results := []scraping.Result{
		{
			TaskID:         1,
			WorkerName:     "worker-0",
			SourceType:     scraping.TaskTypeBlog,
			Data:           []scraping.Record{{"title": "a"}, {"title": "b"}},
			Success:        true,
			Attempts:       1,
			ProcessingTime: 1200 * time.Millisecond,
			ScrapedAt:      time.Unix(1700000000, 0).UTC(),
		},
		{
			TaskID:       2,
			WorkerName:   "worker-1",
			SourceType:   scraping.TaskTypeNews,
			ErrorMessage: "fetch failed",
			Attempts:     3,
		},
	}

	path, err := w.WriteResults("abc", results)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "true", rows[1][3])
	require.Equal(t, "2", rows[1][5])
	require.Equal(t, "1200", rows[1][6])
	require.Equal(t, "fetch failed", rows[2][7])
}

func TestNewWriterRejectsEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := NewWriter("")
	require.Error(t, err)
}
