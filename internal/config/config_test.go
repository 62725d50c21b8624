package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newsharvest/harvestd/internal/scraping"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 1, cfg.Pool.MinWorkers)
	require.Equal(t, 4, cfg.Pool.MaxWorkers)
	require.Equal(t, "harvest.results", cfg.Pool.ResultTopic)
	require.Equal(t, "memory", cfg.Storage.Provider)
	require.Equal(t, "memory", cfg.Publisher.Provider)
	require.Equal(t, float64(1), cfg.RateLimit.RequestsPerSecond)
	require.Equal(t, "data_output", cfg.Report.OutputDir)
	require.Empty(t, cfg.Tasks)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
pool:
  min_workers: 2
  max_workers: 6
rate_limit:
  requests_per_second: 5
  burst: 2
tasks:
  - url: https://example.com/feed.xml
    type: rss
    priority: 8
    search_word: economy
  - url: https://example.com/blog
    type: blog
    priority: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Pool.MinWorkers)
	require.Equal(t, 6, cfg.Pool.MaxWorkers)
	require.Equal(t, float64(5), cfg.RateLimit.RequestsPerSecond)

	tasks := cfg.BuildTasks()
	require.Len(t, tasks, 2)
	require.Equal(t, scraping.TaskTypeRSS, tasks[0].Type)
	require.Equal(t, 8, tasks[0].Priority)
	require.Equal(t, "economy", tasks[0].SearchWord)
	require.Equal(t, scraping.TaskTypeBlog, tasks[1].Type)
	require.Zero(t, tasks[1].ID)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Pool:      PoolConfig{MinWorkers: 1, MaxWorkers: 4},
			Storage:   StorageConfig{Provider: "memory"},
			Publisher: PublisherConfig{Provider: "memory"},
		}
	}

	cfg := base()
	cfg.Pool.MinWorkers = 0
	require.ErrorContains(t, cfg.Validate(), "min_workers")

	cfg = base()
	cfg.Pool.MaxWorkers = 0
	require.ErrorContains(t, cfg.Validate(), "max_workers")

	cfg = base()
	cfg.Storage.Provider = "postgres"
	require.ErrorContains(t, cfg.Validate(), "dsn")

	cfg = base()
	cfg.Storage.Provider = "s3"
	require.ErrorContains(t, cfg.Validate(), "unknown storage provider")

	cfg = base()
	cfg.Publisher.Provider = "pubsub"
	require.ErrorContains(t, cfg.Validate(), "project_id")

	cfg = base()
	cfg.RateLimit.RequestsPerSecond = -1
	require.ErrorContains(t, cfg.Validate(), "requests_per_second")
}
