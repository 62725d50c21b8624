package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/api"
	systemclock "github.com/newsharvest/harvestd/internal/clock/system"
	"github.com/newsharvest/harvestd/internal/config"
	"github.com/newsharvest/harvestd/internal/logging"
	"github.com/newsharvest/harvestd/internal/master"
	"github.com/newsharvest/harvestd/internal/metrics"
	"github.com/newsharvest/harvestd/internal/policy/ratelimit"
	memorypublisher "github.com/newsharvest/harvestd/internal/publisher/memory"
	pubsubpublisher "github.com/newsharvest/harvestd/internal/publisher/pubsub"
	queuememory "github.com/newsharvest/harvestd/internal/queue/memory"
	"github.com/newsharvest/harvestd/internal/report"
	"github.com/newsharvest/harvestd/internal/scraping"
	"github.com/newsharvest/harvestd/internal/selector"
	memorystorage "github.com/newsharvest/harvestd/internal/storage/memory"
	"github.com/newsharvest/harvestd/internal/storage/postgres"
)

// newRunCmd creates the 'run' subcommand, which executes one full harvest
// run over the configured task list and writes the summary report.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the configured scraping tasks to completion",
		Long: `Loads the task list from configuration, starts a bounded worker
pool, and blocks until every task has produced a result. Results are
persisted via the configured store and summarized to CSV on exit.`,

		RunE: runHarvest,
	}
	return cmd
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	sel, err := selector.New(selector.Config{
		UserAgent:         cfg.Scrape.UserAgent,
		Timeout:           cfg.ScrapeTimeout(),
		HeadlessEnabled:   cfg.Scrape.HeadlessEnabled,
		HeadlessParallel:  cfg.Scrape.HeadlessParallel,
		NavigationTimeout: cfg.NavTimeout(),
	}, logger.Named("selector"))
	if err != nil {
		return fmt.Errorf("init selector: %w", err)
	}
	defer sel.Close()

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	m := master.New(
		queuememory.NewPriorityQueue(),
		sel,
		limiter,
		store,
		publisher,
		systemclock.New(),
		master.Config{
			MinWorkers:      cfg.Pool.MinWorkers,
			MaxWorkers:      cfg.Pool.MaxWorkers,
			MonitorInterval: cfg.MonitorInterval(),
			ResultTopic:     cfg.Pool.ResultTopic,
		},
		logger.Named("master"),
	)

	stopServer := startStatusServer(cfg, m, logger)
	defer stopServer()

	if err := m.Submit(cfg.BuildTasks()); err != nil {
		return fmt.Errorf("submit tasks: %w", err)
	}

	stats, err := m.Run(ctx, cfg.Pool.MinWorkers, cfg.Pool.MaxWorkers)
	if err != nil {
		return fmt.Errorf("run harvest: %w", err)
	}

	if err := writeReports(cfg, m, stats, logger); err != nil {
		return err
	}

	logger.Info("harvest complete",
		zap.String("run_id", stats.RunID),
		zap.Int("total_tasks", stats.TotalTasks),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("total_records", stats.TotalRecords),
		zap.Float64("success_rate", stats.SuccessRate()),
		zap.Duration("duration", stats.Duration()),
	)
	return nil
}

func loadConfig() (config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("harvestd.yaml"); err == nil {
			path = "harvestd.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (scraping.ResultStore, func(), error) {
	switch cfg.Storage.Provider {
	case "postgres":
		logger.Info("using postgres result store", zap.String("table", cfg.Storage.Postgres.Table))
		store, err := postgres.NewResultStore(ctx, postgres.Config{
			DSN:      cfg.Storage.Postgres.DSN,
			Table:    cfg.Storage.Postgres.Table,
			MaxConns: cfg.Storage.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, store.Close, nil
	case "memory":
		logger.Info("using in-memory result store")
		return memorystorage.NewResultStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (scraping.Publisher, func(), error) {
	switch cfg.Publisher.Provider {
	case "pubsub":
		logger.Info("using pubsub publisher", zap.String("topic", cfg.Publisher.PubSub.TopicID))
		pub, err := pubsubpublisher.New(ctx, cfg.Publisher.PubSub.ProjectID, cfg.Publisher.PubSub.TopicID)
		if err != nil {
			return nil, nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		return pub, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("close publisher failed", zap.Error(err))
			}
		}, nil
	case "memory":
		logger.Info("using in-memory publisher")
		return memorypublisher.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown publisher provider: %s", cfg.Publisher.Provider)
	}
}

// startStatusServer serves /api/status and /metrics while the run is active.
// The returned func shuts the server down.
func startStatusServer(cfg config.Config, m *master.Master, logger *zap.Logger) func() {
	if !cfg.Server.Enabled {
		return func() {}
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(m, logger.Named("api")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("status server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}
}

func writeReports(cfg config.Config, m *master.Master, stats scraping.RunStats, logger *zap.Logger) error {
	writer, err := report.NewWriter(cfg.Report.OutputDir)
	if err != nil {
		return fmt.Errorf("init report writer: %w", err)
	}
	summaryPath, err := writer.WriteSummary(stats)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	resultsPath, err := writer.WriteResults(stats.RunID, m.Results())
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	logger.Info("reports written",
		zap.String("summary", summaryPath),
		zap.String("results", resultsPath),
	)
	return nil
}
