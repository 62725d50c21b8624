// Package config loads and validates scheduler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pool      PoolConfig      `mapstructure:"pool"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
	Report    ReportConfig    `mapstructure:"report"`
	Tasks     []TaskSpec      `mapstructure:"tasks"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// PoolConfig bounds the worker pool and run monitoring.
type PoolConfig struct {
	MinWorkers             int    `mapstructure:"min_workers"`
	MaxWorkers             int    `mapstructure:"max_workers"`
	MonitorIntervalSeconds int    `mapstructure:"monitor_interval_seconds"`
	ResultTopic            string `mapstructure:"result_topic"`
}

// RateLimitConfig bounds the aggregate outbound request rate.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ScrapeConfig governs scraper behavior.
type ScrapeConfig struct {
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	HeadlessEnabled   bool   `mapstructure:"headless_enabled"`
	HeadlessParallel  int    `mapstructure:"headless_parallel"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
}

// StorageConfig selects and configures result persistence.
type StorageConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls access to the relational database.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PublisherConfig selects and configures the completion-event publisher.
type PublisherConfig struct {
	Provider string       `mapstructure:"provider"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ReportConfig sets where the run summary is written.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// TaskSpec is one configured scraping task.
type TaskSpec struct {
	URL        string `mapstructure:"url"`
	Type       string `mapstructure:"type"`
	Priority   int    `mapstructure:"priority"`
	SearchWord string `mapstructure:"search_word"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("pool.min_workers", 1)
	v.SetDefault("pool.max_workers", 4)
	v.SetDefault("pool.monitor_interval_seconds", 4)
	v.SetDefault("pool.result_topic", "harvest.results")
	v.SetDefault("rate_limit.requests_per_second", 1)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("scrape.user_agent", "newsharvest-bot/0.1")
	v.SetDefault("scrape.timeout_seconds", 15)
	v.SetDefault("scrape.headless_enabled", false)
	v.SetDefault("scrape.headless_parallel", 1)
	v.SetDefault("scrape.nav_timeout_seconds", 30)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.postgres.table", "results")
	v.SetDefault("publisher.provider", "memory")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("report.output_dir", "data_output")
}

// Validate checks invariants that would otherwise fail mid-run.
func (c Config) Validate() error {
	if c.Pool.MinWorkers < 1 {
		return fmt.Errorf("pool.min_workers must be >= 1, got %d", c.Pool.MinWorkers)
	}
	if c.Pool.MaxWorkers < c.Pool.MinWorkers {
		return fmt.Errorf("pool.max_workers (%d) must be >= pool.min_workers (%d)",
			c.Pool.MaxWorkers, c.Pool.MinWorkers)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be >= 0")
	}
	switch c.Storage.Provider {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.provider is 'postgres' but storage.postgres.dsn is not set")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	switch c.Publisher.Provider {
	case "memory":
	case "pubsub":
		if c.Publisher.PubSub.ProjectID == "" || c.Publisher.PubSub.TopicID == "" {
			return fmt.Errorf("publisher.provider is 'pubsub' but project_id or topic_id is not set")
		}
	default:
		return fmt.Errorf("unknown publisher provider %q", c.Publisher.Provider)
	}
	return nil
}

// ScrapeTimeout returns the scraper HTTP timeout as a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// NavTimeout returns the headless navigation timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Scrape.NavTimeoutSeconds) * time.Second
}

// MonitorInterval returns the run progress logging interval.
func (c Config) MonitorInterval() time.Duration {
	return time.Duration(c.Pool.MonitorIntervalSeconds) * time.Second
}

// BuildTasks converts the configured task specs into scheduler tasks. IDs
// are left unset; the master assigns them at submission.
func (c Config) BuildTasks() []scraping.Task {
	tasks := make([]scraping.Task, 0, len(c.Tasks))
	for _, spec := range c.Tasks {
		tasks = append(tasks, scraping.Task{
			Priority:   spec.Priority,
			URL:        spec.URL,
			Type:       scraping.TaskType(spec.Type),
			SearchWord: spec.SearchWord,
		})
	}
	return tasks
}
