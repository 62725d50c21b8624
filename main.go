// The main package for the harvestd executable.
//
// Architecture overview:
//   - Master: internal/master owns the run. It assigns task IDs at submission,
//     sizes a static worker pool between the configured bounds, collects one
//     result per task over a buffered channel, and folds results into run
//     statistics when the pool drains.
//   - Queue & workers: tasks flow through a priority queue (higher priority
//     first, ties in submission order) into a fixed pool of workers. Workers
//     resolve each task type to a scraper, apply the shared rate limiter
//     before every fetch attempt, and retry transient failures with jittered
//     exponential backoff.
//   - Scrapers: news pages go through Colly, blogs through goquery, RSS feeds
//     through xmlquery with an optional Chromedp render step for
//     JavaScript-built feeds.
//   - Persistence & fanout: every result is saved via the configured
//     ResultStore (memory/Postgres) and published as a completion event
//     (memory/Pub-Sub). A CSV summary and per-task report are written at the
//     end of the run.
//   - Configuration & plumbing: Viper populates config from file/env
//     (HARVEST_ prefix); zap provides structured logging; Prometheus counters
//     and the /api/status endpoint are served by the optional chi server
//     while a run is active.
//
// Run locally: go run . run --config harvestd.yaml (or rely solely on
// HARVEST_* env overrides).
package main

import (
	"github.com/newsharvest/harvestd/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
