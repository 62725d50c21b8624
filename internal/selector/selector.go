// Package selector maps task types to scraper implementations.
package selector

import (
	"time"

	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/scrape/blog"
	"github.com/newsharvest/harvestd/internal/scrape/news"
	"github.com/newsharvest/harvestd/internal/scrape/rss"
	"github.com/newsharvest/harvestd/internal/scraping"
)

// Config controls the scrapers built by the selector.
type Config struct {
	UserAgent         string
	Timeout           time.Duration
	HeadlessEnabled   bool
	HeadlessParallel  int
	NavigationTimeout time.Duration
}

// Selector resolves the closed set of task types to scraper instances. The
// mapping is a compile-time switch, not an open registry: adding a type means
// adding a case here.
type Selector struct {
	news scraping.Scraper
	rss  scraping.Scraper
	blog scraping.Scraper

	closer func()
}

// New constructs the Selector and its scrapers. When headless rendering is
// enabled the RSS scraper runs feeds through Chrome; otherwise plain HTTP.
func New(cfg Config, logger *zap.Logger) (*Selector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		renderer rss.Renderer
		closer   = func() {}
	)
	if cfg.HeadlessEnabled {
		headless, err := rss.NewChromedpRenderer(rss.RendererConfig{
			MaxParallel:       cfg.HeadlessParallel,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: cfg.NavigationTimeout,
		})
		if err != nil {
			return nil, err
		}
		renderer = headless
		closer = headless.Close
	} else {
		renderer = rss.NewPlainRenderer(cfg.UserAgent, cfg.Timeout)
	}

	return &Selector{
		news:   news.New(news.Config{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout}, logger.Named("news")),
		rss:    rss.New(renderer, logger.Named("rss")),
		blog:   blog.New(blog.Config{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout}, logger.Named("blog")),
		closer: closer,
	}, nil
}

// NewWithScrapers wires explicit scraper implementations (primarily for tests).
func NewWithScrapers(newsScraper, rssScraper, blogScraper scraping.Scraper) *Selector {
	return &Selector{
		news:   newsScraper,
		rss:    rssScraper,
		blog:   blogScraper,
		closer: func() {},
	}
}

// Resolve returns the scraper for the task type, or a ResolutionError for
// anything outside the closed set.
func (s *Selector) Resolve(taskType scraping.TaskType, _ string) (scraping.Scraper, error) {
	switch taskType {
	case scraping.TaskTypeNews:
		return s.news, nil
	case scraping.TaskTypeRSS:
		return s.rss, nil
	case scraping.TaskTypeBlog:
		return s.blog, nil
	default:
		return nil, &scraping.ResolutionError{Type: taskType}
	}
}

// Validate reports whether the task type is recognized.
func (s *Selector) Validate(taskType scraping.TaskType) bool {
	_, err := s.Resolve(taskType, "")
	return err == nil
}

// Close releases scraper resources (the headless allocator, when used).
func (s *Selector) Close() {
	s.closer()
}
