// Package news implements the news site scraper using gocolly.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Scraper extracts headlines from news pages using the Colly collector.
type Scraper struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Scraper.
func New(cfg Config, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Scraper{
		cfg:    cfg,
		base:   colly.NewCollector(colly.Async(false)),
		logger: logger,
	}
}

// Scrape visits the URL and returns one record per article found.
func (s *Scraper) Scrape(ctx context.Context, url, searchWord string) ([]scraping.Record, error) {
	if !scraping.ValidFetchURL(url) {
		return nil, fmt.Errorf("invalid news url %q", url)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape canceled: %w", err)
	}

	collector := s.base.Clone()
	collector.IgnoreRobotsTxt = true
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}
	collector.SetRequestTimeout(s.cfg.Timeout)

	var (
		records  []scraping.Record
		fetchErr error
	)
	seen := make(map[string]bool)

	appendRecord := func(title, link, summary string) {
		title = strings.TrimSpace(title)
		if title == "" || seen[title] {
			return
		}
		if !scraping.MatchesSearchWord(searchWord, title, summary) {
			return
		}
		seen[title] = true
		records = append(records, scraping.Record{
			"title":       title,
			"url":         link,
			"summary":     strings.TrimSpace(summary),
			"source_type": string(scraping.TaskTypeNews),
		})
	}

	collector.OnHTML("article", func(e *colly.HTMLElement) {
		title := e.ChildText("h1, h2, h3")
		link := e.Request.AbsoluteURL(e.ChildAttr("a[href]", "href"))
		summary := e.ChildText("p")
		appendRecord(title, link, summary)
	})

	collector.OnHTML("h2 a[href], h3 a[href]", func(e *colly.HTMLElement) {
		appendRecord(e.Text, e.Request.AbsoluteURL(e.Attr("href")), "")
	})

	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("visit news page: %w", err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("fetch news page: %w", fetchErr)
	}
	s.logger.Debug("news page scraped", zap.String("url", url), zap.Int("records", len(records)))
	return records, nil
}
