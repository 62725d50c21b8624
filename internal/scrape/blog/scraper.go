// Package blog implements the blog post scraper using goquery.
package blog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// Config controls HTTP client behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Scraper extracts post entries from blog index pages.
type Scraper struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a Scraper.
func New(cfg Config, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Scrape fetches the page and returns one record per post entry.
func (s *Scraper) Scrape(ctx context.Context, url, searchWord string) ([]scraping.Record, error) {
	if !scraping.ValidFetchURL(url) {
		return nil, fmt.Errorf("invalid blog url %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch blog page: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch blog page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse blog page: %w", err)
	}

	records := s.extract(doc, searchWord)
	s.logger.Debug("blog page scraped", zap.String("url", url), zap.Int("records", len(records)))
	return records, nil
}

func (s *Scraper) extract(doc *goquery.Document, searchWord string) []scraping.Record {
	var records []scraping.Record
	doc.Find("article, .post, .entry").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("h1, h2, h3").First().Text())
		if title == "" {
			return
		}
		link, _ := sel.Find("a[href]").First().Attr("href")
		summary := strings.TrimSpace(sel.Find("p").First().Text())
		author := strings.TrimSpace(sel.Find(".author, [rel=author]").First().Text())
		if !scraping.MatchesSearchWord(searchWord, title, summary) {
			return
		}
		rec := scraping.Record{
			"title":       title,
			"url":         link,
			"summary":     summary,
			"source_type": string(scraping.TaskTypeBlog),
		}
		if author != "" {
			rec["author"] = author
		}
		records = append(records, rec)
	})
	return records
}
