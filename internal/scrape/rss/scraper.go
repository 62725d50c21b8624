// Package rss implements the feed scraper. Feeds are rendered through a
// Renderer (headless browser or plain HTTP) and parsed as XML.
package rss

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// Renderer fetches a URL and returns the document source.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Scraper extracts feed items from RSS documents.
type Scraper struct {
	renderer Renderer
	logger   *zap.Logger
}

// New builds a Scraper on top of the given renderer.
func New(renderer Renderer, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		renderer: renderer,
		logger:   logger,
	}
}

// Scrape renders the feed and returns one record per matching item. When
// searchWord is set, items whose title and description both miss it are
// dropped.
func (s *Scraper) Scrape(ctx context.Context, url, searchWord string) ([]scraping.Record, error) {
	if !scraping.ValidFetchURL(url) {
		return nil, fmt.Errorf("invalid feed url %q", url)
	}

	source, err := s.renderer.Render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}

	doc, err := xmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var records []scraping.Record
	for _, item := range xmlquery.Find(doc, "//item") {
		title := childText(item, "title")
		if title == "" {
			continue
		}
		link := childText(item, "link")
		desc := childText(item, "description")
		if !scraping.MatchesSearchWord(searchWord, title, desc) {
			continue
		}
		rec := scraping.Record{
			"title":       title,
			"url":         link,
			"summary":     desc,
			"source_type": string(scraping.TaskTypeRSS),
		}
		if pub := childText(item, "pubDate"); pub != "" {
			rec["publication_date_readable"] = pub
		}
		records = append(records, rec)
	}

	s.logger.Debug("feed scraped", zap.String("url", url), zap.Int("records", len(records)))
	return records, nil
}

func childText(node *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(node, name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}
