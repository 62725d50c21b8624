package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newsharvest/harvestd/internal/scraping"
)

type namedScraper struct {
	name string
}

func (s *namedScraper) Scrape(context.Context, string, string) ([]scraping.Record, error) {
	return []scraping.Record{{"scraper": s.name}}, nil
}

func TestResolveMapsClosedSet(t *testing.T) {
	t.Parallel()

	newsScraper := &namedScraper{name: "news"}
	rssScraper := &namedScraper{name: "rss"}
	blogScraper := &namedScraper{name: "blog"}
	sel := NewWithScrapers(newsScraper, rssScraper, blogScraper)

	got, err := sel.Resolve(scraping.TaskTypeNews, "")
	require.NoError(t, err)
	require.Same(t, newsScraper, got.(*namedScraper))

	got, err = sel.Resolve(scraping.TaskTypeRSS, "economy")
	require.NoError(t, err)
	require.Same(t, rssScraper, got.(*namedScraper))

	got, err = sel.Resolve(scraping.TaskTypeBlog, "")
	require.NoError(t, err)
	require.Same(t, blogScraper, got.(*namedScraper))
}

func TestResolveRejectsUnknownType(t *testing.T) {
	t.Parallel()

	sel := NewWithScrapers(&namedScraper{}, &namedScraper{}, &namedScraper{})

	_, err := sel.Resolve(scraping.TaskType("podcast"), "")
	require.Error(t, err)
	require.True(t, scraping.IsResolutionError(err))
	require.Contains(t, err.Error(), "podcast")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	sel := NewWithScrapers(&namedScraper{}, &namedScraper{}, &namedScraper{})

	require.True(t, sel.Validate(scraping.TaskTypeNews))
	require.True(t, sel.Validate(scraping.TaskTypeRSS))
	require.True(t, sel.Validate(scraping.TaskTypeBlog))
	require.False(t, sel.Validate(scraping.TaskType("")))
	require.False(t, sel.Validate(scraping.TaskType("video")))
}

func TestNewBuildsScrapersWithoutHeadless(t *testing.T) {
	t.Parallel()

	sel, err := New(Config{UserAgent: "test-agent"}, zap.NewNop())
	require.NoError(t, err)
	defer sel.Close()

	for _, tt := range []scraping.TaskType{
		scraping.TaskTypeNews,
		scraping.TaskTypeRSS,
		scraping.TaskTypeBlog,
	} {
		got, resolveErr := sel.Resolve(tt, "")
		require.NoError(t, resolveErr)
		require.NotNil(t, got)
	}
}
