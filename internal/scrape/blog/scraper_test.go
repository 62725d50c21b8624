package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const blogPage = `<!DOCTYPE html>
<html><body>
<article>
  <h2>Inflation eases in July</h2>
  <a href="/posts/inflation-july">read</a>
  <p>Consumer prices rose less than expected.</p>
  <span class="author">Jane Roe</span>
</article>
<article>
  <h2>Weekend cooking notes</h2>
  <a href="/posts/cooking">read</a>
  <p>A few new recipes.</p>
</article>
<div class="post">
  <h3>Inflation outlook for autumn</h3>
  <a href="/posts/outlook">read</a>
  <p>Analysts expect a slowdown.</p>
</div>
</body></html>`

func TestScrapeExtractsPosts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(blogPage))
	}))
	defer srv.Close()

	s := New(Config{UserAgent: "test-agent"}, zap.NewNop())
	records, err := s.Scrape(context.Background(), srv.URL, "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, "Inflation eases in July", records[0]["title"])
	require.Equal(t, "/posts/inflation-july", records[0]["url"])
	require.Equal(t, "Consumer prices rose less than expected.", records[0]["summary"])
	require.Equal(t, "Jane Roe", records[0]["author"])
	require.Equal(t, "blog", records[0]["source_type"])
	require.NotContains(t, records[1], "author")
}

func TestScrapeFiltersBySearchWord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(blogPage))
	}))
	defer srv.Close()

	s := New(Config{}, zap.NewNop())
	records, err := s.Scrape(context.Background(), srv.URL, "inflation")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Contains(t, rec["title"], "Inflation")
	}
}

func TestScrapeRejectsBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(Config{}, zap.NewNop())
	_, err := s.Scrape(context.Background(), srv.URL, "")
	require.ErrorContains(t, err, "unexpected status 500")
}

func TestScrapeRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	s := New(Config{}, zap.NewNop())
	_, err := s.Scrape(context.Background(), "ftp://example.com", "")
	require.ErrorContains(t, err, "invalid blog url")
}
