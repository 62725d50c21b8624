package scraping

import "strings"

// MatchesSearchWord reports whether any of the fields contains word,
// case-insensitively. An empty word matches everything.
func MatchesSearchWord(word string, fields ...string) bool {
	if word == "" {
		return true
	}
	needle := strings.ToLower(word)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// ValidFetchURL reports whether url looks fetchable by a scraper.
func ValidFetchURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
