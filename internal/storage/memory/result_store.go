// Package memory provides an in-memory result store for development/testing.
package memory

import (
	"context"
	"sync"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// ResultStore keeps results per run in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string][]scraping.Result
}

// NewResultStore constructs a ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string][]scraping.Result),
	}
}

// SaveResult appends the result under its run.
func (s *ResultStore) SaveResult(_ context.Context, runID string, result scraping.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[runID] = append(s.results[runID], result)
	return nil
}

// ResultsForRun returns a copy of everything stored for the run.
func (s *ResultStore) ResultsForRun(runID string) []scraping.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.results[runID]
	out := make([]scraping.Result, len(stored))
	copy(out, stored)
	return out
}
