package mcp

import (
	"sync"

	"github.com/ksyq12/hostcheck/internal/runner"
)

const defaultStoreSize = 10

// resultStore keeps the most recent suite results by run ID.
type resultStore struct {
	mu    sync.Mutex
	size  int
	order []string
	byID  map[string]*runner.SuiteResult
}

func newResultStore(size int) *resultStore {
	return &resultStore{size: size, byID: make(map[string]*runner.SuiteResult)}
}

func (s *resultStore) put(r *runner.SuiteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.RunID]; !ok {
		s.order = append(s.order, r.RunID)
	}
	s.byID[r.RunID] = r
	for len(s.order) > s.size {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *resultStore) get(runID string) (*runner.SuiteResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[runID]
	return r, ok
}
