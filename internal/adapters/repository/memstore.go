package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
	"github.com/okian/analysis-dashboard/pkg/metrics"
)

// MemoryStore keeps reports in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[analysis.Key]analysis.Report
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[analysis.Key]analysis.Report)}
}

func (s *MemoryStore) Save(_ context.Context, r analysis.Report) (analysis.Report, error) {
	r, err := prepare(r)
	if err != nil {
		return analysis.Report{}, err
	}

	s.mu.Lock()
	if old, ok := s.reports[r.Key()]; ok {
		r.ID = old.ID
	}
	s.reports[r.Key()] = r
	s.publish()
	s.mu.Unlock()

	return clone(r), nil
}

func (s *MemoryStore) FindByKey(_ context.Context, key analysis.Key) (analysis.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[key]
	if !ok {
		metrics.RecordErrorByType("repository_not_found", "low")
		return analysis.Report{}, ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) FindAll(_ context.Context) ([]analysis.Report, error) {
	s.mu.RLock()
	out := make([]analysis.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, clone(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Tool != out[j].Tool {
			return out[i].Tool < out[j].Tool
		}
		return out[i].Reference < out[j].Reference
	})
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports), nil
}

func (s *MemoryStore) Close() error { return nil }

// publish updates the stored gauges. Callers hold the write lock.
func (s *MemoryStore) publish() {
	issues := 0
	for _, r := range s.reports {
		issues += r.Size()
	}
	metrics.UpdateReportsStored(len(s.reports))
	metrics.UpdateIssuesStored(issues)
}

func clone(r analysis.Report) analysis.Report {
	r.Issues = append([]analysis.Issue(nil), r.Issues...)
	return r
}
