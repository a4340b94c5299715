package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

// Store keeps records in process memory. Records are copied in and out so
// callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	jobs   []translation.Job
	byID   map[string]int
	status []translation.StatusCheck
}

func New() *Store {
	return &Store{
		byID: make(map[string]int),
	}
}

func (s *Store) SaveJob(ctx context.Context, job *translation.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := *job
	j.Entries = append([]translation.Outcome(nil), job.Entries...)
	s.byID[j.ID] = len(s.jobs)
	s.jobs = append(s.jobs, j)
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*translation.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	j := s.jobs[idx]
	j.Entries = append([]translation.Outcome(nil), j.Entries...)
	return &j, nil
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]translation.Summary, error) {
	s.mu.RLock()
	out := make([]translation.Summary, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Summary)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveStatus(ctx context.Context, check *translation.StatusCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = append(s.status, *check)
	return nil
}

func (s *Store) ListStatus(ctx context.Context, limit int) ([]translation.StatusCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.status)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]translation.StatusCheck, n)
	copy(out, s.status[:n])
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
