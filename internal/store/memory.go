package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
)

// MemoryStore is a map-backed DatasetStore. Stored datasets are deep copies.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]dataset.Dataset
	now  func() time.Time
	tick time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]dataset.Dataset{}, now: time.Now}
}

func (s *MemoryStore) stamp() time.Time {
	// strictly increasing so newest-first ordering is stable within a test
	s.tick += time.Nanosecond
	return s.now().Add(s.tick)
}

func (s *MemoryStore) List(ctx context.Context, userID, projectID string) ([]dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []dataset.Dataset{}
	for _, ds := range s.m {
		if matchesUser(ds, userID) && (projectID == "" || ds.ProjectID == projectID) {
			out = append(out, ds.Clone())
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	cp := ds.Clone()
	return &cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, ds dataset.Dataset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ds.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds = prepare(ds.Clone(), s.stamp())
	s.m[ds.ID] = ds
	return ds.ID, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, p Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.m[id]
	if !ok {
		return fmt.Errorf("update dataset %s: %w", id, errs.ErrNotFound)
	}
	p.apply(&ds, s.stamp())
	s.m[id] = ds
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return fmt.Errorf("delete dataset %s: %w", id, errs.ErrNotFound)
	}
	delete(s.m, id)
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, userID, term string) ([]dataset.Dataset, error) {
	all, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	out := []dataset.Dataset{}
	for _, ds := range all {
		if matchesTerm(ds, term) {
			out = append(out, ds)
		}
	}
	return out, nil
}
