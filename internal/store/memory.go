package store

import (
	"context"
	"sync"

	"goldennet/internal/metrics"
	"goldennet/internal/model"
)

// MemoryStore keeps everything in process memory. Models are deep copied on
// the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	model    *model.Model
	progress *metrics.Ring
}

// NewMemoryStore returns an empty store keeping at most progressCap snapshots.
func NewMemoryStore(progressCap int) *MemoryStore {
	return &MemoryStore{progress: metrics.NewRing(progressCap)}
}

func (s *MemoryStore) Save(_ context.Context, m *model.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m.Clone()
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*model.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, model.ErrNotFound
	}
	return s.model.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = nil
	return nil
}

func (s *MemoryStore) Append(_ context.Context, snap metrics.Snapshot) error {
	s.progress.Append(snap)
	return nil
}

func (s *MemoryStore) Snapshots(_ context.Context) ([]metrics.Snapshot, error) {
	return s.progress.Snapshots(), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.progress.Reset()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
