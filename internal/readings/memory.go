package readings

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps readings in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	readings map[string]Reading
	now      func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{readings: make(map[string]Reading), now: time.Now}
}

func (s *MemoryStore) Update(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()
	for name, value := range values {
		s.readings[name] = Reading{Value: value, Time: ts}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[name]
	return r.Value, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.readings {
		if Match(pattern, name) {
			delete(s.readings, name)
		}
	}
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (map[string]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.readings), nil
}
