package journal

import (
	"context"
	"fmt"
	"sync"
)

const defaultCapacity = 200

// memoryStore keeps the newest entries in a fixed-size ring.
type memoryStore struct {
	mu    sync.RWMutex
	ring  []*Entry
	next  int
	size  int
	index map[string]*Entry
}

func NewMemory(capacity int) Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &memoryStore{
		ring:  make([]*Entry, capacity),
		index: make(map[string]*Entry, capacity),
	}
}

func (s *memoryStore) Save(_ context.Context, entry *Entry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("entry id required")
	}
	copied := *entry

	s.mu.Lock()
	defer s.mu.Unlock()
	if evicted := s.ring[s.next]; evicted != nil {
		delete(s.index, evicted.ID)
	}
	s.ring[s.next] = &copied
	s.index[copied.ID] = &copied
	s.next = (s.next + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]*Entry, error) {
	limit = ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	n := min(limit, s.size)
	out := make([]*Entry, 0, n)
	for i := 1; i <= n; i++ {
		pos := (s.next - i + len(s.ring)) % len(s.ring)
		copied := *s.ring[pos]
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memoryStore) Stats(context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{Driver: DriverMemory, Count: int64(s.size)}
	if s.size > 0 {
		newest := s.ring[(s.next-1+len(s.ring))%len(s.ring)].CreatedAt
		stats.Newest = &newest
	}
	return stats, nil
}

func (s *memoryStore) Close() error { return nil }
