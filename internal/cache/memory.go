package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

// MemoryStore is a map-backed Store. Expired entries are evicted lazily
// when read; there is no background sweep. The clock is injectable so
// tests can step time past a TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the store's time source. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.ttl > 0 && s.now().Sub(entry.createdAt) >= entry.ttl {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.entries[key] = memoryEntry{value: stored, createdAt: s.now(), ttl: ttl}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if entry, ok := s.entries[key]; ok {
		if entry.ttl == 0 || s.now().Sub(entry.createdAt) < entry.ttl {
			n, err := strconv.ParseInt(string(entry.value), 10, 64)
			if err != nil {
				return 0, errors.New("value at " + key + " is not an integer")
			}
			current = n
		}
	}

	current += delta
	s.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(current, 10)), createdAt: s.now()}
	return current, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
