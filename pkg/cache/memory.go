package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryIdempotencyStore is the single-process fallback when Redis is not configured.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (s *MemoryIdempotencyStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return nil
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// MemoryCounter is a fixed-window counter for a single process.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]counterWindow
	now     func() time.Time
}

type counterWindow struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]counterWindow),
		now:     time.Now,
	}
}

func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = counterWindow{expiresAt: now.Add(window)}
	}
	w.count++
	c.windows[key] = w
	return w.count, nil
}
