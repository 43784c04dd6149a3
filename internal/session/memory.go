package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Entries idle longer than ttl are
// treated as missing and swept lazily.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	touched  map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[string][]byte{},
		touched:  map[string]time.Time{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.sessions[s.ID] = raw
	m.touched[s.ID] = m.now()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.load(id)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(raw)
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(s *Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.load(id)
	if !ok {
		return nil, ErrNotFound
	}
	s, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.now().UTC()
	next, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	m.sessions[id] = next
	m.touched[id] = m.now()
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.touched, id)
	return nil
}

func (m *MemoryStore) load(id string) ([]byte, bool) {
	raw, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(m.touched[id]) > m.ttl {
		delete(m.sessions, id)
		delete(m.touched, id)
		return nil, false
	}
	return raw, true
}

func (m *MemoryStore) sweep() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	for id, at := range m.touched {
		if now.Sub(at) > m.ttl {
			delete(m.sessions, id)
			delete(m.touched, id)
		}
	}
}

func decode(raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Flagged == nil {
		s.Flagged = map[int64]bool{}
	}
	if s.ReadInbox == nil {
		s.ReadInbox = map[int64]bool{}
	}
	return &s, nil
}
