package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests. It honors TTLs against
// an injectable clock so expiry paths are testable without sleeping.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the clock used for expiry checks.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key Key, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key.String()]
	if !ok {
		return ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key.String())
		return ErrNotFound
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key.String()] = entry
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

// Len returns the number of live entries (test helper).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
