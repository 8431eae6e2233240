package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
)

type memoryEntry struct {
	response  *shared.StoredResponse
	expiresAt time.Time
}

// MemoryResponseStore implements shared.IdempotencyStore in process memory.
// Keys are not shared between instances.
type MemoryResponseStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryResponseStore creates a store and starts its expiry sweep
func NewMemoryResponseStore() *MemoryResponseStore {
	return newMemoryResponseStore(time.Now, 5*time.Minute)
}

func newMemoryResponseStore(now func() time.Time, sweepEvery time.Duration) *MemoryResponseStore {
	s := &MemoryResponseStore{
		entries: make(map[string]memoryEntry),
		now:     now,
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(sweepEvery)
	return s
}

// Reserve claims the key unless a live entry holds it
func (s *MemoryResponseStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && s.now().Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = memoryEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Complete stores the response for the key
func (s *MemoryResponseStore) Complete(_ context.Context, key string, resp shared.StoredResponse, ttl time.Duration) error {
	body := make([]byte, len(resp.Body))
	copy(body, resp.Body)
	resp.Body = body

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{response: &resp, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup returns the stored response, or nil while pending, unknown or expired
func (s *MemoryResponseStore) Lookup(_ context.Context, key string) (*shared.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) || e.response == nil {
		return nil, nil
	}
	out := *e.response
	return &out, nil
}

// Release drops a pending reservation
func (s *MemoryResponseStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.response == nil {
		delete(s.entries, key)
	}
	return nil
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *MemoryResponseStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries held, expired ones included
func (s *MemoryResponseStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryResponseStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryResponseStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ shared.IdempotencyStore = (*MemoryResponseStore)(nil)
