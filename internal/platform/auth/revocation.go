package auth

import (
	"sync"
	"time"
)

// RevocationStore remembers token ids that were signed out so they stop
// authenticating before their natural expiry. Entries are dropped once the
// token would have expired anyway.
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewRevocationStore starts a background sweep every interval.
func NewRevocationStore(interval time.Duration) *RevocationStore {
	s := &RevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if interval > 0 {
		go s.sweepLoop(interval)
	}
	return s
}

func (s *RevocationStore) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	s.mu.Lock()
	s.entries[tokenID] = expiresAt
	s.mu.Unlock()
}

func (s *RevocationStore) IsRevoked(tokenID string) bool {
	s.mu.RLock()
	_, ok := s.entries[tokenID]
	s.mu.RUnlock()
	return ok
}

func (s *RevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the sweep. Safe to call more than once.
func (s *RevocationStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *RevocationStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *RevocationStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, id)
		}
	}
}
