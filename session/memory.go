package session

import (
	"sync"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// MemoryStore keeps the session in process memory. It is the fallback for
// hosts with no usable persistent storage and the building block for the
// persistent stores.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read() (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, nil
}

func (s *MemoryStore) Write(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{
		AccessToken:  t.Access,
		RefreshToken: t.Refresh,
		AccessExpiry: expiryFrom(t, NowTimeFunc()),
	}
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	return nil
}
