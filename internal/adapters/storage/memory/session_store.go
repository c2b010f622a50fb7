package memory

import (
	"context"
	"sync"

	"purrchase-storefront/internal/ports/storage"
)

type sessionStore struct {
	mu  sync.RWMutex
	rec storage.Record
	set bool
}

// NewSessionStore crea un storage de sesión en memoria (dev/tests).
func NewSessionStore() storage.SessionStore {
	return &sessionStore{}
}

func (s *sessionStore) Load(ctx context.Context) (storage.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return storage.Record{}, false, nil
	}
	return s.rec, true, nil
}

func (s *sessionStore) Save(ctx context.Context, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = rec
	s.set = true
	return nil
}

func (s *sessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = storage.Record{}
	s.set = false
	return nil
}
