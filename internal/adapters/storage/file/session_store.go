package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"purrchase-storefront/internal/ports/storage"
)

// sessionStore persiste el Record como JSON en un archivo local.
// Es el análogo directo del localStorage del front original: un solo
// registro, leído al inicio, escrito por login/logout.
type sessionStore struct {
	mu   sync.Mutex
	path string
}

// NewSessionStore crea un storage de sesión sobre path.
func NewSessionStore(path string) (storage.SessionStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("file storage: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &sessionStore{path: path}, nil
}

func (s *sessionStore) Load(ctx context.Context) (storage.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Record{}, false, nil
		}
		return storage.Record{}, false, err
	}

	var rec storage.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		// Archivo corrupto: se trata como sesión ausente, no como error fatal.
		return storage.Record{}, false, nil
	}
	if strings.TrimSpace(rec.Token) == "" {
		return storage.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *sessionStore) Save(ctx context.Context, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// Escritura vía tmp + rename para no dejar un archivo a medias.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *sessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
