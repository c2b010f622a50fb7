package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/storage"
)

// SessionStore persiste el Record de sesión de cada cliente (navegador)
// en Postgres. Para despliegues hospedados, donde el facade sobrevive
// reinicios y el "localStorage" vive del lado server.
//
// Esquema esperado:
//
//	CREATE TABLE client_sessions (
//	    client_id  TEXT PRIMARY KEY,
//	    token      TEXT NOT NULL,
//	    user_json  JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type SessionStore struct {
	db       *sql.DB
	clientID string
	now      func() time.Time
}

// NewSessionStore crea el storage para un client id (cookie de navegador).
func NewSessionStore(db *sql.DB, clientID string) *SessionStore {
	return &SessionStore{
		db:       db,
		clientID: strings.TrimSpace(clientID),
		now:      time.Now,
	}
}

func (s *SessionStore) Load(ctx context.Context) (storage.Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, user_json
		FROM client_sessions
		WHERE client_id = $1
	`, s.clientID)

	var (
		token    string
		userJSON []byte
	)
	if err := row.Scan(&token, &userJSON); err != nil {
		if err == sql.ErrNoRows {
			return storage.Record{}, false, nil
		}
		return storage.Record{}, false, err
	}

	var user api.User
	if len(userJSON) > 0 {
		if err := json.Unmarshal(userJSON, &user); err != nil {
			return storage.Record{}, false, err
		}
	}

	if strings.TrimSpace(token) == "" {
		return storage.Record{}, false, nil
	}
	return storage.Record{Token: token, User: user}, true, nil
}

func (s *SessionStore) Save(ctx context.Context, rec storage.Record) error {
	userJSON, err := json.Marshal(rec.User)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO client_sessions (client_id, token, user_json, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE
		SET token = EXCLUDED.token,
		    user_json = EXCLUDED.user_json,
		    updated_at = EXCLUDED.updated_at
	`,
		s.clientID,
		rec.Token,
		userJSON,
		s.now(),
	)
	return err
}

func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM client_sessions WHERE client_id = $1
	`, s.clientID)
	return err
}
