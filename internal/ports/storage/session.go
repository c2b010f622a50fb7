package storage

import (
	"context"

	"purrchase-storefront/internal/ports/api"
)

// Record es lo único que se persiste entre procesos: token opaco + perfil
// cacheado. Ausente cuando no hay sesión.
type Record struct {
	Token string   `json:"authToken"`
	User  api.User `json:"authUser"`
}

// SessionStore es el puerto de almacenamiento durable de la sesión.
// Se lee una vez al inicio y solo escriben login/logout.
type SessionStore interface {
	Load(ctx context.Context) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}
