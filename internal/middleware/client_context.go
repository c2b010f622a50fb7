package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"purrchase-storefront/internal/client"
)

type ctxKey string

const clientKey ctxKey = "client"

// CookieName identifica al navegador; no es la sesión de usuario (esa
// vive en el session store), solo la llave del bundle de stores.
const CookieName = "psid"

// ClientContext resuelve el bundle de stores del navegador:
// - cookie presente => bundle existente (o recreado desde storage durable)
// - sin cookie => se setea una nueva y se crea un bundle limpio
func ClientContext(reg *client.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(CookieName); err == nil {
				id = strings.TrimSpace(c.Value)
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			cl := reg.Get(r.Context(), id)
			ctx := context.WithValue(r.Context(), clientKey, cl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClient saca el bundle del contexto del request.
func GetClient(ctx context.Context) (*client.Client, bool) {
	v := ctx.Value(clientKey)
	if v == nil {
		return nil, false
	}
	c, ok := v.(*client.Client)
	return c, ok
}
