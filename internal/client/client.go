// Package client arma el contenedor de estado de un cliente (navegador):
// los stores se inyectan explícitamente, nada de singletons a nivel módulo,
// así cada test puede construir su propio mundo aislado.
package client

import (
	"context"

	"purrchase-storefront/internal/domain/catalog"
	"purrchase-storefront/internal/domain/checkout"
	"purrchase-storefront/internal/domain/session"
	"purrchase-storefront/internal/domain/wishlist"
	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
	"purrchase-storefront/internal/ports/storage"
)

// Client agrupa los stores de una sesión de navegador.
type Client struct {
	Session  *session.Store
	Wishlist *wishlist.Store
	Catalog  *catalog.Store
	Checkout *checkout.Orchestrator
}

// New cablea los stores entre sí e inicializa la sesión desde storage.
func New(ctx context.Context, apiClient api.Client, provider payments.Provider, store storage.SessionStore, log logger.Logger) *Client {
	sess := session.New(apiClient, store, log)
	sess.Init(ctx)

	cat := catalog.New(apiClient, log)
	co := checkout.New(apiClient, provider, sess, log)
	co.OnAdopted(cat.MarkAdopted)

	return &Client{
		Session:  sess,
		Wishlist: wishlist.New(apiClient, sess, log),
		Catalog:  cat,
		Checkout: co,
	}
}
