package client

import (
	"context"
	"sync"
)

// Factory construye el bundle de stores para un client id nuevo.
type Factory func(ctx context.Context, clientID string) *Client

// Registry mapea client id (cookie de navegador) → bundle de stores.
// Un bundle por navegador; se crea lazy en el primer request.
type Registry struct {
	mu      sync.Mutex
	byID    map[string]*Client
	factory Factory
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		byID:    map[string]*Client{},
		factory: factory,
	}
}

func (r *Registry) Get(ctx context.Context, clientID string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.byID[clientID]; ok {
		return c
	}
	c := r.factory(ctx, clientID)
	r.byID[clientID] = c
	return c
}
