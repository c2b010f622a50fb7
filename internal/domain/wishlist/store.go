package wishlist

import (
	"context"
	"errors"
	"strings"
	"sync"

	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/ports/api"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpdating: ya hay un add/remove en vuelo para ese pet. El caller
	// (UI) debería tener el control deshabilitado; acá solo se ignora.
	ErrUpdating = errors.New("wishlist update already in flight for this pet")
)

// TokenSource entrega el token vigente. El session store lo implementa.
type TokenSource interface {
	Token() string
}

// API es lo que el store necesita del puerto del storefront.
type API interface {
	FetchWishlist(ctx context.Context, token string) ([]api.Pet, error)
	AddWishlistItem(ctx context.Context, token, petID string) error
	RemoveWishlistItem(ctx context.Context, token, petID string) error
}

// Store mantiene la wishlist materializada del server.
//
// Estrategia de consistencia: refetch-based convergence. Cada mutación
// exitosa dispara un re-fetch completo ANTES de resolver; nunca se hace
// merge optimista local, así la lista visible es siempre causalmente
// posterior a la mutación que la generó y no puede divergir del server.
type Store struct {
	api    API
	tokens TokenSource
	log    logger.Logger

	mu      sync.Mutex
	pets    []api.Pet
	loading bool
	pending map[string]bool // add/remove en vuelo, por pet id
	errMsg  string
}

func New(apiClient API, tokens TokenSource, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		api:     apiClient,
		tokens:  tokens,
		log:     log.With(map[string]any{"store": "wishlist"}),
		pending: map[string]bool{},
	}
}

// Fetch reemplaza la lista entera con la respuesta del server.
// En fallo la lista queda VACÍA (fail-closed, no fail-stale) y el error
// del store queda seteado.
func (s *Store) Fetch(ctx context.Context) error {
	token := s.tokens.Token()
	if token == "" {
		return api.ErrAuthRequired
	}

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	pets, err := s.api.FetchWishlist(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.Message(err)
		s.pets = nil
		return err
	}
	s.pets = pets
	return nil
}

// Add agrega un pet y re-fetchea antes de resolver.
func (s *Store) Add(ctx context.Context, petID string) error {
	return s.mutate(ctx, petID, s.api.AddWishlistItem)
}

// Remove saca un pet y re-fetchea antes de resolver.
func (s *Store) Remove(ctx context.Context, petID string) error {
	return s.mutate(ctx, petID, s.api.RemoveWishlistItem)
}

func (s *Store) mutate(ctx context.Context, petID string, op func(context.Context, string, string) error) error {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return ErrInvalidInput
	}

	// Sin token no hay request: falla local inmediata.
	token := s.tokens.Token()
	if token == "" {
		return api.ErrAuthRequired
	}

	s.mu.Lock()
	if s.pending[petID] {
		s.mu.Unlock()
		return ErrUpdating
	}
	s.pending[petID] = true
	s.errMsg = ""
	s.mu.Unlock()

	// El flag pending se limpia en TODOS los desenlaces. Settles
	// superpuestos no corrompen: el último gana.
	defer func() {
		s.mu.Lock()
		delete(s.pending, petID)
		s.mu.Unlock()
	}()

	if err := op(ctx, token, petID); err != nil {
		// La lista existente no se toca: el server sigue siendo la verdad
		// del último fetch exitoso.
		s.mu.Lock()
		s.errMsg = api.Message(err)
		s.mu.Unlock()
		return err
	}

	// El éxito de la mutación no se refleja hasta que el refetch termina.
	return s.Fetch(ctx)
}

// Contains es una query derivada pura sobre la lista actual.
func (s *Store) Contains(petID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pets {
		if p.ID == petID {
			return true
		}
	}
	return false
}

// Updating indica si hay un add/remove en vuelo para ese pet.
func (s *Store) Updating(petID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[petID]
}

func (s *Store) Pets() []api.Pet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Pet, len(s.pets))
	copy(out, s.pets)
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}
