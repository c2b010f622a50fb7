package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/ports/api"
)

// Filter son los filtros client-side del browse: set de especies,
// disponibilidad y precio/edad máximos. Se aplican sobre la última lista
// fetcheada, sin ir al server.
type Filter struct {
	Species       map[string]bool // vacío => todas
	AvailableOnly bool
	MaxPrice      float64 // 0 => sin tope
	MaxAge        int     // 0 => sin tope
}

// API es lo que el store necesita del puerto del storefront.
type API interface {
	FindAll(ctx context.Context) ([]api.Pet, error)
	FindByID(ctx context.Context, petID string) (api.Pet, error)
	Gallery(ctx context.Context) ([]api.Pet, error)
}

// Store mantiene el catálogo de pets del lado cliente: la última lista
// fetcheada, el detalle por id y los filtros derivados.
type Store struct {
	api API
	log logger.Logger

	// Colapsa fetches duplicados en vuelo del mismo recurso; un
	// double-submit rápido resulta en un solo round-trip.
	group singleflight.Group

	mu      sync.Mutex
	pets    []api.Pet
	byID    map[string]api.Pet
	loading bool
	errMsg  string
}

func New(apiClient API, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		api:  apiClient,
		log:  log.With(map[string]any{"store": "catalog"}),
		byID: map[string]api.Pet{},
	}
}

// FetchAll trae el catálogo completo y lo reemplaza.
func (s *Store) FetchAll(ctx context.Context) ([]api.Pet, error) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	v, err, _ := s.group.Do("find", func() (any, error) {
		return s.api.FindAll(ctx)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.Message(err)
		return nil, err
	}

	pets := v.([]api.Pet)
	s.pets = pets
	for _, p := range pets {
		s.byID[p.ID] = p
	}
	return pets, nil
}

// Gallery trae los destacados de la home. No reemplaza el catálogo.
func (s *Store) Gallery(ctx context.Context) ([]api.Pet, error) {
	v, err, _ := s.group.Do("gallery", func() (any, error) {
		return s.api.Gallery(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]api.Pet), nil
}

// Get trae el detalle de un pet. Id desconocido => api.ErrNotFound.
func (s *Store) Get(ctx context.Context, petID string) (api.Pet, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return api.Pet{}, api.ErrNotFound
	}

	v, err, _ := s.group.Do("pet:"+petID, func() (any, error) {
		return s.api.FindByID(ctx, petID)
	})
	if err != nil {
		return api.Pet{}, err
	}

	pet := v.(api.Pet)
	s.mu.Lock()
	s.byID[pet.ID] = pet
	s.mu.Unlock()
	return pet, nil
}

// MarkAdopted baja la disponibilidad local tras una adopción verificada.
// Update optimista de vista: el server ya la marcó al validar el pago.
func (s *Store) MarkAdopted(petID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byID[petID]; ok {
		p.Available = false
		s.byID[petID] = p
	}
	for i := range s.pets {
		if s.pets[i].ID == petID {
			s.pets[i].Available = false
		}
	}
}

// Cached devuelve el detalle cacheado si existe (sin red).
func (s *Store) Cached(petID string) (api.Pet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[petID]
	return p, ok
}

// Filtered aplica los filtros sobre la última lista fetcheada.
func (s *Store) Filtered(f Filter) []api.Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.Pet, 0, len(s.pets))
	for _, p := range s.pets {
		if f.AvailableOnly && !p.Available {
			continue
		}
		if len(f.Species) > 0 && !f.Species[strings.ToLower(p.Species)] {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		if f.MaxAge > 0 && p.Age > f.MaxAge {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DistinctSpecies lista las especies vistas en el catálogo, ordenadas.
func (s *Store) DistinctSpecies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	for _, p := range s.pets {
		sp := strings.ToLower(strings.TrimSpace(p.Species))
		if sp == "" {
			continue
		}
		seen[sp] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for sp := range seen {
		out = append(out, sp)
	}
	sort.Strings(out)
	return out
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
