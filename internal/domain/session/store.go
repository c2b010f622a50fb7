package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/storage"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrSuperseded: la respuesta de este login llegó después de que se
	// disparó otro login más nuevo; se descarta sin tocar el estado.
	ErrSuperseded = errors.New("login superseded by a newer attempt")
)

// API es lo que el store necesita del puerto del storefront.
type API interface {
	Login(ctx context.Context, email, password string) (string, api.User, error)
	Register(ctx context.Context, in api.RegisterInput) (string, error)
	UpdateProfile(ctx context.Context, token string, in api.ProfileInput) (api.User, error)
}

// Snapshot es la vista read-only del estado de sesión.
type Snapshot struct {
	User            api.User
	Token           string
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Store es el contenedor de estado de autenticación de un cliente.
// A lo sumo una sesión por cliente; el token persiste en storage durable
// y se confía hasta que un request devuelva unauthorized.
type Store struct {
	api     API
	storage storage.SessionStore
	log     logger.Logger

	mu       sync.Mutex
	token    string
	user     api.User
	authed   bool
	loading  bool
	errMsg   string
	loginSeq uint64 // guarda contra respuestas de login viejas
}

func New(apiClient API, store storage.SessionStore, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		api:     apiClient,
		storage: store,
		log:     log.With(map[string]any{"store": "session"}),
	}
}

// Init carga la sesión persistida. Si hay token, queda autenticado de
// forma optimista, sin revalidar contra el server.
func (s *Store) Init(ctx context.Context) {
	rec, ok, err := s.storage.Load(ctx)
	if err != nil {
		s.log.Warn("session storage unreadable, starting logged out", logger.Err(err))
		return
	}
	if !ok || strings.TrimSpace(rec.Token) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = rec.Token
	s.user = rec.User
	s.authed = true
}

// Login autentica contra el server y persiste token + user.
// En fallo purga cualquier token viejo del storage y deja el mensaje del
// server en el error del store.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	s.loginSeq++
	seq := s.loginSeq
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	token, user, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loginSeq {
		// Ya hay un login más nuevo en vuelo o resuelto: esta respuesta
		// no puede pisar el estado.
		return ErrSuperseded
	}
	s.loading = false

	if err != nil {
		s.token = ""
		s.user = api.User{}
		s.authed = false
		s.errMsg = api.Message(err)
		if cerr := s.storage.Clear(ctx); cerr != nil {
			s.log.Warn("failed to purge session storage after login error", logger.Err(cerr))
		}
		return err
	}

	s.token = token
	s.user = user
	s.authed = true

	if serr := s.storage.Save(ctx, storage.Record{Token: token, User: user}); serr != nil {
		// La sesión en memoria sigue válida; solo no va a sobrevivir
		// un reinicio.
		s.log.Warn("failed to persist session", logger.Err(serr))
	}
	return nil
}

// Logout es síncrono: limpia memoria y storage, sin llamadas de red.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = api.User{}
	s.authed = false
	s.loading = false
	s.errMsg = ""
	s.loginSeq++ // invalida cualquier login en vuelo
	s.mu.Unlock()

	if err := s.storage.Clear(ctx); err != nil {
		s.log.Warn("failed to clear session storage on logout", logger.Err(err))
	}
}

// Register da de alta un usuario. El éxito NO autentica: el usuario tiene
// que loguearse después. Devuelve el mensaje de confirmación del server.
func (s *Store) Register(ctx context.Context, in api.RegisterInput) (string, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return "", ErrInvalidInput
	}

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	msg, err := s.api.Register(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = api.Message(err)
		return "", err
	}
	return msg, nil
}

// UpdateProfile actualiza el perfil en el server y refresca el user
// cacheado (memoria + storage) con lo que el server confirmó.
func (s *Store) UpdateProfile(ctx context.Context, in api.ProfileInput) (api.User, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" {
		return api.User{}, ErrInvalidInput
	}

	token := s.Token()
	if token == "" {
		return api.User{}, api.ErrAuthRequired
	}

	user, err := s.api.UpdateProfile(ctx, token, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = api.Message(err)
		return api.User{}, err
	}

	s.user = user
	if serr := s.storage.Save(ctx, storage.Record{Token: s.token, User: user}); serr != nil {
		s.log.Warn("failed to persist updated profile", logger.Err(serr))
	}
	return user, nil
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) User() api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		User:            s.user,
		Token:           s.token,
		IsAuthenticated: s.authed,
		Loading:         s.loading,
		Error:           s.errMsg,
	}
}
