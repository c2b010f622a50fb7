package session

import (
	"context"
	"errors"
	"testing"

	"purrchase-storefront/internal/adapters/storage/memory"
	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/storage"
)

// fakeAPI scriptable por test. Cuenta llamadas para verificar que los
// guards locales no tocan la red.
type fakeAPI struct {
	loginFn    func(ctx context.Context, email, password string) (string, api.User, error)
	registerFn func(ctx context.Context, in api.RegisterInput) (string, error)
	profileFn  func(ctx context.Context, token string, in api.ProfileInput) (api.User, error)

	loginCalls int
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (string, api.User, error) {
	f.loginCalls++
	if f.loginFn == nil {
		return "", api.User{}, errors.New("login no configurado")
	}
	return f.loginFn(ctx, email, password)
}

func (f *fakeAPI) Register(ctx context.Context, in api.RegisterInput) (string, error) {
	if f.registerFn == nil {
		return "", errors.New("register no configurado")
	}
	return f.registerFn(ctx, in)
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, token string, in api.ProfileInput) (api.User, error) {
	if f.profileFn == nil {
		return api.User{}, errors.New("profile no configurado")
	}
	return f.profileFn(ctx, token, in)
}

func okLogin(token string, user api.User) func(context.Context, string, string) (string, api.User, error) {
	return func(context.Context, string, string) (string, api.User, error) {
		return token, user, nil
	}
}

func TestLoginGuardaSesionEnMemoriaYStorage(t *testing.T) {
	ctx := context.Background()
	user := api.User{ID: "u1", Username: "ana", Email: "ana@mail.com"}
	fa := &fakeAPI{loginFn: okLogin("tok-123", user)}
	store := memory.NewSessionStore()
	s := New(fa, store, nil)

	if err := s.Login(ctx, "ana@mail.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !s.IsAuthenticated() {
		t.Fatalf("esperaba sesión autenticada")
	}
	if got := s.Token(); got != "tok-123" {
		t.Fatalf("token: esperaba tok-123, obtuve %q", got)
	}
	if got := s.User().Username; got != "ana" {
		t.Fatalf("user: esperaba ana, obtuve %q", got)
	}

	rec, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("storage load: ok=%v err=%v", ok, err)
	}
	if rec.Token != "tok-123" || rec.User.ID != "u1" {
		t.Fatalf("record persistido inesperado: %+v", rec)
	}
}

func TestLoginFallidoPurgaStorageYDejaError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	// Token viejo de una sesión anterior.
	if err := store.Save(ctx, storage.Record{Token: "viejo", User: api.User{ID: "u0"}}); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	fa := &fakeAPI{loginFn: func(context.Context, string, string) (string, api.User, error) {
		return "", api.User{}, &api.RemoteError{Kind: api.ErrUnauthorized, Message: "Invalid credentials"}
	}}
	s := New(fa, store, nil)
	s.Init(ctx)

	if err := s.Login(ctx, "ana@mail.com", "mala"); err == nil {
		t.Fatalf("esperaba error de login")
	}

	if s.IsAuthenticated() || s.Token() != "" {
		t.Fatalf("la sesión debería quedar limpia tras el fallo")
	}
	if got := s.Snapshot().Error; got != "Invalid credentials" {
		t.Fatalf("error del store: esperaba el mensaje del server, obtuve %q", got)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatalf("el storage debería quedar purgado tras el fallo")
	}
}

func TestLoginInputVacioNoTocaRed(t *testing.T) {
	fa := &fakeAPI{}
	s := New(fa, memory.NewSessionStore(), nil)

	if err := s.Login(context.Background(), "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("esperaba ErrInvalidInput, obtuve %v", err)
	}
	if fa.loginCalls != 0 {
		t.Fatalf("no debería haber llamadas de red, hubo %d", fa.loginCalls)
	}
}

func TestInitRestauraSesionPersistida(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	if err := store.Save(ctx, storage.Record{Token: "tok-x", User: api.User{ID: "u1", Username: "ana"}}); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	s := New(&fakeAPI{}, store, nil)
	s.Init(ctx)

	// Autenticación optimista: sin round-trip de validación.
	if !s.IsAuthenticated() || s.Token() != "tok-x" {
		t.Fatalf("esperaba sesión restaurada, snapshot: %+v", s.Snapshot())
	}
}

func TestLogoutSiempreLimpia(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	fa := &fakeAPI{loginFn: okLogin("tok-123", api.User{ID: "u1"})}
	s := New(fa, store, nil)

	if err := s.Login(ctx, "ana@mail.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	s.Logout(ctx)

	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.Token != "" || snap.User.ID != "" || snap.Error != "" {
		t.Fatalf("logout debería dejar el estado en cero: %+v", snap)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatalf("logout debería limpiar el storage")
	}

	// Logout sobre sesión ya cerrada: mismo resultado, sin error.
	s.Logout(ctx)
	if s.IsAuthenticated() {
		t.Fatalf("logout repetido no debería reautenticar")
	}
}

func TestLoginViejoNoPisaAlNuevo(t *testing.T) {
	ctx := context.Background()

	// Se simula el interleaving: el login A queda en vuelo (bloqueado en
	// release), el login B entra y resuelve, y recién ahí A responde.
	release := make(chan struct{})
	started := make(chan struct{})
	fa := &fakeAPI{}
	fa.loginFn = func(_ context.Context, email, _ string) (string, api.User, error) {
		if email == "a@mail.com" {
			close(started)
			<-release
			return "tok-a", api.User{ID: "a"}, nil
		}
		return "tok-b", api.User{ID: "b"}, nil
	}

	s := New(fa, memory.NewSessionStore(), nil)

	errA := make(chan error, 1)
	go func() { errA <- s.Login(ctx, "a@mail.com", "x") }()
	<-started

	if err := s.Login(ctx, "b@mail.com", "x"); err != nil {
		t.Fatalf("login b: %v", err)
	}
	close(release)

	if err := <-errA; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("el login viejo debería descartarse, obtuve %v", err)
	}
	if got := s.Token(); got != "tok-b" {
		t.Fatalf("debería ganar el login más nuevo, token=%q", got)
	}
}

func TestRegisterNoAutentica(t *testing.T) {
	fa := &fakeAPI{registerFn: func(context.Context, api.RegisterInput) (string, error) {
		return "User Registered Successfully", nil
	}}
	s := New(fa, memory.NewSessionStore(), nil)

	msg, err := s.Register(context.Background(), api.RegisterInput{
		Username: "ana", Email: "ana@mail.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if msg != "User Registered Successfully" {
		t.Fatalf("mensaje inesperado: %q", msg)
	}
	if s.IsAuthenticated() {
		t.Fatalf("register no debería autenticar")
	}
}

func TestUpdateProfileRefrescaUserCacheado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	fa := &fakeAPI{
		loginFn: okLogin("tok-123", api.User{ID: "u1", Username: "ana", Email: "ana@mail.com"}),
		profileFn: func(_ context.Context, token string, in api.ProfileInput) (api.User, error) {
			if token != "tok-123" {
				return api.User{}, api.ErrUnauthorized
			}
			return api.User{ID: "u1", Username: in.Username, Email: in.Email, Phone: in.Phone}, nil
		},
	}
	s := New(fa, store, nil)
	if err := s.Login(ctx, "ana@mail.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	updated, err := s.UpdateProfile(ctx, api.ProfileInput{Username: "ana maría", Email: "ana@mail.com", Phone: "111"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Username != "ana maría" {
		t.Fatalf("user devuelto inesperado: %+v", updated)
	}
	if got := s.User().Phone; got != "111" {
		t.Fatalf("el user cacheado debería refrescarse, phone=%q", got)
	}

	rec, ok, _ := store.Load(ctx)
	if !ok || rec.User.Username != "ana maría" {
		t.Fatalf("el storage debería reflejar el perfil nuevo: %+v", rec)
	}
}

func TestUpdateProfileSinSesion(t *testing.T) {
	s := New(&fakeAPI{}, memory.NewSessionStore(), nil)

	_, err := s.UpdateProfile(context.Background(), api.ProfileInput{Username: "ana", Email: "a@mail.com"})
	if !errors.Is(err, api.ErrAuthRequired) {
		t.Fatalf("esperaba ErrAuthRequired, obtuve %v", err)
	}
}
