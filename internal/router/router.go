package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	fileadapter "purrchase-storefront/internal/adapters/storage/file"
	"purrchase-storefront/internal/adapters/storage/memory"
	"purrchase-storefront/internal/adapters/storage/postgres"
	"purrchase-storefront/internal/client"
	"purrchase-storefront/internal/middleware"
	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
	"purrchase-storefront/internal/ports/storage"
)

type Options struct {
	API      api.Client      // upstream storefront (requerido)
	Provider payments.Bridge // checkout externo (requerido)
	Logger   logger.Logger

	// Storage durable de sesión. Si DB viene (o DB_DSN por env), Postgres.
	// Si no, SESSION_DIR => archivos JSON. Si no, memoria.
	DB         *sql.DB
	SessionDir string
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := postgres.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("DB_DSN set but postgres unreachable, falling back", logger.Err(err))
			}
		}
	}
	sessionDir := opts.SessionDir
	if sessionDir == "" {
		sessionDir = os.Getenv("SESSION_DIR")
	}

	newStorage := func(clientID string) storage.SessionStore {
		if db != nil {
			return postgres.NewSessionStore(db, clientID)
		}
		if sessionDir != "" {
			st, err := fileadapter.NewSessionStore(filepath.Join(sessionDir, clientID+".json"))
			if err == nil {
				return st
			}
			log.Warn("file session storage unavailable, using memory", logger.Err(err))
		}
		return memory.NewSessionStore()
	}

	reg := client.NewRegistry(func(ctx context.Context, clientID string) *client.Client {
		return client.New(ctx, opts.API, opts.Provider, newStorage(clientID), log)
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Use(middleware.ClientContext(reg))

		ar.Post("/login", loginHandler())
		ar.Post("/logout", logoutHandler())
		ar.Post("/register", registerHandler())
		ar.Get("/session", sessionHandler())
		ar.Put("/profile", updateProfileHandler())

		ar.Get("/pets", listPetsHandler())
		ar.Get("/pets/{petID}", getPetHandler())
		ar.Get("/gallery", galleryHandler())

		ar.Get("/my-adopted-pets", adoptedPetsHandler(opts.API))

		ar.Get("/wishlist", wishlistHandler())
		ar.Post("/wishlist/items/{petID}", addWishlistHandler())
		ar.Delete("/wishlist/items/{petID}", removeWishlistHandler())

		ar.Post("/checkout/{petID}", startCheckoutHandler(opts.Provider))
		ar.Get("/checkout/{petID}", checkoutStateHandler())
		ar.Post("/checkout/{petID}/confirm", confirmCheckoutHandler(opts.Provider))
		ar.Post("/checkout/{petID}/fail", failCheckoutHandler(opts.Provider))
		ar.Post("/checkout/{petID}/dismiss", dismissCheckoutHandler(opts.Provider))
	})

	return r
}
