package api

import "context"

// Client es el puerto hacia la API del storefront (colaborador externo).
// Los adapters traducen HTTP a estos métodos; los stores solo ven esto.
type Client interface {
	// Auth
	Login(ctx context.Context, email, password string) (token string, user User, err error)
	Register(ctx context.Context, in RegisterInput) (message string, err error)

	// Perfil (bearer)
	Profile(ctx context.Context, token string) (User, error)
	UpdateProfile(ctx context.Context, token string, in ProfileInput) (User, error)

	// Catálogo (público)
	FindAll(ctx context.Context) ([]Pet, error)
	FindByID(ctx context.Context, petID string) (Pet, error)
	Gallery(ctx context.Context) ([]Pet, error)

	// Wishlist (bearer)
	FetchWishlist(ctx context.Context, token string) ([]Pet, error)
	AddWishlistItem(ctx context.Context, token, petID string) error
	RemoveWishlistItem(ctx context.Context, token, petID string) error

	// Adopción (bearer)
	AdoptedPets(ctx context.Context, token string) ([]Pet, error)
	CreateOrder(ctx context.Context, token, petID string) (Order, error)
	ValidatePayment(ctx context.Context, token, petID string, proof PaymentProof) error
}
