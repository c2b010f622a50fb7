package purrchase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"purrchase-storefront/internal/platform/httpclient"
	"purrchase-storefront/internal/ports/api"
)

var ErrNotConfigured = errors.New("purrchase client not configured")

// Config del cliente hacia la API del storefront.
// BaseURL normalmente viene de env (API_BASE_URL).
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implementa api.Client contra la API REST del storefront.
type Client struct {
	http *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// NewClientWithHTTP permite inyectar el httpclient (tests).
func NewClientWithHTTP(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

func (c *Client) Login(ctx context.Context, email, password string) (string, api.User, error) {
	in := map[string]string{"email": email, "password": password}
	var out struct {
		Token string   `json:"token"`
		User  api.User `json:"user"`
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/login", nil, in, &out); err != nil {
		return "", api.User{}, mapErr(err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", api.User{}, &api.RemoteError{Kind: api.ErrNetwork, Message: "login response missing token"}
	}
	return out.Token, out.User, nil
}

func (c *Client) Register(ctx context.Context, in api.RegisterInput) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/register", nil, in, &out); err != nil {
		return "", mapErr(err)
	}
	return out.Message, nil
}

func (c *Client) Profile(ctx context.Context, token string) (api.User, error) {
	var out api.User
	if err := c.http.DoJSON(ctx, http.MethodGet, "/profile", httpclient.Bearer(token), nil, &out); err != nil {
		return api.User{}, mapErr(err)
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, in api.ProfileInput) (api.User, error) {
	var out struct {
		Message string   `json:"message"`
		User    api.User `json:"user"`
	}
	if err := c.http.DoJSON(ctx, http.MethodPut, "/profile", httpclient.Bearer(token), in, &out); err != nil {
		return api.User{}, mapErr(err)
	}
	return out.User, nil
}

func (c *Client) FindAll(ctx context.Context) ([]api.Pet, error) {
	var out []api.Pet
	if err := c.http.DoJSON(ctx, http.MethodGet, "/find", nil, nil, &out); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (c *Client) FindByID(ctx context.Context, petID string) (api.Pet, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return api.Pet{}, api.ErrNotFound
	}
	var out api.Pet
	if err := c.http.DoJSON(ctx, http.MethodGet, "/find/"+petID, nil, nil, &out); err != nil {
		return api.Pet{}, mapErr(err)
	}
	// El server responde 200 con body vacío para ids desconocidos.
	if strings.TrimSpace(out.ID) == "" {
		return api.Pet{}, api.ErrNotFound
	}
	return out, nil
}

func (c *Client) Gallery(ctx context.Context) ([]api.Pet, error) {
	var out []api.Pet
	if err := c.http.DoJSON(ctx, http.MethodGet, "/gallery", nil, nil, &out); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (c *Client) FetchWishlist(ctx context.Context, token string) ([]api.Pet, error) {
	var out struct {
		Pets []api.Pet `json:"pets"`
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, "/wishlist", httpclient.Bearer(token), nil, &out); err != nil {
		return nil, mapErr(err)
	}
	return out.Pets, nil
}

func (c *Client) AddWishlistItem(ctx context.Context, token, petID string) error {
	if err := c.http.DoJSON(ctx, http.MethodPost, "/wishlist/items/"+petID, httpclient.Bearer(token), struct{}{}, nil); err != nil {
		return mapErr(err)
	}
	return nil
}

func (c *Client) RemoveWishlistItem(ctx context.Context, token, petID string) error {
	if err := c.http.DoJSON(ctx, http.MethodDelete, "/wishlist/items/"+petID, httpclient.Bearer(token), nil, nil); err != nil {
		return mapErr(err)
	}
	return nil
}

func (c *Client) AdoptedPets(ctx context.Context, token string) ([]api.Pet, error) {
	var out struct {
		Pets []api.Pet `json:"pets"`
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, "/my-adopted-pets", httpclient.Bearer(token), nil, &out); err != nil {
		return nil, mapErr(err)
	}
	return out.Pets, nil
}

func (c *Client) CreateOrder(ctx context.Context, token, petID string) (api.Order, error) {
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		api.Order
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/orders/create/"+petID, httpclient.Bearer(token), struct{}{}, &out); err != nil {
		return api.Order{}, mapErr(err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "failed to create order"
		}
		return api.Order{}, &api.RemoteError{Kind: api.ErrValidation, Message: msg}
	}
	return out.Order, nil
}

func (c *Client) ValidatePayment(ctx context.Context, token, petID string, proof api.PaymentProof) error {
	in := struct {
		api.PaymentProof
		PetID string `json:"petId"`
	}{PaymentProof: proof, PetID: petID}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/orders/validate", httpclient.Bearer(token), in, &out); err != nil {
		// Cualquier rechazo en este endpoint es verificación fallida:
		// el pago ya fue capturado por el provider.
		return &api.RemoteError{Kind: api.ErrVerificationFailed, Message: api.Message(mapErr(err))}
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "payment verification failed"
		}
		return &api.RemoteError{Kind: api.ErrVerificationFailed, Message: msg}
	}
	return nil
}

// mapErr traduce errores de transporte/HTTP a la taxonomía del core.
func mapErr(err error) error {
	var he *httpclient.HTTPError
	if !errors.As(err, &he) {
		// Sin respuesta del server.
		return &api.RemoteError{Kind: api.ErrNetwork, Message: err.Error()}
	}

	msg := remoteMessage(he)
	switch {
	case he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden:
		return &api.RemoteError{Kind: api.ErrUnauthorized, Message: msg}
	case he.StatusCode == http.StatusNotFound:
		return &api.RemoteError{Kind: api.ErrNotFound, Message: msg}
	case he.StatusCode >= 400 && he.StatusCode < 500:
		return &api.RemoteError{Kind: api.ErrValidation, Message: msg}
	default:
		return &api.RemoteError{Kind: api.ErrNetwork, Message: msg}
	}
}

func remoteMessage(he *httpclient.HTTPError) string {
	var body struct {
		Error string `json:"error"`
	}
	if he.DecodeJSON(&body) && strings.TrimSpace(body.Error) != "" {
		return body.Error
	}
	return fmt.Sprintf("request failed with status %d", he.StatusCode)
}
