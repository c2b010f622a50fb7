package payments

import (
	"context"

	"purrchase-storefront/internal/ports/api"
)

// CheckoutOptions son los parámetros con los que se abre el checkout
// externo. Los tags JSON calcan las keys del widget hospedado, porque la
// struct viaja tal cual a la página que lo instancia.
type CheckoutOptions struct {
	KeyID    string `json:"key"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // unidad mínima de la moneda
	Currency string `json:"currency"`

	Name        string `json:"name"` // nombre del comercio
	Description string `json:"description"`
	ImageURL    string `json:"image,omitempty"`

	Prefill    api.Prefill       `json:"prefill"`
	Notes      map[string]string `json:"notes,omitempty"`
	ThemeColor string            `json:"theme_color,omitempty"`
}

// Callbacks es lo que el provider dispara al resolver el checkout.
// Exactamente uno de los tres se invoca por apertura.
type Callbacks struct {
	OnSuccess func(ctx context.Context, proof api.PaymentProof)
	OnFailure func(ctx context.Context, code, description string)
	OnDismiss func(ctx context.Context)
}

// Provider es el puerto hacia el checkout de pagos externo.
type Provider interface {
	// Load prepara la integración. Idempotente: si ya cargó, no hace nada.
	Load(ctx context.Context) error

	// Open abre el checkout con las options dadas y registra callbacks.
	Open(ctx context.Context, opts CheckoutOptions, cb Callbacks) error
}

// Bridge extiende Provider con el despacho de resultados que llega desde
// afuera (la página que embebe el widget). Keyed por order id.
type Bridge interface {
	Provider

	Confirm(ctx context.Context, orderID string, proof api.PaymentProof) error
	Fail(ctx context.Context, orderID, code, description string) error
	Dismiss(ctx context.Context, orderID string) error
}
