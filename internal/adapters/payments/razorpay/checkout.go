package razorpay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
)

// DefaultScriptURL es el script del checkout hospedado.
const DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

var (
	ErrLoadFailed     = errors.New("razorpay checkout failed to load")
	ErrUnknownOrder   = errors.New("razorpay: unknown order")
	ErrAlreadySettled = errors.New("razorpay: checkout already settled")
)

// Config del bridge de checkout.
type Config struct {
	// ScriptURL permite apuntar a otro host (tests). Vacío => default.
	ScriptURL string

	// HTTPClient para el chequeo de carga. Nil => client con timeout corto.
	HTTPClient *http.Client
}

// Checkout implementa payments.Bridge contra el checkout hospedado de
// Razorpay. El widget corre en la página; acá vive el lado server:
// verificación de carga, registro de aperturas y despacho de resultados.
type Checkout struct {
	scriptURL string
	http      *http.Client

	mu     sync.Mutex
	loaded bool
	open   map[string]*opened // por order id
}

type opened struct {
	opts    payments.CheckoutOptions
	cb      payments.Callbacks
	settled bool
}

func New(cfg Config) *Checkout {
	u := strings.TrimSpace(cfg.ScriptURL)
	if u == "" {
		u = DefaultScriptURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Checkout{
		scriptURL: u,
		http:      hc,
		open:      map[string]*opened{},
	}
}

// Load verifica que el script del checkout sea alcanzable.
// Idempotente: el primer éxito se cachea; los fallos no.
func (c *Checkout) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status=%d", ErrLoadFailed, resp.StatusCode)
	}

	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Open registra una apertura de checkout. Las options viajan a la página
// (vía Options) y el resultado vuelve por Confirm/Fail/Dismiss.
func (c *Checkout) Open(_ context.Context, opts payments.CheckoutOptions, cb payments.Callbacks) error {
	if strings.TrimSpace(opts.OrderID) == "" {
		return errors.New("razorpay: order id required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Reabrir el mismo order pisa la apertura anterior (retry tras fallo).
	c.open[opts.OrderID] = &opened{opts: opts, cb: cb}
	return nil
}

// Options devuelve las options registradas para un order (lo que la página
// necesita para instanciar el widget).
func (c *Checkout) Options(orderID string) (payments.CheckoutOptions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := c.open[orderID]
	if !ok {
		return payments.CheckoutOptions{}, false
	}
	return o.opts, true
}

// Confirm despacha el éxito del pago al callback registrado.
func (c *Checkout) Confirm(ctx context.Context, orderID string, proof api.PaymentProof) error {
	o, err := c.settle(orderID)
	if err != nil {
		return err
	}
	if o.cb.OnSuccess != nil {
		o.cb.OnSuccess(ctx, proof)
	}
	return nil
}

// Fail despacha un pago rechazado (tarjeta declinada, etc.).
func (c *Checkout) Fail(ctx context.Context, orderID, code, description string) error {
	o, err := c.settle(orderID)
	if err != nil {
		return err
	}
	if o.cb.OnFailure != nil {
		o.cb.OnFailure(ctx, code, description)
	}
	return nil
}

// Dismiss despacha el cierre del widget sin pagar.
func (c *Checkout) Dismiss(ctx context.Context, orderID string) error {
	o, err := c.settle(orderID)
	if err != nil {
		return err
	}
	if o.cb.OnDismiss != nil {
		o.cb.OnDismiss(ctx)
	}
	return nil
}

// settle marca la apertura como resuelta. Resultados duplicados para el
// mismo order no vuelven a disparar callbacks.
func (c *Checkout) settle(orderID string) (*opened, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := c.open[orderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.settled {
		return nil, ErrAlreadySettled
	}
	o.settled = true
	return o, nil
}
