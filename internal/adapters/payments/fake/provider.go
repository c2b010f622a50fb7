package fake

import (
	"context"
	"errors"
	"sync"

	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
)

// Outcome define cómo resuelve el provider fake cada apertura.
type Outcome int

const (
	// Manual: Open solo registra; el test dispara el resultado después.
	Manual Outcome = iota
	Succeed
	Decline
	Dismissed
)

var ErrLoadFailed = errors.New("fake provider: load failed")

// Provider es un checkout scriptable para tests: resuelve cada Open según
// Outcome, o deja los callbacks registrados para dispararlos a mano.
type Provider struct {
	mu sync.Mutex

	FailLoad bool
	Outcome  Outcome

	// Respuestas para Succeed / Decline.
	Proof       api.PaymentProof
	FailCode    string
	FailMessage string

	LoadCalls int
	Opens     []payments.CheckoutOptions

	lastCB payments.Callbacks
}

func New() *Provider { return &Provider{} }

func (p *Provider) Load(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.LoadCalls++
	if p.FailLoad {
		return ErrLoadFailed
	}
	return nil
}

func (p *Provider) Open(ctx context.Context, opts payments.CheckoutOptions, cb payments.Callbacks) error {
	p.mu.Lock()
	p.Opens = append(p.Opens, opts)
	p.lastCB = cb
	outcome := p.Outcome
	proof := p.Proof
	code, desc := p.FailCode, p.FailMessage
	p.mu.Unlock()

	switch outcome {
	case Succeed:
		if proof.OrderID == "" {
			proof.OrderID = opts.OrderID
		}
		cb.OnSuccess(ctx, proof)
	case Decline:
		cb.OnFailure(ctx, code, desc)
	case Dismissed:
		cb.OnDismiss(ctx)
	}
	return nil
}

// Last devuelve los callbacks de la última apertura (modo Manual).
func (p *Provider) Last() payments.Callbacks {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCB
}
