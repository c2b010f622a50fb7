package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"purrchase-storefront/internal/platform/logger"
	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
)

// State del intento de adopción. Una máquina chica pero explícita:
// los paths de cancelación/fallo tienen que ser testeables sin provider real.
type State string

const (
	StateIdle            State = "idle"
	StateOrderCreated    State = "order_created"
	StateAwaitingPayment State = "awaiting_payment"
	StateVerifying       State = "verifying"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
	StateCancelled       State = "cancelled"
)

var (
	ErrPetUnavailable = errors.New("pet is no longer available")

	// ErrCheckoutActive: ya hay un intento en curso para este pet.
	ErrCheckoutActive = errors.New("a checkout is already in progress for this pet")

	ErrProviderLoad = errors.New("payment gateway failed to load")

	ErrNoAttempt = errors.New("no checkout attempt for this pet")
)

const (
	merchantName = "Purr-chase Adoption"
	themeColor   = "#F37254"
)

// Identity es lo que el orquestador necesita del session store.
type Identity interface {
	Token() string
	User() api.User
}

// API es lo que el orquestador necesita del puerto del storefront.
type API interface {
	CreateOrder(ctx context.Context, token, petID string) (api.Order, error)
	ValidatePayment(ctx context.Context, token, petID string, proof api.PaymentProof) error
}

// Attempt es el snapshot de un intento de checkout. Efímero: vive lo que
// dura un click de "Adopt Now", nunca se persiste.
type Attempt struct {
	ID    string
	PetID string
	Order api.Order
	State State

	// Fallo del provider (tarjeta declinada, etc.)
	FailureCode string
	FailureDesc string

	// Verificación rechazada: el pago fue capturado pero no confirmado.
	// SupportWarning queda pegado al intento (el usuario tiene que
	// contactar soporte; el estado local y el del server pueden diferir).
	VerificationFailed bool
	SupportWarning     string

	StartedAt time.Time
}

type attempt struct {
	Attempt
}

// Orchestrator secuencia create-order → checkout externo → verificación,
// un intento activo por pet como máximo.
type Orchestrator struct {
	api      API
	provider payments.Provider
	identity Identity
	log      logger.Logger

	// onAdopted marca el pet como no disponible en el estado local de
	// catálogo tras una adopción verificada (update optimista).
	onAdopted func(petID string)

	mu       sync.Mutex
	attempts map[string]*attempt // por pet id
	now      func() time.Time
}

func New(apiClient API, provider payments.Provider, identity Identity, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		api:      apiClient,
		provider: provider,
		identity: identity,
		log:      log.With(map[string]any{"store": "checkout"}),
		attempts: map[string]*attempt{},
		now:      time.Now,
	}
}

// OnAdopted registra el hook de catálogo. Opcional.
func (o *Orchestrator) OnAdopted(fn func(petID string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onAdopted = fn
}

// Start arranca un intento para pet:
//
//	idle → order_created → awaiting_payment
//
// Precondiciones (sin red): pet disponible, sesión autenticada, ningún
// otro intento activo para el mismo pet.
func (o *Orchestrator) Start(ctx context.Context, pet api.Pet) (Attempt, error) {
	if strings.TrimSpace(pet.ID) == "" {
		return Attempt{}, api.ErrNotFound
	}
	if !pet.Available {
		return Attempt{}, ErrPetUnavailable
	}
	token := o.identity.Token()
	if token == "" {
		return Attempt{}, api.ErrAuthRequired
	}

	o.mu.Lock()
	if cur, ok := o.attempts[pet.ID]; ok && cur.busy() {
		o.mu.Unlock()
		return Attempt{}, ErrCheckoutActive
	}
	a := &attempt{Attempt: Attempt{
		ID:        uuid.NewString(),
		PetID:     pet.ID,
		State:     StateIdle,
		StartedAt: o.now(),
	}}
	o.attempts[pet.ID] = a
	o.mu.Unlock()

	order, err := o.api.CreateOrder(ctx, token, pet.ID)
	if err != nil {
		// Vuelta a idle: el intento no prosperó, el error del server se
		// surface tal cual.
		o.mu.Lock()
		delete(o.attempts, pet.ID)
		o.mu.Unlock()
		return Attempt{}, err
	}

	o.mu.Lock()
	a.Order = order
	a.State = StateOrderCreated
	o.mu.Unlock()

	// Carga idempotente de la integración. Si no carga, el intento muere
	// acá, sin volver a tocar el server.
	if err := o.provider.Load(ctx); err != nil {
		o.mu.Lock()
		a.State = StateFailed
		a.FailureDesc = api.Message(err)
		snap := a.Attempt
		o.mu.Unlock()
		o.log.Warn("checkout load failed", logger.Err(err))
		return snap, fmt.Errorf("%w: %v", ErrProviderLoad, err)
	}

	opts := o.buildOptions(pet, order)
	cb := payments.Callbacks{
		OnSuccess: func(ctx context.Context, proof api.PaymentProof) {
			o.handleSuccess(ctx, pet.ID, proof)
		},
		OnFailure: func(ctx context.Context, code, desc string) {
			o.handleFailure(ctx, pet.ID, code, desc)
		},
		OnDismiss: func(ctx context.Context) {
			o.handleDismiss(ctx, pet.ID)
		},
	}
	// awaiting_payment ANTES de abrir: el provider puede resolver el
	// checkout en forma síncrona dentro de Open.
	o.mu.Lock()
	a.State = StateAwaitingPayment
	o.mu.Unlock()

	if err := o.provider.Open(ctx, opts, cb); err != nil {
		o.mu.Lock()
		if a.State == StateAwaitingPayment {
			a.State = StateFailed
			a.FailureDesc = api.Message(err)
		}
		snap := a.Attempt
		o.mu.Unlock()
		return snap, fmt.Errorf("%w: %v", ErrProviderLoad, err)
	}

	// No se pisa el estado: un settle síncrono ya puede haberlo movido.
	o.mu.Lock()
	snap := a.Attempt
	o.mu.Unlock()
	return snap, nil
}

// Attempt devuelve el snapshot del intento actual para un pet.
func (o *Orchestrator) Attempt(petID string) (Attempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.attempts[petID]
	if !ok {
		return Attempt{}, false
	}
	return a.Attempt, true
}

// handleSuccess: awaiting_payment → verifying → {succeeded | failed}.
// succeeded SOLO es alcanzable pasando por verifying.
func (o *Orchestrator) handleSuccess(ctx context.Context, petID string, proof api.PaymentProof) {
	a, ok := o.transition(petID, StateAwaitingPayment, StateVerifying)
	if !ok {
		return
	}

	err := o.api.ValidatePayment(ctx, o.identity.Token(), petID, proof)

	o.mu.Lock()
	if a.State != StateVerifying {
		// Settle superpuesto o intento pisado: el último gana.
		o.mu.Unlock()
		return
	}
	if err != nil {
		// El provider capturó el pago pero el server no lo confirmó.
		// Nunca reclamar éxito acá: plata movida sin confirmación.
		a.State = StateFailed
		a.VerificationFailed = true
		a.SupportWarning = fmt.Sprintf(
			"Payment received but could not be verified. Contact support. Payment ID: %s",
			proof.PaymentID,
		)
		o.mu.Unlock()
		o.log.Error("payment verification rejected", map[string]any{
			"pet_id":     petID,
			"payment_id": proof.PaymentID,
			"err":        api.Message(err),
		})
		return
	}

	a.State = StateSucceeded
	adopted := o.onAdopted
	o.mu.Unlock()

	if adopted != nil {
		adopted(petID)
	}
	o.log.Info("adoption verified", map[string]any{"pet_id": petID})
}

// handleFailure: awaiting_payment → failed. Reintentable.
func (o *Orchestrator) handleFailure(_ context.Context, petID, code, desc string) {
	a, ok := o.transition(petID, StateAwaitingPayment, StateFailed)
	if !ok {
		return
	}
	o.mu.Lock()
	a.FailureCode = code
	a.FailureDesc = desc
	o.mu.Unlock()
	o.log.Warn("payment failed", map[string]any{"pet_id": petID, "code": code})
}

// handleDismiss: awaiting_payment → cancelled. Silencioso, sin red.
func (o *Orchestrator) handleDismiss(_ context.Context, petID string) {
	if _, ok := o.transition(petID, StateAwaitingPayment, StateCancelled); !ok {
		return
	}
	o.log.Debug("checkout dismissed", map[string]any{"pet_id": petID})
}

// transition mueve el intento de from a to. Si el intento no está en
// from, no hace nada (callbacks tardíos se ignoran).
func (o *Orchestrator) transition(petID string, from, to State) (*attempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[petID]
	if !ok || a.State != from {
		return nil, false
	}
	a.State = to
	return a, true
}

func (o *Orchestrator) buildOptions(pet api.Pet, order api.Order) payments.CheckoutOptions {
	user := o.identity.User()

	prefill := order.Prefill
	if prefill.Name == "" {
		prefill.Name = user.Username
	}
	if prefill.Email == "" {
		prefill.Email = user.Email
	}
	if prefill.Contact == "" {
		prefill.Contact = user.Phone
	}

	petName := order.PetName
	if petName == "" {
		petName = pet.Name
	}

	imageURL := ""
	if len(pet.Images) > 0 {
		imageURL = pet.Images[0]
	}

	return payments.CheckoutOptions{
		KeyID:       order.KeyID,
		OrderID:     order.OrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        merchantName,
		Description: "Adopt " + petName,
		ImageURL:    imageURL,
		Prefill:     prefill,
		Notes:       map[string]string{"dbPetId": pet.ID},
		ThemeColor:  themeColor,
	}
}

func (a *attempt) busy() bool {
	switch a.State {
	case StateOrderCreated, StateAwaitingPayment, StateVerifying:
		return true
	default:
		return false
	}
}
