package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"purrchase-storefront/internal/adapters/payments/fake"
	"purrchase-storefront/internal/ports/api"
)

type fakeIdentity struct {
	token string
	user  api.User
}

func (f fakeIdentity) Token() string  { return f.token }
func (f fakeIdentity) User() api.User { return f.user }

type fakeAPI struct {
	order       api.Order
	createErr   error
	validateErr error

	creates   int
	validates int
}

func (f *fakeAPI) CreateOrder(_ context.Context, _, petID string) (api.Order, error) {
	f.creates++
	if f.createErr != nil {
		return api.Order{}, f.createErr
	}
	o := f.order
	if o.OrderID == "" {
		o.OrderID = "order_" + petID
	}
	return o, nil
}

func (f *fakeAPI) ValidatePayment(_ context.Context, _, _ string, _ api.PaymentProof) error {
	f.validates++
	return f.validateErr
}

var buddy = api.Pet{
	ID: "pet1", Name: "Buddy", Species: "dog", Price: 1500,
	Images: []string{"https://cdn.example/buddy.jpg"}, Available: true,
}

func newTestOrchestrator(outcome fake.Outcome) (*Orchestrator, *fakeAPI, *fake.Provider) {
	fa := &fakeAPI{order: api.Order{
		OrderID: "order_abc", Amount: 150000, Currency: "INR",
		KeyID: "rzp_test_key", PetName: "Buddy",
	}}
	fp := fake.New()
	fp.Outcome = outcome
	id := fakeIdentity{token: "tok", user: api.User{Username: "ana", Email: "ana@mail.com", Phone: "111"}}
	return New(fa, fp, id, nil), fa, fp
}

func TestAdopcionExitosaPasaPorVerifying(t *testing.T) {
	ctx := context.Background()
	o, fa, fp := newTestOrchestrator(fake.Manual)

	var adopted []string
	o.OnAdopted(func(petID string) { adopted = append(adopted, petID) })

	a, err := o.Start(ctx, buddy)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if a.State != StateAwaitingPayment {
		t.Fatalf("tras start esperaba awaiting_payment, obtuve %s", a.State)
	}
	if fa.creates != 1 {
		t.Fatalf("esperaba 1 create-order, hubo %d", fa.creates)
	}

	// El provider resuelve OK: awaiting_payment → verifying → succeeded.
	fp.Last().OnSuccess(ctx, api.PaymentProof{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})

	got, ok := o.Attempt("pet1")
	if !ok || got.State != StateSucceeded {
		t.Fatalf("esperaba succeeded, obtuve %+v ok=%v", got, ok)
	}
	if fa.validates != 1 {
		t.Fatalf("succeeded sin pasar por la verificación: validates=%d", fa.validates)
	}
	if len(adopted) != 1 || adopted[0] != "pet1" {
		t.Fatalf("el hook de adopción debería dispararse una vez: %v", adopted)
	}
}

func TestPetNoDisponibleRechazaSinRed(t *testing.T) {
	o, fa, fp := newTestOrchestrator(fake.Manual)

	pet := buddy
	pet.Available = false
	if _, err := o.Start(context.Background(), pet); !errors.Is(err, ErrPetUnavailable) {
		t.Fatalf("esperaba ErrPetUnavailable, obtuve %v", err)
	}
	if fa.creates != 0 || fp.LoadCalls != 0 {
		t.Fatalf("no debería haber llamadas: creates=%d loads=%d", fa.creates, fp.LoadCalls)
	}
}

func TestSinSesionRechazaSinRed(t *testing.T) {
	fa := &fakeAPI{}
	o := New(fa, fake.New(), fakeIdentity{}, nil)

	if _, err := o.Start(context.Background(), buddy); !errors.Is(err, api.ErrAuthRequired) {
		t.Fatalf("esperaba ErrAuthRequired, obtuve %v", err)
	}
	if fa.creates != 0 {
		t.Fatalf("no debería haber create-order, hubo %d", fa.creates)
	}
}

func TestCreateOrderFallidoVuelveAIdle(t *testing.T) {
	ctx := context.Background()
	o, fa, _ := newTestOrchestrator(fake.Manual)
	fa.createErr = &api.RemoteError{Kind: api.ErrValidation, Message: "Pet already adopted"}

	_, err := o.Start(ctx, buddy)
	if err == nil {
		t.Fatalf("esperaba el error del server")
	}
	// El error del server se surface tal cual, sin envolver en uno genérico.
	if got := api.Message(err); got != "Pet already adopted" {
		t.Fatalf("mensaje: %q", got)
	}
	if _, ok := o.Attempt("pet1"); ok {
		t.Fatalf("el intento no debería sobrevivir al fallo de create-order")
	}

	// Vuelta a idle de verdad: un retry arranca limpio.
	fa.createErr = nil
	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestLoadFallidoMuereSinTocarElServer(t *testing.T) {
	o, fa, fp := newTestOrchestrator(fake.Manual)
	fp.FailLoad = true

	a, err := o.Start(context.Background(), buddy)
	if !errors.Is(err, ErrProviderLoad) {
		t.Fatalf("esperaba ErrProviderLoad, obtuve %v", err)
	}
	if a.State != StateFailed {
		t.Fatalf("esperaba failed, obtuve %s", a.State)
	}
	// create-order ya pasó; después del load fallido no hay más server.
	if fa.creates != 1 || fa.validates != 0 {
		t.Fatalf("llamadas inesperadas: creates=%d validates=%d", fa.creates, fa.validates)
	}
}

func TestPagoDeclinadoPermiteReintentar(t *testing.T) {
	ctx := context.Background()
	o, fa, fp := newTestOrchestrator(fake.Decline)
	fp.FailCode = "BAD_REQUEST_ERROR"
	fp.FailMessage = "Card declined"

	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, _ := o.Attempt("pet1")
	if got.State != StateFailed || got.FailureCode != "BAD_REQUEST_ERROR" {
		t.Fatalf("esperaba failed con código, obtuve %+v", got)
	}
	if fa.validates != 0 {
		t.Fatalf("un pago declinado nunca llega a verificación")
	}

	// failed no es busy: el mismo pet puede reintentarse.
	fp.Outcome = fake.Manual
	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("retry tras declinación: %v", err)
	}
}

func TestDismissCancelaSinRed(t *testing.T) {
	ctx := context.Background()
	o, fa, _ := newTestOrchestrator(fake.Dismissed)

	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, _ := o.Attempt("pet1")
	if got.State != StateCancelled {
		t.Fatalf("esperaba cancelled, obtuve %s", got.State)
	}
	if got.FailureCode != "" || got.FailureDesc != "" {
		t.Fatalf("dismiss es silencioso, sin error: %+v", got)
	}
	if fa.validates != 0 {
		t.Fatalf("dismiss no debería tocar la verificación")
	}
}

func TestVerificacionRechazadaNuncaReclamaExito(t *testing.T) {
	ctx := context.Background()
	o, fa, fp := newTestOrchestrator(fake.Manual)
	fa.validateErr = &api.RemoteError{Kind: api.ErrVerificationFailed, Message: "signature mismatch"}

	var adopted bool
	o.OnAdopted(func(string) { adopted = true })

	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("start: %v", err)
	}
	fp.Last().OnSuccess(ctx, api.PaymentProof{
		OrderID: "order_abc", PaymentID: "pay_77", Signature: "mala",
	})

	got, _ := o.Attempt("pet1")
	if got.State != StateFailed {
		// Plata capturada sin confirmación nunca puede reportarse como éxito.
		t.Fatalf("esperaba failed, obtuve %s", got.State)
	}
	if !got.VerificationFailed {
		t.Fatalf("el fallo de verificación debería quedar marcado")
	}
	if !strings.Contains(got.SupportWarning, "pay_77") {
		t.Fatalf("el warning debería incluir el payment id: %q", got.SupportWarning)
	}
	if adopted {
		t.Fatalf("el hook de adopción no debería dispararse")
	}
}

func TestCheckoutActivoBloqueaSegundoIntento(t *testing.T) {
	ctx := context.Background()
	o, _, _ := newTestOrchestrator(fake.Manual)

	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := o.Start(ctx, buddy); !errors.Is(err, ErrCheckoutActive) {
		t.Fatalf("esperaba ErrCheckoutActive, obtuve %v", err)
	}
}

func TestCallbackTardioSeIgnora(t *testing.T) {
	ctx := context.Background()
	o, _, fp := newTestOrchestrator(fake.Manual)

	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("start: %v", err)
	}
	cb := fp.Last()

	cb.OnDismiss(ctx)
	// Segundo settle sobre el mismo intento: ya no está en awaiting.
	cb.OnFailure(ctx, "LATE", "llegó tarde")

	got, _ := o.Attempt("pet1")
	if got.State != StateCancelled || got.FailureCode != "" {
		t.Fatalf("el callback tardío no debería pisar el estado: %+v", got)
	}
}

func TestOptionsDelCheckout(t *testing.T) {
	ctx := context.Background()
	o, _, fp := newTestOrchestrator(fake.Manual)

	if _, err := o.Start(ctx, buddy); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(fp.Opens) != 1 {
		t.Fatalf("esperaba 1 apertura, hubo %d", len(fp.Opens))
	}
	opts := fp.Opens[0]

	if opts.Name != "Purr-chase Adoption" || opts.ThemeColor != "#F37254" {
		t.Fatalf("branding inesperado: %+v", opts)
	}
	if opts.Description != "Adopt Buddy" {
		t.Fatalf("descripción: %q", opts.Description)
	}
	if opts.Notes["dbPetId"] != "pet1" {
		t.Fatalf("notes: %v", opts.Notes)
	}
	if opts.OrderID != "order_abc" || opts.Amount != 150000 || opts.Currency != "INR" {
		t.Fatalf("datos de la orden: %+v", opts)
	}
	// Prefill con fallback al user de la sesión.
	if opts.Prefill.Name != "ana" || opts.Prefill.Email != "ana@mail.com" || opts.Prefill.Contact != "111" {
		t.Fatalf("prefill: %+v", opts.Prefill)
	}
	if opts.ImageURL != "https://cdn.example/buddy.jpg" {
		t.Fatalf("image: %q", opts.ImageURL)
	}
}
