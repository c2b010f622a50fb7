package razorpay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
)

func newBridge(t *testing.T, scriptStatus int) (*Checkout, *int64) {
	t.Helper()

	var heads int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&heads, 1)
		w.WriteHeader(scriptStatus)
	}))
	t.Cleanup(ts.Close)

	return New(Config{ScriptURL: ts.URL + "/checkout.js"}), &heads
}

func TestLoadEsIdempotente(t *testing.T) {
	ctx := context.Background()
	c, heads := newBridge(t, http.StatusOK)

	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Load(ctx); err != nil {
		t.Fatalf("segundo load: %v", err)
	}
	// El éxito se cachea: un solo HEAD.
	if got := atomic.LoadInt64(heads); got != 1 {
		t.Fatalf("esperaba 1 HEAD, hubo %d", got)
	}
}

func TestLoadFallidoNoSeCachea(t *testing.T) {
	ctx := context.Background()
	c, heads := newBridge(t, http.StatusServiceUnavailable)

	if err := c.Load(ctx); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("esperaba ErrLoadFailed, obtuve %v", err)
	}
	if err := c.Load(ctx); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("el fallo no se cachea, debería reintentar: %v", err)
	}
	if got := atomic.LoadInt64(heads); got != 2 {
		t.Fatalf("esperaba 2 HEAD, hubo %d", got)
	}
}

func TestDespachoDeResultados(t *testing.T) {
	ctx := context.Background()
	c := New(Config{ScriptURL: "https://example.invalid/checkout.js"})

	var gotProof api.PaymentProof
	cb := payments.Callbacks{
		OnSuccess: func(_ context.Context, proof api.PaymentProof) { gotProof = proof },
	}
	opts := payments.CheckoutOptions{OrderID: "order_1", Amount: 100, Currency: "INR"}
	if err := c.Open(ctx, opts, cb); err != nil {
		t.Fatalf("open: %v", err)
	}

	if got, ok := c.Options("order_1"); !ok || got.Amount != 100 {
		t.Fatalf("options registradas: %+v ok=%v", got, ok)
	}

	proof := api.PaymentProof{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	if err := c.Confirm(ctx, "order_1", proof); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if gotProof.PaymentID != "pay_1" {
		t.Fatalf("el callback debería recibir el proof: %+v", gotProof)
	}

	// Un order ya resuelto no vuelve a disparar callbacks.
	if err := c.Dismiss(ctx, "order_1"); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("esperaba ErrAlreadySettled, obtuve %v", err)
	}
	// Order desconocido.
	if err := c.Fail(ctx, "order_x", "CODE", "desc"); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("esperaba ErrUnknownOrder, obtuve %v", err)
	}
}

func TestReabrirPisaLaAperturaAnterior(t *testing.T) {
	ctx := context.Background()
	c := New(Config{})

	opts := payments.CheckoutOptions{OrderID: "order_1"}
	if err := c.Open(ctx, opts, payments.Callbacks{}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Dismiss(ctx, "order_1"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	// Retry del mismo order: la apertura nueva vuelve a ser despachable.
	var failed bool
	cb := payments.Callbacks{OnFailure: func(context.Context, string, string) { failed = true }}
	if err := c.Open(ctx, opts, cb); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := c.Fail(ctx, "order_1", "CODE", "desc"); err != nil {
		t.Fatalf("fail tras reopen: %v", err)
	}
	if !failed {
		t.Fatalf("el callback de la apertura nueva debería dispararse")
	}
}

func TestOpenSinOrderID(t *testing.T) {
	c := New(Config{})
	if err := c.Open(context.Background(), payments.CheckoutOptions{}, payments.Callbacks{}); err == nil {
		t.Fatalf("esperaba error por order id vacío")
	}
}
