package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"purrchase-storefront/internal/adapters/payments/razorpay"
	"purrchase-storefront/internal/client"
	"purrchase-storefront/internal/domain/catalog"
	"purrchase-storefront/internal/domain/checkout"
	"purrchase-storefront/internal/domain/session"
	"purrchase-storefront/internal/domain/wishlist"
	"purrchase-storefront/internal/middleware"
	"purrchase-storefront/internal/ports/api"
	"purrchase-storefront/internal/ports/payments"
)

// ---- session ----

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User            api.User `json:"user"`
	IsAuthenticated bool     `json:"isAuthenticated"`
	Error           string   `json:"error,omitempty"`
}

func loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := cl.Session.Login(r.Context(), req.Email, req.Password); err != nil {
			if errors.Is(err, session.ErrSuperseded) {
				// Un login más nuevo ganó; no hay nada que reportar acá.
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(cl))
	}
}

func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		cl.Session.Logout(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		var req api.RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		msg, err := cl.Session.Register(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
	}
}

func sessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(cl))
	}
}

func updateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		var req api.ProfileInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		user, err := cl.Session.UpdateProfile(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}

func toSessionResponse(cl *client.Client) sessionResponse {
	snap := cl.Session.Snapshot()
	return sessionResponse{
		User:            snap.User,
		IsAuthenticated: snap.IsAuthenticated,
		Error:           snap.Error,
	}
}

// ---- catálogo ----

func listPetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		pets, err := cl.Catalog.FetchAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		if f, has := filterFromQuery(r); has {
			pets = cl.Catalog.Filtered(f)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"pets":    pets,
			"species": cl.Catalog.DistinctSpecies(),
		})
	}
}

func filterFromQuery(r *http.Request) (catalog.Filter, bool) {
	q := r.URL.Query()
	f := catalog.Filter{}
	has := false

	if sp := strings.TrimSpace(q.Get("species")); sp != "" {
		f.Species = map[string]bool{}
		for _, s := range strings.Split(sp, ",") {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				f.Species[s] = true
			}
		}
		has = true
	}
	if q.Get("available") == "true" {
		f.AvailableOnly = true
		has = true
	}
	if v := q.Get("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p > 0 {
			f.MaxPrice = p
			has = true
		}
	}
	if v := q.Get("max_age"); v != "" {
		if a, err := strconv.Atoi(v); err == nil && a > 0 {
			f.MaxAge = a
			has = true
		}
	}
	return f, has
}

func getPetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		pet, err := cl.Catalog.Get(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pet)
	}
}

func galleryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		pets, err := cl.Catalog.Gallery(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pets": pets})
	}
}

// adoptedPetsHandler es un read-through puro: no hay estado client-side
// que mantener, así que va directo al upstream con el token de la sesión.
func adoptedPetsHandler(apiClient api.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		token := cl.Session.Token()
		if token == "" {
			writeError(w, api.ErrAuthRequired)
			return
		}

		pets, err := apiClient.AdoptedPets(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pets": pets})
	}
}

// ---- wishlist ----

func wishlistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := cl.Wishlist.Fetch(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pets": cl.Wishlist.Pets()})
	}
}

func addWishlistHandler() http.HandlerFunc {
	return wishlistMutationHandler(func(cl *client.Client, r *http.Request, petID string) error {
		return cl.Wishlist.Add(r.Context(), petID)
	})
}

func removeWishlistHandler() http.HandlerFunc {
	return wishlistMutationHandler(func(cl *client.Client, r *http.Request, petID string) error {
		return cl.Wishlist.Remove(r.Context(), petID)
	})
}

func wishlistMutationHandler(op func(*client.Client, *http.Request, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := op(cl, r, chi.URLParam(r, "petID")); err != nil {
			writeError(w, err)
			return
		}
		// Tras una mutación exitosa la lista ya está refetcheada.
		writeJSON(w, http.StatusOK, map[string]any{"pets": cl.Wishlist.Pets()})
	}
}

// ---- checkout ----

type attemptResponse struct {
	ID                 string         `json:"id"`
	PetID              string         `json:"petId"`
	State              checkout.State `json:"state"`
	Order              *api.Order     `json:"order,omitempty"`
	FailureCode        string         `json:"failureCode,omitempty"`
	FailureDesc        string         `json:"failureDescription,omitempty"`
	VerificationFailed bool           `json:"verificationFailed,omitempty"`
	SupportWarning     string         `json:"supportWarning,omitempty"`

	// Options listas para instanciar el widget en la página.
	Checkout *payments.CheckoutOptions `json:"checkout,omitempty"`
}

// optioner: el bridge de Razorpay expone las options registradas por order.
type optioner interface {
	Options(orderID string) (payments.CheckoutOptions, bool)
}

func toAttemptResponse(a checkout.Attempt, provider payments.Bridge) attemptResponse {
	resp := attemptResponse{
		ID:                 a.ID,
		PetID:              a.PetID,
		State:              a.State,
		FailureCode:        a.FailureCode,
		FailureDesc:        a.FailureDesc,
		VerificationFailed: a.VerificationFailed,
		SupportWarning:     a.SupportWarning,
	}
	if a.Order.OrderID != "" {
		o := a.Order
		resp.Order = &o
		if op, ok := provider.(optioner); ok {
			if opts, found := op.Options(o.OrderID); found {
				resp.Checkout = &opts
			}
		}
	}
	return resp
}

func startCheckoutHandler(provider payments.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		petID := chi.URLParam(r, "petID")

		// El guard de disponibilidad corre sobre el detalle fresco.
		pet, err := cl.Catalog.Get(r.Context(), petID)
		if err != nil {
			writeError(w, err)
			return
		}

		attempt, err := cl.Checkout.Start(r.Context(), pet)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAttemptResponse(attempt, provider))
	}
}

func checkoutStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		attempt, ok := cl.Checkout.Attempt(chi.URLParam(r, "petID"))
		if !ok {
			writeErrorMsg(w, http.StatusNotFound, "no checkout for this pet")
			return
		}
		writeJSON(w, http.StatusOK, toAttemptResponse(attempt, nil))
	}
}

func confirmCheckoutHandler(provider payments.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		petID := chi.URLParam(r, "petID")
		attempt, ok := cl.Checkout.Attempt(petID)
		if !ok {
			writeError(w, checkout.ErrNoAttempt)
			return
		}

		var proof api.PaymentProof
		if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := provider.Confirm(r.Context(), attempt.Order.OrderID, proof); err != nil {
			writeError(w, err)
			return
		}

		// El orquestador ya transicionó (verifying → succeeded/failed).
		updated, _ := cl.Checkout.Attempt(petID)
		writeJSON(w, http.StatusOK, toAttemptResponse(updated, nil))
	}
}

func failCheckoutHandler(provider payments.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		petID := chi.URLParam(r, "petID")
		attempt, ok := cl.Checkout.Attempt(petID)
		if !ok {
			writeError(w, checkout.ErrNoAttempt)
			return
		}

		var req struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := provider.Fail(r.Context(), attempt.Order.OrderID, req.Code, req.Description); err != nil {
			writeError(w, err)
			return
		}

		updated, _ := cl.Checkout.Attempt(petID)
		writeJSON(w, http.StatusOK, toAttemptResponse(updated, nil))
	}
}

func dismissCheckoutHandler(provider payments.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cl, ok := middleware.GetClient(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		petID := chi.URLParam(r, "petID")
		attempt, ok := cl.Checkout.Attempt(petID)
		if !ok {
			writeError(w, checkout.ErrNoAttempt)
			return
		}

		if err := provider.Dismiss(r.Context(), attempt.Order.OrderID); err != nil {
			writeError(w, err)
			return
		}

		updated, _ := cl.Checkout.Attempt(petID)
		writeJSON(w, http.StatusOK, toAttemptResponse(updated, nil))
	}
}

// ---- helpers ----

// writeError mapea la taxonomía del core a status codes. Los mensajes
// remotos viajan tal cual en {error}.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, api.ErrAuthRequired), errors.Is(err, api.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, api.ErrNotFound), errors.Is(err, checkout.ErrNoAttempt),
		errors.Is(err, razorpay.ErrUnknownOrder):
		status = http.StatusNotFound
	case errors.Is(err, api.ErrValidation),
		errors.Is(err, session.ErrInvalidInput), errors.Is(err, wishlist.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, wishlist.ErrUpdating), errors.Is(err, checkout.ErrCheckoutActive),
		errors.Is(err, checkout.ErrPetUnavailable), errors.Is(err, razorpay.ErrAlreadySettled):
		status = http.StatusConflict
	case errors.Is(err, api.ErrNetwork), errors.Is(err, checkout.ErrProviderLoad):
		status = http.StatusBadGateway
	}

	writeErrorMsg(w, status, api.Message(err))
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
