package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/checkout"
	"github.com/soko-commerce/checkout-service/internal/order"
	"github.com/soko-commerce/checkout-service/internal/pricing"
)

type CheckoutHandler struct {
	svc *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	sess, err := h.svc.Session(r.Context(), userID)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	sess, err := h.svc.Start(r.Context(), userID)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	var info order.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	sess, err := h.svc.SubmitShipping(r.Context(), userID, info)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	sess, err := h.svc.ConfirmPayment(r.Context(), userID)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	o, err := h.svc.PlaceOrder(r.Context(), userID)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrNoSession):
		writeError(w, http.StatusNotFound, "no active checkout session")
	case errors.Is(err, cart.ErrNotFound):
		writeError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, checkout.ErrWrongStage):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrIncompleteShipping),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, pricing.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "checkout failed")
	}
}
