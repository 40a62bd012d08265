package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/clients"
	"github.com/soko-commerce/checkout-service/internal/pricing"
	"github.com/soko-commerce/checkout-service/internal/shipping"
)

type ShippingHandler struct {
	resolver *shipping.Resolver
	carts    cart.Repository
}

func NewShippingHandler(resolver *shipping.Resolver, carts cart.Repository) *ShippingHandler {
	return &ShippingHandler{resolver: resolver, carts: carts}
}

// Methods lists available shipping methods. The offering type may be
// given explicitly or resolved from the user's cart by majority vote.
func (h *ShippingHandler) Methods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dest := q.Get("destinationCountry")
	if dest == "" {
		writeError(w, http.StatusBadRequest, "missing destinationCountry")
		return
	}

	offering := shipping.OfferingType(q.Get("offeringType"))
	if offering == "" {
		if userID := q.Get("userId"); userID != "" {
			c, err := h.carts.Get(r.Context(), userID)
			if err != nil && !errors.Is(err, cart.ErrNotFound) {
				writeError(w, http.StatusInternalServerError, "failed to load cart")
				return
			}
			if c != nil {
				offering = shipping.PredominantOfferingType(c.OfferingTypes())
			}
		}
		if offering == "" {
			offering = shipping.OfferingPhysical
		}
	}

	methods, err := h.resolver.Methods(r.Context(), dest, offering)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"offeringType": offering,
		"methods":      methods,
	})
}

// Calculate fetches a cost/carrier/ETA quote. Weight may be given
// explicitly or derived from the user's cart.
func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := shipping.QuoteRequest{
		ShippingType:       q.Get("shippingType"),
		OriginCountry:      q.Get("originCountry"),
		DestinationCountry: q.Get("destinationCountry"),
		OriginCity:         q.Get("originCity"),
		DestinationCity:    q.Get("destinationCity"),
		OfferingType:       shipping.OfferingType(q.Get("offeringType")),
	}
	if req.ShippingType == "" || req.DestinationCountry == "" {
		writeError(w, http.StatusBadRequest, "missing shippingType or destinationCountry")
		return
	}

	if raw := q.Get("weight"); raw != "" {
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil || weight < 0 {
			writeError(w, http.StatusBadRequest, "invalid weight")
			return
		}
		req.Weight = weight
	} else if userID := q.Get("userId"); userID != "" {
		c, err := h.carts.Get(r.Context(), userID)
		if err != nil && !errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "failed to load cart")
			return
		}
		if c != nil {
			req.Weight = pricing.CartWeight(c.PricingLines())
			if req.OfferingType == "" {
				req.OfferingType = shipping.PredominantOfferingType(c.OfferingTypes())
			}
		}
	}

	quote, err := h.resolver.Quote(r.Context(), req)
	if err != nil {
		if errors.Is(err, shipping.ErrQuoteUnavailable) {
			writeError(w, http.StatusNotFound, "no quote for the given route")
			return
		}
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	var se *clients.StatusError
	if errors.As(err, &se) {
		writeError(w, http.StatusBadGateway, "shipping service unavailable")
		return
	}
	writeError(w, http.StatusBadGateway, "shipping lookup failed")
}
