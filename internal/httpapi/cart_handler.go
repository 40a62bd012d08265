package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/shipping"
)

type CartHandler struct {
	repo cart.Repository
}

func NewCartHandler(repo cart.Repository) *CartHandler {
	return &CartHandler{repo: repo}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	c, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cart not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

type addItemRequest struct {
	ProductID    string                `json:"productId"`
	Name         string                `json:"name"`
	Quantity     int                   `json:"quantity"`
	Price        float64               `json:"price"`
	Weight       float64               `json:"weight"`
	WeightUnit   string                `json:"weightUnit"`
	VendorID     string                `json:"vendorId"`
	OfferingType shipping.OfferingType `json:"offeringType"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	var body addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID == "" || body.Quantity < 1 || body.Price < 0 || body.Weight < 0 {
		writeError(w, http.StatusBadRequest, "invalid item")
		return
	}
	if body.OfferingType == "" {
		body.OfferingType = shipping.OfferingPhysical
	}

	c, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "failed to load cart")
			return
		}
		c = &cart.Cart{UserID: userID, UpdatedAt: time.Now()}
	}

	// Merge with an existing line or append a new one.
	updated := false
	for i := range c.Items {
		if c.Items[i].ProductID == body.ProductID {
			c.Items[i].Quantity += body.Quantity
			c.Items[i].Price = body.Price
			updated = true
			break
		}
	}
	if !updated {
		c.Items = append(c.Items, cart.Item{
			ProductID:    body.ProductID,
			Name:         body.Name,
			Quantity:     body.Quantity,
			Price:        body.Price,
			Weight:       body.Weight,
			WeightUnit:   body.WeightUnit,
			VendorID:     body.VendorID,
			OfferingType: body.OfferingType,
		})
	}

	if err := h.repo.Upsert(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	productID := chi.URLParam(r, "productId")
	if userID == "" || productID == "" {
		writeError(w, http.StatusBadRequest, "missing userId or productId")
		return
	}

	var body updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	c, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cart not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = body.Quantity
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}

	if err := h.repo.Upsert(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	productID := chi.URLParam(r, "productId")
	if userID == "" || productID == "" {
		writeError(w, http.StatusBadRequest, "missing userId or productId")
		return
	}

	if err := h.repo.RemoveItem(r.Context(), userID, productID); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	c, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
