package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/checkout"
	"github.com/soko-commerce/checkout-service/internal/middleware"
	"github.com/soko-commerce/checkout-service/internal/order"
	"github.com/soko-commerce/checkout-service/internal/shipping"
)

// Deps carries everything the router wires together.
type Deps struct {
	Logger           *zap.Logger
	Carts            cart.Repository
	Orders           order.Repository
	Checkout         *checkout.Service
	Shipping         *shipping.Resolver
	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recover(d.Logger))
	if len(d.CORSAllowOrigins) > 0 {
		r.Use(middleware.CORS(d.CORSAllowOrigins))
	}

	r.Get("/health", healthHandler)

	cartH := NewCartHandler(d.Carts)
	shipH := NewShippingHandler(d.Shipping, d.Carts)
	checkoutH := NewCheckoutHandler(d.Checkout)
	orderH := NewOrderHandler(d.Orders)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart/{userId}", func(r chi.Router) {
			r.Get("/", cartH.GetCart)
			r.Post("/items", cartH.AddItem)
			r.Put("/items/{productId}", cartH.UpdateQuantity)
			r.Delete("/items/{productId}", cartH.RemoveItem)
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/methods/available", shipH.Methods)
			r.Get("/calculate", shipH.Calculate)
		})

		r.Route("/checkout/{userId}", func(r chi.Router) {
			r.Get("/", checkoutH.GetSession)
			r.Post("/start", checkoutH.Start)
			r.Post("/shipping", checkoutH.SubmitShipping)
			r.Post("/payment", checkoutH.ConfirmPayment)
			r.Post("/place", checkoutH.PlaceOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderId}", orderH.GetOrder)
			r.Get("/user/{userId}", orderH.ListOrdersByUser)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "checkout-service"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
