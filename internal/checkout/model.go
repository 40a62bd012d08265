package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soko-commerce/checkout-service/internal/order"
	"github.com/soko-commerce/checkout-service/internal/pricing"
)

// Stage is a checkout step. The flow is strictly linear:
// shipping -> payment -> review. There is no skip and no explicit
// cancellation; abandoned sessions are simply superseded.
type Stage string

const (
	StageShipping Stage = "shipping"
	StagePayment  Stage = "payment"
	StageReview   Stage = "review"
)

var (
	ErrNoSession          = errors.New("no active checkout session")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrWrongStage         = errors.New("action not allowed at current checkout stage")
	ErrIncompleteShipping = errors.New("shipping info incomplete")
)

// Session is one user's in-progress checkout.
type Session struct {
	ID              string            `json:"sessionId"`
	UserID          string            `json:"userId"`
	Stage           Stage             `json:"stage"`
	ShippingInfo    order.ShippingInfo `json:"shippingInfo"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	ClientSecret    string            `json:"clientSecret,omitempty"`
	Totals          pricing.Breakdown `json:"totals"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// ValidateShippingInfo checks the required-field completeness gate for
// the shipping -> payment transition.
func ValidateShippingInfo(info order.ShippingInfo) error {
	var missing []string
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	require("fullName", info.FullName)
	require("addressLine1", info.AddressLine1)
	require("city", info.City)
	require("country", info.Country)
	require("phone", info.Phone)

	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), ErrIncompleteShipping)
	}
	return nil
}
