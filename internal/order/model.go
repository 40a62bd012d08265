package order

import (
	"time"

	"github.com/soko-commerce/checkout-service/internal/shipping"
)

type Item struct {
	ProductID    string                `json:"productId"`
	Name         string                `json:"name"`
	Quantity     int                   `json:"quantity"`
	Price        float64               `json:"price"`
	VendorID     string                `json:"vendorId"`
	OfferingType shipping.OfferingType `json:"offeringType"`
}

// ShippingInfo is the buyer-entered delivery address captured during
// checkout and stored with the order.
type ShippingInfo struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	Region       string `json:"region,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

type Order struct {
	ID           string       `json:"orderId"`
	UserID       string       `json:"userId"`
	Items        []Item       `json:"items"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	Subtotal     float64      `json:"subtotal"`
	ShippingCost float64      `json:"shippingCost"`
	Tax          float64      `json:"tax"`
	Commission   float64      `json:"commission"`
	Total        float64      `json:"total"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}
