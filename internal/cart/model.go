package cart

import (
	"time"

	"github.com/soko-commerce/checkout-service/internal/pricing"
	"github.com/soko-commerce/checkout-service/internal/shipping"
)

type Item struct {
	ProductID    string                `json:"productId"`
	Name         string                `json:"name"`
	Quantity     int                   `json:"quantity"`
	Price        float64               `json:"price"`
	Weight       float64               `json:"weight"`
	WeightUnit   string                `json:"weightUnit,omitempty"`
	VendorID     string                `json:"vendorId"`
	OfferingType shipping.OfferingType `json:"offeringType"`
}

type Cart struct {
	ID        string    `json:"cartId"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	Subtotal  float64   `json:"subtotal"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PricingLines converts cart items into the pricing package's view.
func (c *Cart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Weight:     it.Weight,
			WeightUnit: it.WeightUnit,
		})
	}
	return lines
}

// OfferingTypes lists the offering type of each line in encounter order.
func (c *Cart) OfferingTypes() []shipping.OfferingType {
	types := make([]shipping.OfferingType, 0, len(c.Items))
	for _, it := range c.Items {
		types = append(types, it.OfferingType)
	}
	return types
}

// VendorIDs returns the distinct vendors in the cart, encounter order.
func (c *Cart) VendorIDs() []string {
	seen := make(map[string]bool, len(c.Items))
	var ids []string
	for _, it := range c.Items {
		if it.VendorID == "" || seen[it.VendorID] {
			continue
		}
		seen[it.VendorID] = true
		ids = append(ids, it.VendorID)
	}
	return ids
}
