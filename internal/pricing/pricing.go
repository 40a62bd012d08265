package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Defaults applied when a Config field is left at its zero value.
const (
	DefaultFreeShippingThreshold = 50.0
	DefaultShippingFlatRate      = 5.99
	DefaultTaxRate               = 0.20
	DefaultCommissionRate        = 0.015
	DefaultCommissionMinimum     = 2.0
)

var ErrInvalidItem = errors.New("invalid cart item")

// Config carries vendor/region overrides for a single calculation.
// Zero-value fields fall back to the marketplace defaults.
type Config struct {
	FreeShippingThreshold float64
	ShippingFlatRate      float64
	TaxRate               float64
	CommissionRate        float64
	CommissionMinimum     float64
}

func (c Config) withDefaults() Config {
	if c.FreeShippingThreshold == 0 {
		c.FreeShippingThreshold = DefaultFreeShippingThreshold
	}
	if c.ShippingFlatRate == 0 {
		c.ShippingFlatRate = DefaultShippingFlatRate
	}
	if c.TaxRate == 0 {
		c.TaxRate = DefaultTaxRate
	}
	if c.CommissionRate == 0 {
		c.CommissionRate = DefaultCommissionRate
	}
	if c.CommissionMinimum == 0 {
		c.CommissionMinimum = DefaultCommissionMinimum
	}
	return c
}

// Line is the pricing view of one cart line item.
type Line struct {
	ProductID  string
	Quantity   int
	Price      float64
	Weight     float64
	WeightUnit string
}

// Breakdown is the result of pricing a cart. All amounts are rounded
// to 2 decimals and Total is the exact sum of the other components.
type Breakdown struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	Tax          float64 `json:"tax"`
	Commission   float64 `json:"commission"`
	Total        float64 `json:"total"`
}

// Round2 is the canonical monetary rounding rule for this service:
// half away from zero at two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Calculate prices a cart. An empty line list yields an all-zero
// Breakdown. Malformed lines are rejected rather than priced at zero.
func Calculate(lines []Line, cfg Config) (Breakdown, error) {
	cfg = cfg.withDefaults()

	var subtotal float64
	for i, ln := range lines {
		if ln.Quantity < 1 {
			return Breakdown{}, fmt.Errorf("line %d: quantity %d: %w", i, ln.Quantity, ErrInvalidItem)
		}
		if ln.Price < 0 {
			return Breakdown{}, fmt.Errorf("line %d: negative price: %w", i, ErrInvalidItem)
		}
		if ln.Weight < 0 {
			return Breakdown{}, fmt.Errorf("line %d: negative weight: %w", i, ErrInvalidItem)
		}
		subtotal += ln.Price * float64(ln.Quantity)
	}
	subtotal = Round2(subtotal)

	if subtotal == 0 {
		return Breakdown{}, nil
	}

	var shipping float64
	if subtotal < cfg.FreeShippingThreshold {
		shipping = Round2(cfg.ShippingFlatRate)
	}

	tax := Round2(subtotal * cfg.TaxRate)
	commission := Commission(subtotal, cfg)

	b := Breakdown{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Commission:   commission,
	}
	b.Total = Round2(b.Subtotal + b.ShippingCost + b.Tax + b.Commission)
	return b, nil
}

// Commission applies the platform fee rule: a percentage of the
// subtotal with a fixed minimum floor, zero for an empty basket.
func Commission(subtotal float64, cfg Config) float64 {
	if subtotal <= 0 {
		return 0
	}
	cfg = cfg.withDefaults()
	fee := subtotal * cfg.CommissionRate
	if fee < cfg.CommissionMinimum {
		fee = cfg.CommissionMinimum
	}
	return Round2(fee)
}

// CartWeight sums line weights in kilograms. Grams and pounds are
// normalized; unrecognized units are assumed to already be kilograms.
func CartWeight(lines []Line) float64 {
	var kg float64
	for _, ln := range lines {
		w := ln.Weight * float64(ln.Quantity)
		switch ln.WeightUnit {
		case "g":
			w /= 1000
		case "lb":
			w *= 0.45359237
		}
		kg += w
	}
	return kg
}
