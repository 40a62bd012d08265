package shipping

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/soko-commerce/checkout-service/internal/clients"
)

// ErrQuoteUnavailable is returned when the quoting service cannot
// produce an answer for the given parameters.
var ErrQuoteUnavailable = errors.New("shipping quote unavailable")

// Resolver fetches available methods and cost quotes from the remote
// shipping service. Responses are never cached; callers bound each
// call with their request context.
type Resolver struct {
	c *clients.Client
}

func NewResolver(c *clients.Client) *Resolver {
	return &Resolver{c: c}
}

// Methods lists the shipping methods offered for a destination
// country and offering type.
func (r *Resolver) Methods(ctx context.Context, destinationCountry string, offering OfferingType) ([]Method, error) {
	if destinationCountry == "" {
		return nil, fmt.Errorf("destination country is required")
	}

	q := url.Values{}
	q.Set("destinationCountry", destinationCountry)
	q.Set("offeringType", string(offering))

	var out struct {
		Methods []Method `json:"methods"`
	}
	if err := r.c.GetJSON(ctx, "/shipping/methods/available", q, &out); err != nil {
		return nil, err
	}
	return out.Methods, nil
}

// Quote fetches the estimated cost/carrier/ETA for one shipping type.
func (r *Resolver) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if req.ShippingType == "" {
		return Quote{}, fmt.Errorf("shipping type is required")
	}
	if req.DestinationCountry == "" {
		return Quote{}, fmt.Errorf("destination country is required")
	}

	q := url.Values{}
	q.Set("shippingType", req.ShippingType)
	q.Set("weight", strconv.FormatFloat(req.Weight, 'f', -1, 64))
	q.Set("originCountry", req.OriginCountry)
	q.Set("destinationCountry", req.DestinationCountry)
	q.Set("originCity", req.OriginCity)
	q.Set("destinationCity", req.DestinationCity)
	q.Set("offeringType", string(req.OfferingType))

	var quote Quote
	if err := r.c.GetJSON(ctx, "/shipping/calculate", q, &quote); err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) && se.StatusCode == 404 {
			return Quote{}, fmt.Errorf("%s to %s: %w", req.ShippingType, req.DestinationCountry, ErrQuoteUnavailable)
		}
		return Quote{}, err
	}
	return quote, nil
}
