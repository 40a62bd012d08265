package shipping

// OfferingType classifies a product for shipping-method selection.
type OfferingType string

const (
	OfferingPhysical    OfferingType = "physical"
	OfferingService     OfferingType = "service"
	OfferingReservation OfferingType = "reservation"
	OfferingGiftCard    OfferingType = "gift_card"
)

// Method is one shipping option offered for a destination.
type Method struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	Icon      string `json:"icon,omitempty"`
	Available bool   `json:"available"`
}

// QuoteRequest keys a cost/carrier/ETA lookup.
type QuoteRequest struct {
	ShippingType       string
	Weight             float64
	OriginCountry      string
	DestinationCountry string
	OriginCity         string
	DestinationCity    string
	OfferingType       OfferingType
}

// Quote is the estimated cost for one shipping type.
type Quote struct {
	ShippingType  string  `json:"shippingType"`
	TotalCost     float64 `json:"totalCost"`
	Carrier       string  `json:"carrier"`
	EstimatedDays int     `json:"estimatedDays"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
}

// PredominantOfferingType resolves a mixed cart to a single offering
// type by majority vote over line items. Ties go to the type that was
// encountered first, so the result is deterministic for a given item
// order. An empty cart resolves to physical.
func PredominantOfferingType(types []OfferingType) OfferingType {
	if len(types) == 0 {
		return OfferingPhysical
	}

	counts := make(map[OfferingType]int, len(types))
	order := make([]OfferingType, 0, len(types))
	for _, ot := range types {
		if _, seen := counts[ot]; !seen {
			order = append(order, ot)
		}
		counts[ot]++
	}

	winner := order[0]
	for _, ot := range order[1:] {
		if counts[ot] > counts[winner] {
			winner = ot
		}
	}
	return winner
}
