package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestCalculate(t *testing.T) {
	tests := map[string]struct {
		lines   []Line
		cfg     Config
		want    Breakdown
		wantErr error
	}{
		"empty cart is all zero": {
			lines: nil,
			want:  Breakdown{},
		},
		"documented example: 30 x 2": {
			lines: []Line{{ProductID: "p1", Quantity: 2, Price: 30}},
			want: Breakdown{
				Subtotal:     60,
				ShippingCost: 0, // over the free-shipping threshold
				Tax:          12,
				Commission:   2, // floor: 60*0.015=0.9 < 2
				Total:        74,
			},
		},
		"below threshold pays flat shipping": {
			lines: []Line{{ProductID: "p1", Quantity: 1, Price: 10}},
			want: Breakdown{
				Subtotal:     10,
				ShippingCost: 5.99,
				Tax:          2,
				Commission:   2,
				Total:        19.99,
			},
		},
		"at threshold exactly ships free": {
			lines: []Line{{ProductID: "p1", Quantity: 1, Price: 50}},
			want: Breakdown{
				Subtotal:     50,
				ShippingCost: 0,
				Tax:          10,
				Commission:   2,
				Total:        62,
			},
		},
		"percentage commission above the floor": {
			lines: []Line{{ProductID: "p1", Quantity: 1, Price: 200}},
			want: Breakdown{
				Subtotal:     200,
				ShippingCost: 0,
				Tax:          40,
				Commission:   3, // 200*0.015
				Total:        243,
			},
		},
		"vendor overrides respected": {
			lines: []Line{{ProductID: "p1", Quantity: 1, Price: 60}},
			cfg: Config{
				FreeShippingThreshold: 100,
				ShippingFlatRate:      9.50,
				TaxRate:               0.10,
			},
			want: Breakdown{
				Subtotal:     60,
				ShippingCost: 9.50,
				Tax:          6,
				Commission:   2,
				Total:        77.50,
			},
		},
		"fractional prices round uniformly": {
			lines: []Line{
				{ProductID: "p1", Quantity: 3, Price: 1.115},
				{ProductID: "p2", Quantity: 1, Price: 2.333},
			},
			want: Breakdown{
				Subtotal:     5.68, // 3.345+2.333=5.678
				ShippingCost: 5.99,
				Tax:          1.14, // 1.136
				Commission:   2,
				Total:        14.81,
			},
		},
		"zero quantity rejected": {
			lines:   []Line{{ProductID: "p1", Quantity: 0, Price: 10}},
			wantErr: ErrInvalidItem,
		},
		"negative price rejected": {
			lines:   []Line{{ProductID: "p1", Quantity: 1, Price: -1}},
			wantErr: ErrInvalidItem,
		},
		"negative weight rejected": {
			lines:   []Line{{ProductID: "p1", Quantity: 1, Price: 1, Weight: -0.5}},
			wantErr: ErrInvalidItem,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Calculate(tc.lines, tc.cfg)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("breakdown mismatch\ngot  %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestTotalInvariant(t *testing.T) {
	// total must equal the sum of the rounded components exactly.
	carts := [][]Line{
		{{ProductID: "a", Quantity: 1, Price: 0.01}},
		{{ProductID: "a", Quantity: 7, Price: 3.33}, {ProductID: "b", Quantity: 2, Price: 19.99}},
		{{ProductID: "a", Quantity: 1, Price: 49.995}},
		{{ProductID: "a", Quantity: 100, Price: 123.456}},
	}
	for _, lines := range carts {
		b, err := Calculate(lines, Config{})
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		sum := Round2(b.Subtotal + b.ShippingCost + b.Tax + b.Commission)
		if math.Abs(sum-b.Total) > 1e-9 {
			t.Fatalf("total %v != component sum %v for %+v", b.Total, sum, b)
		}
	}
}

func TestCommission(t *testing.T) {
	tests := map[string]struct {
		subtotal float64
		want     float64
	}{
		"zero subtotal":           {0, 0},
		"negative subtotal":       {-5, 0},
		"small basket hits floor": {10, 2},
		"floor boundary":          {133.33, 2}, // 1.99995 -> floor
		"just above floor":        {200, 3},
		"large basket":            {1000, 15},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Commission(tc.subtotal, Config{}); got != tc.want {
				t.Fatalf("commission(%v) = %v, want %v", tc.subtotal, got, tc.want)
			}
		})
	}
}

func TestCartWeight(t *testing.T) {
	lines := []Line{
		{Quantity: 2, Weight: 1.5, WeightUnit: "kg"},
		{Quantity: 1, Weight: 500, WeightUnit: "g"},
		{Quantity: 1, Weight: 2, WeightUnit: "lb"},
		{Quantity: 1, Weight: 0.25}, // no unit, assume kg
	}
	got := CartWeight(lines)
	want := 3.0 + 0.5 + 2*0.45359237 + 0.25
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("weight = %v, want %v", got, want)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		1.004:  1.0,
		1.006:  1.01,
		-1.006: -1.01,
		0.0:    0.0,
		2.344:  2.34,
		2.346:  2.35,
		19.999: 20.0,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}
