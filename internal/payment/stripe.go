package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

// Intent is the subset of a created payment intent the checkout flow
// needs: the id to track it and the client secret for the storefront's
// payment element.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// IntentRequest describes the intent to create. AmountMinor is in the
// currency's minor unit (pence for GBP).
type IntentRequest struct {
	SessionID   string
	AmountMinor int64
	Currency    string
	UserID      string
}

// Provider creates payment intents with an upstream processor.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}

// stripeIntentAPI is the slice of the Stripe client used here, narrow
// so tests can run against a fake.
type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	intents stripeIntentAPI
	logger  *zap.Logger
}

// NewStripeProvider builds a provider from an API key. An empty key is
// a configuration error.
func NewStripeProvider(apiKey string, logger *zap.Logger) (*StripeProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	return newStripeProvider(sc.PaymentIntents, logger), nil
}

func newStripeProvider(intents stripeIntentAPI, logger *zap.Logger) *StripeProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeProvider{intents: intents, logger: logger}
}

// IdempotencyKey makes intent creation idempotent per session and
// amount: re-entering the payment stage with an unchanged total reuses
// the same intent, while a changed total mints a new one.
func IdempotencyKey(sessionID string, amountMinor int64) string {
	return fmt.Sprintf("%s:%d", sessionID, amountMinor)
}

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if req.AmountMinor <= 0 {
		return Intent{}, fmt.Errorf("stripe: amount must be positive, got %d", req.AmountMinor)
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "gbp"
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(IdempotencyKey(req.SessionID, req.AmountMinor))
	if req.SessionID != "" || req.UserID != "" {
		params.Metadata = map[string]string{
			"checkoutSessionId": req.SessionID,
			"userId":            req.UserID,
		}
	}

	pi, err := p.intents.New(params)
	if err != nil {
		p.logger.Warn("payment intent creation failed",
			zap.String("sessionId", req.SessionID),
			zap.Int64("amount", req.AmountMinor),
			zap.Error(err),
		)
		return Intent{}, fmt.Errorf("stripe: create intent: %w", err)
	}

	p.logger.Info("payment intent created",
		zap.String("intentId", pi.ID),
		zap.String("sessionId", req.SessionID),
		zap.Int64("amount", req.AmountMinor),
	)

	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
