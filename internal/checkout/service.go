package checkout

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/events"
	"github.com/soko-commerce/checkout-service/internal/order"
	"github.com/soko-commerce/checkout-service/internal/payment"
	"github.com/soko-commerce/checkout-service/internal/pricing"
	"github.com/soko-commerce/checkout-service/internal/vendor"
)

// VendorDirectory is the slice of the vendor client the orchestrator
// needs.
type VendorDirectory interface {
	Lookup(ctx context.Context, ids []string) (map[string]vendor.Details, error)
}

// EventPublisher emits order lifecycle events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
	PublishCartCheckedOut(ctx context.Context, userID, cartID string, items []events.LineItem, subtotal float64) error
}

// Service drives the three-stage checkout flow:
// shipping -> payment -> review -> order placed.
type Service struct {
	carts     cart.Repository
	sessions  SessionRepository
	orders    order.Repository
	payments  payment.Provider
	vendors   VendorDirectory
	publisher EventPublisher
	logger    *zap.Logger
}

func NewService(
	carts cart.Repository,
	sessions SessionRepository,
	orders order.Repository,
	payments payment.Provider,
	vendors VendorDirectory,
	publisher EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:     carts,
		sessions:  sessions,
		orders:    orders,
		payments:  payments,
		vendors:   vendors,
		publisher: publisher,
		logger:    logger,
	}
}

// Start opens (or resets) a checkout session at the shipping stage.
// An empty cart cannot enter checkout.
func (s *Service) Start(ctx context.Context, userID string) (*Session, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	sess := &Session{UserID: userID, Stage: StageShipping}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SubmitShipping validates the address, prices the cart with the
// vendor's overrides, and creates the payment intent. On intent
// failure the session stays at the shipping stage.
func (s *Service) SubmitShipping(ctx context.Context, userID string, info order.ShippingInfo) (*Session, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != StageShipping {
		return nil, fmt.Errorf("stage %s: %w", sess.Stage, ErrWrongStage)
	}

	if err := ValidateShippingInfo(info); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	totals, err := s.priceCart(ctx, c)
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.CreateIntent(ctx, payment.IntentRequest{
		SessionID:   sess.ID,
		AmountMinor: MinorUnits(totals.Total),
		Currency:    "GBP",
		UserID:      userID,
	})
	if err != nil {
		// Session untouched: the user stays at the shipping stage and
		// can retry.
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	sess.ShippingInfo = info
	sess.Totals = totals
	sess.PaymentIntentID = intent.ID
	sess.ClientSecret = intent.ClientSecret
	sess.Stage = StagePayment
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ConfirmPayment advances payment -> review. The storefront confirms
// the intent with the processor directly; this transition has no gate
// beyond prior stage completion.
func (s *Service) ConfirmPayment(ctx context.Context, userID string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != StagePayment {
		return nil, fmt.Errorf("stage %s: %w", sess.Stage, ErrWrongStage)
	}

	sess.Stage = StageReview
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// PlaceOrder performs the final compound total calculation, submits
// the order, publishes events, and clears the cart. Any failure before
// the order is stored leaves session and cart untouched.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*order.Order, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != StageReview {
		return nil, fmt.Errorf("stage %s: %w", sess.Stage, ErrWrongStage)
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	totals, err := s.priceCart(ctx, c)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		UserID:       userID,
		ShippingInfo: sess.ShippingInfo,
		Subtotal:     totals.Subtotal,
		ShippingCost: totals.ShippingCost,
		Tax:          totals.Tax,
		Commission:   totals.Commission,
		Total:        totals.Total,
		Status:       order.StatusPending,
	}
	for _, it := range c.Items {
		o.Items = append(o.Items, order.Item{
			ProductID:    it.ProductID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			Price:        it.Price,
			VendorID:     it.VendorID,
			OfferingType: it.OfferingType,
		})
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// The order is durable from here on; event and cleanup failures
	// are logged, not surfaced.
	if err := s.publisher.PublishOrderCreated(ctx, o); err != nil {
		s.logger.Warn("publish OrderCreated failed", zap.String("orderId", o.ID), zap.Error(err))
	}
	var lineItems []events.LineItem
	for _, it := range c.Items {
		lineItems = append(lineItems, events.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	if err := s.publisher.PublishCartCheckedOut(ctx, userID, c.ID, lineItems, totals.Subtotal); err != nil {
		s.logger.Warn("publish CartCheckedOut failed", zap.String("cartId", c.ID), zap.Error(err))
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Warn("clear cart after order failed", zap.String("userId", userID), zap.Error(err))
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Warn("delete checkout session failed", zap.String("userId", userID), zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("orderId", o.ID),
		zap.String("userId", userID),
		zap.Float64("total", o.Total),
	)
	return o, nil
}

// Session returns the user's current checkout session.
func (s *Service) Session(ctx context.Context, userID string) (*Session, error) {
	return s.sessions.Get(ctx, userID)
}

func (s *Service) priceCart(ctx context.Context, c *cart.Cart) (pricing.Breakdown, error) {
	vendors, err := s.vendors.Lookup(ctx, c.VendorIDs())
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("lookup vendors: %w", err)
	}
	cfg := vendor.PricingConfig(vendors, c.VendorIDs())
	return pricing.Calculate(c.PricingLines(), cfg)
}

// MinorUnits converts a major-unit amount to the currency's minor
// unit for the payment processor.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
