package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/events"
	"github.com/soko-commerce/checkout-service/internal/order"
	"github.com/soko-commerce/checkout-service/internal/payment"
	"github.com/soko-commerce/checkout-service/internal/shipping"
	"github.com/soko-commerce/checkout-service/internal/vendor"
)

type fakeCartRepo struct {
	carts   map[string]*cart.Cart
	cleared []string
}

func (f *fakeCartRepo) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	if c, ok := f.carts[userID]; ok {
		return c, nil
	}
	return nil, cart.ErrNotFound
}

func (f *fakeCartRepo) Upsert(ctx context.Context, c *cart.Cart) error {
	f.carts[c.UserID] = c
	return nil
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	delete(f.carts, userID)
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*Session
	saveErr  error
}

func (f *fakeSessionRepo) Get(ctx context.Context, userID string) (*Session, error) {
	if s, ok := f.sessions[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrNoSession
}

func (f *fakeSessionRepo) Save(ctx context.Context, s *Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if s.ID == "" {
		s.ID = "sess-" + s.UserID
	}
	cp := *s
	f.sessions[s.UserID] = &cp
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, userID string) error {
	delete(f.sessions, userID)
	return nil
}

type fakeOrderRepo struct {
	created   []*order.Order
	createErr error
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = "order-1"
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return nil, nil
}

type fakeProvider struct {
	requests []payment.IntentRequest
	err      error
}

func (f *fakeProvider) CreateIntent(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return payment.Intent{}, f.err
	}
	return payment.Intent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		AmountMinor:  req.AmountMinor,
		Currency:     "gbp",
	}, nil
}

type fakeVendors struct {
	details map[string]vendor.Details
	err     error
}

func (f *fakeVendors) Lookup(ctx context.Context, ids []string) (map[string]vendor.Details, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]vendor.Details)
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type fakePublisher struct {
	orderEvents []string
	cartEvents  []string
	err         error
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	if f.err != nil {
		return f.err
	}
	f.orderEvents = append(f.orderEvents, o.ID)
	return nil
}

func (f *fakePublisher) PublishCartCheckedOut(ctx context.Context, userID, cartID string, items []events.LineItem, subtotal float64) error {
	if f.err != nil {
		return f.err
	}
	f.cartEvents = append(f.cartEvents, cartID)
	return nil
}

type fixture struct {
	svc       *Service
	carts     *fakeCartRepo
	sessions  *fakeSessionRepo
	orders    *fakeOrderRepo
	provider  *fakeProvider
	publisher *fakePublisher
}

func newFixture(items []cart.Item) *fixture {
	carts := &fakeCartRepo{carts: map[string]*cart.Cart{}}
	if items != nil {
		carts.carts["user-1"] = &cart.Cart{ID: "cart-1", UserID: "user-1", Items: items}
	}
	sessions := &fakeSessionRepo{sessions: map[string]*Session{}}
	orders := &fakeOrderRepo{}
	provider := &fakeProvider{}
	publisher := &fakePublisher{}
	svc := NewService(carts, sessions, orders, provider, &fakeVendors{}, publisher, nil)
	return &fixture{svc: svc, carts: carts, sessions: sessions, orders: orders, provider: provider, publisher: publisher}
}

func exampleItems() []cart.Item {
	return []cart.Item{
		{ProductID: "p1", Name: "Shirt", Quantity: 2, Price: 30, VendorID: "v1", OfferingType: shipping.OfferingPhysical},
	}
}

func validShipping() order.ShippingInfo {
	return order.ShippingInfo{
		FullName:     "Ada Obi",
		AddressLine1: "1 High St",
		City:         "London",
		Country:      "GB",
		Phone:        "+44 20 0000 0000",
	}
}

func TestStart(t *testing.T) {
	f := newFixture(exampleItems())

	sess, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StageShipping, sess.Stage)
	assert.NotEmpty(t, sess.ID)
}

func TestStartEmptyCart(t *testing.T) {
	f := newFixture(nil)
	f.carts.carts["user-1"] = &cart.Cart{ID: "cart-1", UserID: "user-1"}

	_, err := f.svc.Start(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitShippingAdvancesToPayment(t *testing.T) {
	f := newFixture(exampleItems())
	_, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)

	sess, err := f.svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.NoError(t, err)

	assert.Equal(t, StagePayment, sess.Stage)
	assert.Equal(t, "pi_test", sess.PaymentIntentID)
	assert.Equal(t, "pi_test_secret", sess.ClientSecret)

	// 30*2=60 subtotal, free shipping, 12 tax, 2 commission floor => 74.00
	assert.Equal(t, 74.0, sess.Totals.Total)
	require.Len(t, f.provider.requests, 1)
	assert.Equal(t, int64(7400), f.provider.requests[0].AmountMinor)
}

func TestSubmitShippingRejectsIncompleteInfo(t *testing.T) {
	incomplete := map[string]func(*order.ShippingInfo){
		"fullName": func(i *order.ShippingInfo) { i.FullName = "" },
		"address":  func(i *order.ShippingInfo) { i.AddressLine1 = " " },
		"city":     func(i *order.ShippingInfo) { i.City = "" },
		"country":  func(i *order.ShippingInfo) { i.Country = "" },
		"phone":    func(i *order.ShippingInfo) { i.Phone = "" },
	}

	for name, blank := range incomplete {
		t.Run(name, func(t *testing.T) {
			f := newFixture(exampleItems())
			_, err := f.svc.Start(context.Background(), "user-1")
			require.NoError(t, err)

			info := validShipping()
			blank(&info)

			_, err = f.svc.SubmitShipping(context.Background(), "user-1", info)
			require.ErrorIs(t, err, ErrIncompleteShipping)

			// stage must remain shipping
			sess, err := f.svc.Session(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, StageShipping, sess.Stage)
			assert.Empty(t, f.provider.requests)
		})
	}
}

func TestSubmitShippingIntentFailureStaysAtShipping(t *testing.T) {
	f := newFixture(exampleItems())
	f.provider.err = errors.New("processor unavailable")

	_, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = f.svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.Error(t, err)

	sess, err := f.svc.Session(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StageShipping, sess.Stage)
	assert.Empty(t, sess.PaymentIntentID)
}

func TestSubmitShippingWrongStage(t *testing.T) {
	f := newFixture(exampleItems())
	_, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = f.svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.NoError(t, err)

	// Already at payment; resubmitting shipping is not a legal move.
	_, err = f.svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.ErrorIs(t, err, ErrWrongStage)
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(exampleItems())
	_, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)

	// Not allowed straight from shipping.
	_, err = f.svc.ConfirmPayment(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrWrongStage)

	_, err = f.svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.NoError(t, err)

	sess, err := f.svc.ConfirmPayment(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StageReview, sess.Stage)
}

func advanceToReview(t *testing.T, f *fixture) {
	t.Helper()
	_, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = f.svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(context.Background(), "user-1")
	require.NoError(t, err)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(exampleItems())
	advanceToReview(t, f)

	o, err := f.svc.PlaceOrder(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 60.0, o.Subtotal)
	assert.Equal(t, 0.0, o.ShippingCost)
	assert.Equal(t, 12.0, o.Tax)
	assert.Equal(t, 2.0, o.Commission)
	assert.Equal(t, 74.0, o.Total)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, validShipping(), o.ShippingInfo)
	require.Len(t, o.Items, 1)

	// cart cleared, session gone, events out
	assert.Equal(t, []string{"user-1"}, f.carts.cleared)
	_, err = f.svc.Session(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, []string{"order-1"}, f.publisher.orderEvents)
	assert.Equal(t, []string{"cart-1"}, f.publisher.cartEvents)
}

func TestPlaceOrderWrongStage(t *testing.T) {
	f := newFixture(exampleItems())
	_, err := f.svc.Start(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrWrongStage)
}

func TestPlaceOrderCreateFailureKeepsState(t *testing.T) {
	f := newFixture(exampleItems())
	advanceToReview(t, f)
	f.orders.createErr = errors.New("db down")

	_, err := f.svc.PlaceOrder(context.Background(), "user-1")
	require.Error(t, err)

	// Cart and session survive so the user can retry from review.
	assert.Empty(t, f.carts.cleared)
	sess, err := f.svc.Session(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StageReview, sess.Stage)
	assert.Empty(t, f.publisher.orderEvents)
}

func TestPlaceOrderPublishFailureStillSucceeds(t *testing.T) {
	f := newFixture(exampleItems())
	advanceToReview(t, f)
	f.publisher.err = errors.New("broker down")

	o, err := f.svc.PlaceOrder(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, []string{"user-1"}, f.carts.cleared)
}

func TestSubmitShippingUsesVendorOverrides(t *testing.T) {
	f := newFixture([]cart.Item{
		{ProductID: "p1", Quantity: 1, Price: 60, VendorID: "v1", OfferingType: shipping.OfferingPhysical},
	})
	svc := NewService(f.carts, f.sessions, f.orders, f.provider, &fakeVendors{
		details: map[string]vendor.Details{
			"v1": {ID: "v1", FreeShippingThreshold: 100, ShippingFlatRate: 9.50},
		},
	}, f.publisher, nil)

	_, err := svc.Start(context.Background(), "user-1")
	require.NoError(t, err)

	sess, err := svc.SubmitShipping(context.Background(), "user-1", validShipping())
	require.NoError(t, err)

	// 60 subtotal under the vendor's 100 threshold: 9.50 shipping,
	// 12 tax, 2 commission => 83.50
	assert.Equal(t, 9.50, sess.Totals.ShippingCost)
	assert.Equal(t, 83.50, sess.Totals.Total)
}

func TestMinorUnits(t *testing.T) {
	cases := map[float64]int64{
		74.0:  7400,
		19.99: 1999,
		0.01:  1,
		83.50: 8350,
	}
	for in, want := range cases {
		assert.Equal(t, want, MinorUnits(in))
	}
}
