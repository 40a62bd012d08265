package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type SessionRepository interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
}

type PostgresSessionRepository struct {
	pool DBPool
}

func NewPostgresSessionRepository(pool DBPool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

func (r *PostgresSessionRepository) Get(ctx context.Context, userID string) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, stage, ship_full_name, ship_address1, ship_address2, ship_city,
       ship_region, ship_postal_code, ship_country, ship_phone,
       payment_intent_id, client_secret,
       subtotal, shipping_cost, tax, commission, total,
       created_at, updated_at
FROM checkout_sessions WHERE user_id = $1
`, userID).Scan(&s.ID, &s.UserID, &s.Stage,
		&s.ShippingInfo.FullName, &s.ShippingInfo.AddressLine1, &s.ShippingInfo.AddressLine2,
		&s.ShippingInfo.City, &s.ShippingInfo.Region, &s.ShippingInfo.PostalCode,
		&s.ShippingInfo.Country, &s.ShippingInfo.Phone,
		&s.PaymentIntentID, &s.ClientSecret,
		&s.Totals.Subtotal, &s.Totals.ShippingCost, &s.Totals.Tax, &s.Totals.Commission, &s.Totals.Total,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("select checkout session: %w", err)
	}
	return &s, nil
}

// Save upserts the session keyed by user: starting a new checkout
// replaces whatever was abandoned before it.
func (r *PostgresSessionRepository) Save(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO checkout_sessions (
    id, user_id, stage, ship_full_name, ship_address1, ship_address2, ship_city,
    ship_region, ship_postal_code, ship_country, ship_phone,
    payment_intent_id, client_secret,
    subtotal, shipping_cost, tax, commission, total, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
    id = EXCLUDED.id, stage = EXCLUDED.stage,
    ship_full_name = EXCLUDED.ship_full_name, ship_address1 = EXCLUDED.ship_address1,
    ship_address2 = EXCLUDED.ship_address2, ship_city = EXCLUDED.ship_city,
    ship_region = EXCLUDED.ship_region, ship_postal_code = EXCLUDED.ship_postal_code,
    ship_country = EXCLUDED.ship_country, ship_phone = EXCLUDED.ship_phone,
    payment_intent_id = EXCLUDED.payment_intent_id, client_secret = EXCLUDED.client_secret,
    subtotal = EXCLUDED.subtotal, shipping_cost = EXCLUDED.shipping_cost,
    tax = EXCLUDED.tax, commission = EXCLUDED.commission, total = EXCLUDED.total,
    updated_at = NOW()
RETURNING created_at, updated_at
`, s.ID, s.UserID, s.Stage,
		s.ShippingInfo.FullName, s.ShippingInfo.AddressLine1, s.ShippingInfo.AddressLine2,
		s.ShippingInfo.City, s.ShippingInfo.Region, s.ShippingInfo.PostalCode,
		s.ShippingInfo.Country, s.ShippingInfo.Phone,
		s.PaymentIntentID, s.ClientSecret,
		s.Totals.Subtotal, s.Totals.ShippingCost, s.Totals.Tax, s.Totals.Commission, s.Totals.Total,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert checkout session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM checkout_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete checkout session: %w", err)
	}
	return nil
}
