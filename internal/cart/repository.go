package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/soko-commerce/checkout-service/internal/pricing"
)

var ErrNotFound = errors.New("cart not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Upsert(ctx context.Context, c *Cart) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, subtotal, updated_at FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.Subtotal, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, quantity, price, weight, weight_unit, vendor_id, offering_type
         FROM cart_items WHERE cart_id = $1 ORDER BY position`,
		c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price,
			&it.Weight, &it.WeightUnit, &it.VendorID, &it.OfferingType); err != nil {
			return nil, fmt.Errorf("scan cart_item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &c, nil
}

// Upsert rewrites the cart and its line items in one transaction and
// refreshes the stored subtotal from the current lines.
func (r *PostgresRepository) Upsert(ctx context.Context, c *Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	var subtotal float64
	for _, it := range c.Items {
		subtotal += it.Price * float64(it.Quantity)
	}
	c.Subtotal = pricing.Round2(subtotal)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
INSERT INTO carts (id, user_id, subtotal, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id) DO UPDATE
SET subtotal = EXCLUDED.subtotal, updated_at = NOW()
RETURNING id, updated_at
`, c.ID, c.UserID, c.Subtotal).Scan(&c.ID, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear cart_items: %w", err)
	}

	for i, it := range c.Items {
		_, err = tx.Exec(ctx, `
INSERT INTO cart_items (id, cart_id, position, product_id, name, quantity, price, weight, weight_unit, vendor_id, offering_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, uuid.NewString(), c.ID, i, it.ProductID, it.Name, it.Quantity, it.Price,
			it.Weight, it.WeightUnit, it.VendorID, it.OfferingType)
		if err != nil {
			return fmt.Errorf("insert cart_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	c, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	kept := c.Items[:0]
	removed := false
	for _, it := range c.Items {
		if it.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return ErrNotFound
	}
	c.Items = kept

	return r.Upsert(ctx, c)
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
