package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("order not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO orders (id, user_id, subtotal, shipping_cost, tax, commission, total, status,
                    ship_full_name, ship_address1, ship_address2, ship_city, ship_region,
                    ship_postal_code, ship_country, ship_phone, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`, o.ID, o.UserID, o.Subtotal, o.ShippingCost, o.Tax, o.Commission, o.Total, o.Status,
		o.ShippingInfo.FullName, o.ShippingInfo.AddressLine1, o.ShippingInfo.AddressLine2,
		o.ShippingInfo.City, o.ShippingInfo.Region, o.ShippingInfo.PostalCode,
		o.ShippingInfo.Country, o.ShippingInfo.Phone, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
INSERT INTO order_items (id, order_id, product_id, name, quantity, price, vendor_id, offering_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, uuid.NewString(), o.ID, it.ProductID, it.Name, it.Quantity, it.Price, it.VendorID, it.OfferingType)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, subtotal, shipping_cost, tax, commission, total, status,
       ship_full_name, ship_address1, ship_address2, ship_city, ship_region,
       ship_postal_code, ship_country, ship_phone, created_at
FROM orders WHERE id = $1
`, orderID).Scan(&o.ID, &o.UserID, &o.Subtotal, &o.ShippingCost, &o.Tax, &o.Commission,
		&o.Total, &o.Status, &o.ShippingInfo.FullName, &o.ShippingInfo.AddressLine1,
		&o.ShippingInfo.AddressLine2, &o.ShippingInfo.City, &o.ShippingInfo.Region,
		&o.ShippingInfo.PostalCode, &o.ShippingInfo.Country, &o.ShippingInfo.Phone, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, subtotal, shipping_cost, tax, commission, total, status, created_at
FROM orders WHERE user_id = $1 ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Subtotal, &o.ShippingCost, &o.Tax,
			&o.Commission, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
SELECT product_id, name, quantity, price, vendor_id, offering_type
FROM order_items WHERE order_id = $1
`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price,
			&it.VendorID, &it.OfferingType); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}
