package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookease/marketplace/internal/domain/order"
)

const orderColumns = `id, user_id, lines, shipping_address, total_price, payment_method,
		payment_status, status, tracking_id, expected_delivery, delivered_at,
		cancelled_at, cancellation_reason, created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, lines, shipping_address, total_price,
			payment_method, payment_status, status, tracking_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listOrdersBySellerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE lines @> jsonb_build_array(jsonb_build_object('sellerId', $1::text))
		ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET
			status = $2, expected_delivery = $3, delivered_at = $4,
			cancelled_at = $5, cancellation_reason = $6, updated_at = $7
		WHERE id = $1`

	hasDeliveredSQL = `SELECT EXISTS (
		SELECT 1 FROM orders
		WHERE user_id = $1 AND status = 'delivered'
			AND lines @> jsonb_build_array(jsonb_build_object('bookId', $2::text))
	)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Line snapshots and the shipping address are serialized to JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, conditionally decrements each line's stock,
// and consumes the user's cart inside one transaction. Any failed
// decrement rolls everything back, so an order never exists without its
// stock reserved and stock is never reserved without its order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	addrJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, linesJSON, addrJSON, o.TotalPrice,
		string(o.PaymentMethod), string(o.PaymentStatus), string(o.Status),
		o.TrackingID, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_tracking_id_key") {
			return order.ErrTrackingConflict
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, line := range o.Lines {
		if err := decrementStock(ctx, tx, line.BookID, line.Quantity); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, clearCartSQL, o.UserID); err != nil {
		return fmt.Errorf("consuming cart for %q: %w", o.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListBySeller returns orders containing at least one of the seller's
// books, matched against the denormalized line snapshots.
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersBySellerSQL, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for seller %q: %w", sellerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus persists the status and its side-effect timestamps.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL,
		o.ID, string(o.Status), o.ExpectedDelivery, o.DeliveredAt,
		o.CancelledAt, o.CancellationReason, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// HasDelivered reports whether the user has a delivered order containing
// the book.
func (r *OrderRepository) HasDelivered(ctx context.Context, userID, bookID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, hasDeliveredSQL, userID, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking delivered orders: %w", err)
	}
	return exists, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                         order.Order
		linesJSON, addrJSON       []byte
		method, payStatus, status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &linesJSON, &addrJSON, &o.TotalPrice,
		&method, &payStatus, &status, &o.TrackingID,
		&o.ExpectedDelivery, &o.DeliveredAt, &o.CancelledAt,
		&o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	if err := json.Unmarshal(addrJSON, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("unmarshaling shipping address: %w", err)
	}
	o.PaymentMethod = order.PaymentMethod(method)
	o.PaymentStatus = order.PaymentStatus(payStatus)
	o.Status = order.Status(status)
	return o, nil
}
