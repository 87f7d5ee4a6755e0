package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookease/marketplace/internal/domain/cart"
)

const cartColumns = `id, user_id, book_id, quantity, created_at, updated_at`

const (
	listCartSQL = `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 ORDER BY created_at DESC`

	getCartItemSQL = `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 AND book_id = $2`

	upsertCartItemSQL = `INSERT INTO cart_items (id, user_id, book_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, book_id) DO UPDATE SET quantity = $4, updated_at = $6`

	setCartQuantitySQL = `UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + cartColumns

	deleteCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByUser returns the user's cart items, newest first.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart for %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

// Get returns the (user, book) cart entry.
func (r *CartRepository) Get(ctx context.Context, userID, bookID string) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemSQL, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item: %w", err)
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting cart item: %w", err)
	}
	return &item, nil
}

// Upsert inserts the item or replaces the quantity of the existing
// (user, book) entry.
func (r *CartRepository) Upsert(ctx context.Context, item *cart.Item) error {
	_, err := r.pool.Exec(ctx, upsertCartItemSQL,
		item.ID, item.UserID, item.BookID, item.Quantity, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}
	return nil
}

// SetQuantity updates the quantity of the user's item with the given ID.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, setCartQuantitySQL, userID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("updating cart quantity: %w", err)
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("updating cart quantity: %w", err)
	}
	return &item, nil
}

// Delete removes a single item from the user's cart.
func (r *CartRepository) Delete(ctx context.Context, userID, itemID string) error {
	tag, err := r.pool.Exec(ctx, deleteCartItemSQL, userID, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// DeleteByUser empties the user's cart.
func (r *CartRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing cart for %q: %w", userID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var item cart.Item
	err := row.Scan(
		&item.ID, &item.UserID, &item.BookID, &item.Quantity,
		&item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}
