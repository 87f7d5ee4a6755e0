package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookease/marketplace/internal/domain/wishlist"
)

const (
	createWishlistItemSQL = `INSERT INTO wishlist_items (id, user_id, book_id, created_at)
		VALUES ($1, $2, $3, $4)`

	listWishlistByUserSQL = `SELECT id, user_id, book_id, created_at FROM wishlist_items
		WHERE user_id = $1 ORDER BY created_at DESC`

	deleteWishlistItemSQL = `DELETE FROM wishlist_items WHERE user_id = $1 AND book_id = $2`
)

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func (r *WishlistRepository) Create(ctx context.Context, item *wishlist.Item) error {
	_, err := r.pool.Exec(ctx, createWishlistItemSQL,
		item.ID, item.UserID, item.BookID, item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "wishlist_items_user_id_book_id_key") {
			return wishlist.ErrDuplicate
		}
		return fmt.Errorf("creating wishlist item: %w", err)
	}
	return nil
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]wishlist.Item, error) {
	rows, err := r.pool.Query(ctx, listWishlistByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (wishlist.Item, error) {
		var item wishlist.Item
		err := row.Scan(&item.ID, &item.UserID, &item.BookID, &item.CreatedAt)
		return item, err
	})
}

func (r *WishlistRepository) DeleteByBook(ctx context.Context, userID, bookID string) error {
	tag, err := r.pool.Exec(ctx, deleteWishlistItemSQL, userID, bookID)
	if err != nil {
		return fmt.Errorf("deleting wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wishlist.ErrNotFound
	}
	return nil
}
