// Package cart holds per-user purchase intents prior to checkout.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrItemNotFound is returned when a cart item does not exist or belongs
// to a different user.
var ErrItemNotFound = errors.New("cart item not found")

// Item is a (user, book) purchase intent, unique per pair. Quantity is
// always >= 1; prices are never stored here — they are re-read from the
// catalog at checkout.
type Item struct {
	ID        string
	UserID    string
	BookID    string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for cart items.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	Get(ctx context.Context, userID, bookID string) (*Item, error)
	// Upsert inserts the item or replaces the quantity of an existing
	// (user, book) entry.
	Upsert(ctx context.Context, item *Item) error
	// SetQuantity updates the quantity of the item with the given ID,
	// scoped to the owning user. Returns ErrItemNotFound when absent.
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*Item, error)
	Delete(ctx context.Context, userID, itemID string) error
	DeleteByUser(ctx context.Context, userID string) error
}
