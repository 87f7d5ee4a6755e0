// Package review holds customer reviews and the derived book rating
// aggregate.
package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested review does not exist.
	ErrNotFound = errors.New("review not found")
	// ErrDuplicate is returned when a user reviews the same book twice.
	ErrDuplicate = errors.New("book already reviewed by this user")
	// ErrNotEligible is returned when the user has no delivered order
	// containing the book.
	ErrNotEligible = errors.New("only purchased and delivered books can be reviewed")
)

// Review is a (user, book) rating, unique per pair. Only reviews with
// Approved set count toward the book's aggregate rating or appear in
// public listings.
type Review struct {
	ID        string
	UserID    string
	BookID    string
	Rating    int
	Title     string
	Comment   string
	Approved  bool
	CreatedAt time.Time
}

// Repository defines persistence operations for reviews.
type Repository interface {
	// Create persists a new review. A (user, book) uniqueness violation
	// surfaces as ErrDuplicate.
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	Approve(ctx context.Context, id string) (*Review, error)
	ListApprovedByBook(ctx context.Context, bookID string) ([]Review, error)
	ListAll(ctx context.Context) ([]Review, error)
	// ApprovedStats returns the count and rating sum over the book's
	// approved reviews.
	ApprovedStats(ctx context.Context, bookID string) (count int, sum int, err error)
}
