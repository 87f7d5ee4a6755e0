// Package book defines the catalog entities consumed by every other
// component: carts, orders, reviews, and wishlists all resolve books here.
package book

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested book does not exist.
	ErrNotFound = errors.New("book not found")
	// ErrISBNTaken is returned when creating or updating a book with an
	// ISBN already attached to another listing.
	ErrISBNTaken = errors.New("isbn already registered")
	// ErrNotOwner is returned when a seller manages a listing that
	// belongs to someone else.
	ErrNotOwner = errors.New("not authorized for this book")
)

// UnavailableError indicates a referenced book is missing or soft-deleted.
type UnavailableError struct {
	BookID string
	Title  string
}

func (e *UnavailableError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("book %q is no longer available", e.Title)
	}
	return fmt.Sprintf("book %s is no longer available", e.BookID)
}

// InsufficientStockError indicates the requested quantity exceeds the
// book's current stock. Available reflects stock at check time.
type InsufficientStockError struct {
	BookID    string
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Title, e.Requested, e.Available)
}

// Book represents a catalog item listed by a seller. AverageRating and
// TotalReviews are derived from approved reviews and never authoritative
// input. Books are soft-deleted via IsActive so historical order lines
// keep resolving.
type Book struct {
	ID              string
	Title           string
	Author          string
	Description     string
	Price           decimal.Decimal
	OriginalPrice   decimal.Decimal
	Stock           int
	ImageURL        string
	Category        string
	SellerID        string
	ISBN            string
	Language        string
	Pages           int
	Publisher       string
	PublicationDate time.Time
	AverageRating   decimal.Decimal
	TotalReviews    int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filter narrows and orders catalog listings.
type Filter struct {
	Search   string
	Category string
	Author   string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	SellerID string
	Sort     string // one of: created_at, price, average_rating, title
	Desc     bool
	Page     int
	PerPage  int
}

// Page is one page of catalog results.
type Page struct {
	Books      []Book
	Total      int
	TotalPages int
	Current    int
}

// Repository defines persistence operations for the catalog.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (*Book, error)
	GetByIDs(ctx context.Context, ids []string) ([]Book, error)
	List(ctx context.Context, f Filter) (*Page, error)
	Update(ctx context.Context, b *Book) error
	Deactivate(ctx context.Context, id string) error
	// DecrementStock atomically decrements stock by qty only when
	// stock >= qty, returning *InsufficientStockError otherwise.
	DecrementStock(ctx context.Context, id string, qty int) error
	// UpdateRating overwrites the derived rating aggregate.
	UpdateRating(ctx context.Context, id string, avg decimal.Decimal, total int) error
}
