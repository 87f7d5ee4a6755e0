// Package wishlist holds per-user saved books.
package wishlist

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/bookease/marketplace/internal/domain/book"
)

var (
	// ErrNotFound is returned when a wishlist entry does not exist.
	ErrNotFound = errors.New("wishlist item not found")
	// ErrDuplicate is returned when the book is already wishlisted.
	ErrDuplicate = errors.New("book already in wishlist")
)

// Item is a (user, book) pair, unique per pair.
type Item struct {
	ID        string
	UserID    string
	BookID    string
	CreatedAt time.Time
}

// Repository defines persistence operations for wishlist items. Create
// surfaces a (user, book) uniqueness violation as ErrDuplicate.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	DeleteByBook(ctx context.Context, userID, bookID string) error
}

// Service implements wishlist mutations with catalog validation.
type Service struct {
	items Repository
	books book.Repository
}

// NewService creates a wishlist Service.
func NewService(items Repository, books book.Repository) *Service {
	return &Service{items: items, books: books}
}

// Add saves an active book to the user's wishlist.
func (s *Service) Add(ctx context.Context, userID, bookID string) (*Item, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, book.ErrNotFound
	}

	item := &Item{
		ID:        uuid.New().String(),
		UserID:    userID,
		BookID:    bookID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Entry pairs a wishlist item with its resolved book.
type Entry struct {
	Item Item
	Book book.Book
}

// List returns the user's wishlist with books resolved; entries whose
// book has been deactivated are filtered out.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.BookID
	}
	books, err := s.books.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get wishlist books")
	}
	byID := make(map[string]book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		b, ok := byID[it.BookID]
		if !ok || !b.IsActive {
			continue
		}
		entries = append(entries, Entry{Item: it, Book: b})
	}
	return entries, nil
}

// Remove deletes the user's wishlist entry for the given book.
func (s *Service) Remove(ctx context.Context, userID, bookID string) error {
	return s.items.DeleteByBook(ctx, userID, bookID)
}
