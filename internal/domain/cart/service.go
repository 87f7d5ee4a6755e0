package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/validation"
)

// Service implements cart mutations with stock validation against the
// live catalog.
type Service struct {
	items Repository
	books book.Repository
}

// NewService creates a cart Service.
func NewService(items Repository, books book.Repository) *Service {
	return &Service{items: items, books: books}
}

// Add merges quantity into the user's existing (user, book) entry, or
// creates one. The merged quantity must pass the stock check against the
// book's current stock; on failure the existing entry is left unchanged.
func (s *Service) Add(ctx context.Context, userID, bookID string, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, validation.New("quantity must be at least 1")
	}

	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, &book.UnavailableError{BookID: b.ID, Title: b.Title}
	}

	merged := quantity
	existing, err := s.items.Get(ctx, userID, bookID)
	switch {
	case err == nil:
		merged += existing.Quantity
	case errors.Is(err, ErrItemNotFound):
	default:
		return nil, errors.Wrap(err, "get cart item")
	}

	if b.Stock < merged {
		return nil, &book.InsufficientStockError{
			BookID:    b.ID,
			Title:     b.Title,
			Requested: merged,
			Available: b.Stock,
		}
	}

	item := &Item{
		UserID:   userID,
		BookID:   bookID,
		Quantity: merged,
	}
	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		item.ID = uuid.New().String()
		item.CreatedAt = time.Now().UTC()
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, errors.Wrap(err, "upsert cart item")
	}
	return item, nil
}

// UpdateQuantity replaces the quantity of an existing item after
// re-checking stock.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, validation.New("quantity must be at least 1")
	}

	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	var target *Item
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrItemNotFound
	}

	b, err := s.books.GetByID(ctx, target.BookID)
	if err != nil {
		return nil, err
	}
	if b.Stock < quantity {
		return nil, &book.InsufficientStockError{
			BookID:    b.ID,
			Title:     b.Title,
			Requested: quantity,
			Available: b.Stock,
		}
	}

	return s.items.SetQuantity(ctx, userID, itemID, quantity)
}

// Remove deletes a single item from the user's cart.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	return s.items.Delete(ctx, userID, itemID)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.items.DeleteByUser(ctx, userID)
}

// Entry pairs a cart item with its resolved book.
type Entry struct {
	Item Item
	Book book.Book
}

// List returns the user's cart with books resolved. Entries whose book
// has been deactivated are filtered out of the listing but not deleted.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
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
		return nil, errors.Wrap(err, "get cart books")
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
