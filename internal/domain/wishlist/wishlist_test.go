package wishlist

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookease/marketplace/internal/domain/book"
)

type mockBookRepo struct {
	byID map[string]*book.Book
}

func (m *mockBookRepo) Create(_ context.Context, _ *book.Book) error { return nil }

func (m *mockBookRepo) GetByID(_ context.Context, id string) (*book.Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	return b, nil
}

func (m *mockBookRepo) GetByIDs(_ context.Context, ids []string) ([]book.Book, error) {
	books := make([]book.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := m.byID[id]; ok {
			books = append(books, *b)
		}
	}
	return books, nil
}

func (m *mockBookRepo) List(_ context.Context, _ book.Filter) (*book.Page, error) { return nil, nil }

func (m *mockBookRepo) Update(_ context.Context, _ *book.Book) error { return nil }

func (m *mockBookRepo) Deactivate(_ context.Context, _ string) error { return nil }

func (m *mockBookRepo) DecrementStock(_ context.Context, _ string, _ int) error { return nil }

func (m *mockBookRepo) UpdateRating(_ context.Context, _ string, _ decimal.Decimal, _ int) error {
	return nil
}

type mockItemRepo struct {
	items []Item
}

func (m *mockItemRepo) Create(_ context.Context, item *Item) error {
	for _, it := range m.items {
		if it.UserID == item.UserID && it.BookID == item.BookID {
			return ErrDuplicate
		}
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *mockItemRepo) ListByUser(_ context.Context, userID string) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockItemRepo) DeleteByBook(_ context.Context, userID, bookID string) error {
	for i, it := range m.items {
		if it.UserID == userID && it.BookID == bookID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func TestAdd(t *testing.T) {
	books := &mockBookRepo{byID: map[string]*book.Book{
		"b1": {ID: "b1", Title: "Sapiens", IsActive: true},
	}}
	svc := NewService(&mockItemRepo{}, books)

	it, err := svc.Add(context.Background(), "u1", "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", it.BookID)

	_, err = svc.Add(context.Background(), "u1", "b1")
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestAdd_InactiveBook(t *testing.T) {
	books := &mockBookRepo{byID: map[string]*book.Book{
		"b1": {ID: "b1", IsActive: false},
	}}
	svc := NewService(&mockItemRepo{}, books)

	_, err := svc.Add(context.Background(), "u1", "b1")
	require.ErrorIs(t, err, book.ErrNotFound)
}

func TestList_FiltersInactiveBooks(t *testing.T) {
	books := &mockBookRepo{byID: map[string]*book.Book{
		"b1": {ID: "b1", IsActive: true},
		"b2": {ID: "b2", IsActive: false},
	}}
	items := &mockItemRepo{items: []Item{
		{ID: "w1", UserID: "u1", BookID: "b1"},
		{ID: "w2", UserID: "u1", BookID: "b2"},
	}}
	svc := NewService(items, books)

	entries, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b1", entries[0].Book.ID)
}

func TestRemove(t *testing.T) {
	items := &mockItemRepo{items: []Item{{ID: "w1", UserID: "u1", BookID: "b1"}}}
	svc := NewService(items, &mockBookRepo{})

	require.NoError(t, svc.Remove(context.Background(), "u1", "b1"))
	require.ErrorIs(t, svc.Remove(context.Background(), "u1", "b1"), ErrNotFound)
}
