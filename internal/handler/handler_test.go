package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookease/marketplace/internal/auth"
	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/cart"
	"github.com/bookease/marketplace/internal/domain/order"
	"github.com/bookease/marketplace/internal/domain/review"
	"github.com/bookease/marketplace/internal/domain/stats"
	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
)

// --- Mock implementations ---

type mockBookRepo struct {
	byID    map[string]*book.Book
	listErr error
}

func (m *mockBookRepo) Create(_ context.Context, _ *book.Book) error { return nil }

func (m *mockBookRepo) GetByID(_ context.Context, id string) (*book.Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	return b, nil
}

func (m *mockBookRepo) GetByIDs(_ context.Context, _ []string) ([]book.Book, error) {
	return nil, nil
}

func (m *mockBookRepo) List(_ context.Context, _ book.Filter) (*book.Page, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	books := make([]book.Book, 0, len(m.byID))
	for _, b := range m.byID {
		books = append(books, *b)
	}
	return &book.Page{Books: books, Total: len(books), TotalPages: 1, Current: 1}, nil
}

func (m *mockBookRepo) Update(_ context.Context, _ *book.Book) error { return nil }

func (m *mockBookRepo) Deactivate(_ context.Context, _ string) error { return nil }

func (m *mockBookRepo) DecrementStock(_ context.Context, _ string, _ int) error { return nil }

func (m *mockBookRepo) UpdateRating(_ context.Context, _ string, _ decimal.Decimal, _ int) error {
	return nil
}

type mockStatsRepo struct {
	overview *stats.Overview
}

func (m *mockStatsRepo) Overview(_ context.Context) (*stats.Overview, error) {
	return m.overview, nil
}

// --- Helpers ---

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager([]byte("test-secret"), time.Hour)
}

func bearerFor(t *testing.T, tokens *auth.TokenManager, id string, role user.Role) string {
	t.Helper()
	token, err := tokens.Issue(&user.User{ID: id, Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestHandler(books *mockBookRepo) (*Handler, *auth.TokenManager) {
	tokens := testTokens()
	h := NewHandler(nil, tokens, nil, books, nil, nil, nil, nil, nil)
	return h, tokens
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- Tests ---

func TestAuthenticated(t *testing.T) {
	h, tokens := newTestHandler(&mockBookRepo{})
	var gotUserID string
	wrapped := h.authenticated(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = claimsFrom(r.Context()).UserID()
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "missing bearer token", decodeError(t, rec).Message)
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearerFor(t, tokens, "u1", user.RoleCustomer))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", gotUserID)
	})
}

func TestRequireRole(t *testing.T) {
	h, tokens := newTestHandler(&mockBookRepo{})
	wrapped := h.requireRole(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, user.RoleAdmin)

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearerFor(t, tokens, "u1", user.RoleCustomer))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "insufficient permissions", decodeError(t, rec).Message)
	})

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearerFor(t, tokens, "a1", user.RoleAdmin))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetBook(t *testing.T) {
	active := &book.Book{
		ID:       "b1",
		Title:    "The Alchemist",
		Author:   "Paulo Coelho",
		Price:    decimal.RequireFromString("299.00"),
		Stock:    25,
		IsActive: true,
	}
	inactive := &book.Book{ID: "b2", Title: "Gone", IsActive: false}
	h, _ := newTestHandler(&mockBookRepo{byID: map[string]*book.Book{
		"b1": active,
		"b2": inactive,
	}})
	mux := h.Routes()

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/b1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp bookResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "b1", resp.ID)
		assert.Equal(t, "The Alchemist", resp.Title)
		assert.InDelta(t, 299.00, resp.Price, 0.001)
	})

	t.Run("inactive is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/b2", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateBook_Ownership(t *testing.T) {
	h, tokens := newTestHandler(&mockBookRepo{byID: map[string]*book.Book{
		"b1": {ID: "b1", Title: "The Alchemist", Author: "Paulo Coelho", SellerID: "seller-1", IsActive: true},
	}})
	mux := h.Routes()

	body := `{"title":"The Alchemist","author":"Paulo Coelho","price":349}`
	send := func(t *testing.T, id string, role user.Role) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPut, "/api/books/b1", strings.NewReader(body))
		req.Header.Set("Authorization", bearerFor(t, tokens, id, role))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("foreign seller", func(t *testing.T) {
		rec := send(t, "seller-2", user.RoleSeller)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not authorized for this book", decodeError(t, rec).Message)
	})

	t.Run("owner", func(t *testing.T) {
		rec := send(t, "seller-1", user.RoleSeller)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		rec := send(t, "a1", user.RoleAdmin)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestListBooks_BadPriceFilter(t *testing.T) {
	h, _ := newTestHandler(&mockBookRepo{})
	mux := h.Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books?minPrice=cheap", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics(t *testing.T) {
	tokens := testTokens()
	h := NewHandler(nil, tokens, nil, nil, nil, nil, nil, nil, &mockStatsRepo{
		overview: &stats.Overview{
			TotalUsers:     10,
			TotalCustomers: 7,
			TotalSellers:   2,
			TotalBooks:     4,
			TotalOrders:    3,
			TotalRevenue:   decimal.RequireFromString("1048.00"),
			TopCategories:  []stats.CategoryCount{{Category: "Fiction", Books: 3}},
			MonthlySales: []stats.MonthlySale{{
				Month:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Orders: 3,
				Sales:  decimal.RequireFromString("1048.00"),
			}},
			RecentOrders: []stats.RecentOrder{{
				ID:         "o1",
				TrackingID: "BKE17105060000007X2KQ",
				Customer:   "Asha Rao",
				TotalPrice: decimal.RequireFromString("598.00"),
				Status:     "ordered",
				CreatedAt:  time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			}},
		},
	})
	mux := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens, "a1", user.RoleAdmin))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp analyticsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp.TotalUsers)
	assert.Equal(t, 7, resp.TotalCustomers)
	assert.Equal(t, 2, resp.TotalSellers)
	assert.InDelta(t, 1048.00, resp.TotalRevenue, 0.001)
	require.Len(t, resp.MonthlySales, 1)
	assert.Equal(t, "2024-03", resp.MonthlySales[0].Month)
	assert.Equal(t, 3, resp.MonthlySales[0].Orders)
	require.Len(t, resp.RecentOrders, 1)
	assert.Equal(t, "Asha Rao", resp.RecentOrders[0].Customer)
	assert.Equal(t, "ordered", resp.RecentOrders[0].Status)
}

func TestRespondDomainError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.New("bad input"), http.StatusBadRequest},
		{"empty cart", order.ErrEmptyCart, http.StatusBadRequest},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"bad token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"not authorized", order.ErrNotAuthorized, http.StatusForbidden},
		{"not book owner", book.ErrNotOwner, http.StatusForbidden},
		{"not eligible", review.ErrNotEligible, http.StatusForbidden},
		{"book not found", book.ErrNotFound, http.StatusNotFound},
		{"cart item not found", cart.ErrItemNotFound, http.StatusNotFound},
		{"email taken", user.ErrEmailTaken, http.StatusConflict},
		{"isbn taken", book.ErrISBNTaken, http.StatusConflict},
		{"duplicate review", review.ErrDuplicate, http.StatusConflict},
		{"tracking conflict", order.ErrTrackingConflict, http.StatusConflict},
		{
			"invalid transition",
			&order.InvalidTransitionError{From: order.StatusDelivered, To: order.StatusPacking},
			http.StatusConflict,
		},
		{
			"unavailable book",
			&book.UnavailableError{BookID: "b1"},
			http.StatusUnprocessableEntity,
		},
		{
			"insufficient stock",
			&book.InsufficientStockError{BookID: "b1", Requested: 3, Available: 1},
			http.StatusUnprocessableEntity,
		},
		{"wrapped domain error", errors.Wrap(book.ErrNotFound, "load book"), http.StatusNotFound},
		{"unknown", errors.New("pg connection reset"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			assert.Equal(t, tc.want, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tc.want, resp.Code)
			if tc.want == http.StatusServiceUnavailable {
				assert.Equal(t, "service temporarily unavailable", resp.Message,
					"internal details must not leak")
			}
		})
	}
}
