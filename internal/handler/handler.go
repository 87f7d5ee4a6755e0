// Package handler exposes the marketplace over HTTP. Handlers decode
// JSON requests, delegate to the domain services, and map domain errors
// to the API's status codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bookease/marketplace/internal/auth"
	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/cart"
	"github.com/bookease/marketplace/internal/domain/order"
	"github.com/bookease/marketplace/internal/domain/review"
	"github.com/bookease/marketplace/internal/domain/stats"
	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
	"github.com/bookease/marketplace/internal/domain/wishlist"
)

// Handler wires every API route to its domain service.
type Handler struct {
	auth      *auth.Service
	tokens    *auth.TokenManager
	users     user.Repository
	books     book.Repository
	carts     *cart.Service
	orders    *order.Service
	reviews   *review.Service
	wishlists *wishlist.Service
	stats     stats.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	authSvc *auth.Service,
	tokens *auth.TokenManager,
	users user.Repository,
	books book.Repository,
	carts *cart.Service,
	orders *order.Service,
	reviews *review.Service,
	wishlists *wishlist.Service,
	stats stats.Repository,
) *Handler {
	return &Handler{
		auth:      authSvc,
		tokens:    tokens,
		users:     users,
		books:     books,
		carts:     carts,
		orders:    orders,
		reviews:   reviews,
		wishlists: wishlists,
		stats:     stats,
	}
}

// Routes returns the API route table. Authentication and role gates are
// applied per route; ambient middleware (logging, CORS, rate limiting)
// wraps the returned handler in the app.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Auth.
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.Handle("GET /api/auth/me", h.authenticated(h.me))
	mux.Handle("PUT /api/auth/profile", h.authenticated(h.updateProfile))

	// Public catalog.
	mux.HandleFunc("GET /api/books", h.listBooks)
	mux.HandleFunc("GET /api/books/{id}", h.getBook)
	mux.HandleFunc("GET /api/books/{id}/reviews", h.listBookReviews)

	// Seller catalog management.
	mux.Handle("POST /api/books", h.requireRole(h.createBook, user.RoleSeller, user.RoleAdmin))
	mux.Handle("PUT /api/books/{id}", h.requireRole(h.updateBook, user.RoleSeller, user.RoleAdmin))
	mux.Handle("DELETE /api/books/{id}", h.requireRole(h.deactivateBook, user.RoleSeller, user.RoleAdmin))
	mux.Handle("GET /api/seller/books", h.requireRole(h.listSellerBooks, user.RoleSeller))
	mux.Handle("GET /api/seller/orders", h.requireRole(h.listSellerOrders, user.RoleSeller))

	// Cart.
	mux.Handle("GET /api/cart", h.authenticated(h.listCart))
	mux.Handle("POST /api/cart", h.authenticated(h.addToCart))
	mux.Handle("PUT /api/cart/{itemId}", h.authenticated(h.updateCartItem))
	mux.Handle("DELETE /api/cart/{itemId}", h.authenticated(h.removeCartItem))
	mux.Handle("DELETE /api/cart", h.authenticated(h.clearCart))

	// Orders.
	mux.Handle("POST /api/orders", h.authenticated(h.placeOrder))
	mux.Handle("GET /api/orders", h.authenticated(h.listMyOrders))
	mux.Handle("GET /api/orders/{id}", h.authenticated(h.getOrder))
	mux.Handle("PATCH /api/orders/{id}/status", h.requireRole(h.updateOrderStatus, user.RoleSeller, user.RoleAdmin))

	// Reviews.
	mux.Handle("POST /api/reviews", h.authenticated(h.addReview))

	// Wishlist.
	mux.Handle("GET /api/wishlist", h.authenticated(h.listWishlist))
	mux.Handle("POST /api/wishlist", h.authenticated(h.addToWishlist))
	mux.Handle("DELETE /api/wishlist/{bookId}", h.authenticated(h.removeFromWishlist))

	// Admin.
	mux.Handle("GET /api/admin/users", h.requireRole(h.listUsers, user.RoleAdmin))
	mux.Handle("PATCH /api/admin/users/{id}", h.requireRole(h.updateUser, user.RoleAdmin))
	mux.Handle("GET /api/admin/orders", h.requireRole(h.listAllOrders, user.RoleAdmin))
	mux.Handle("GET /api/admin/reviews", h.requireRole(h.listAllReviews, user.RoleAdmin))
	mux.Handle("PATCH /api/admin/reviews/{id}/approve", h.requireRole(h.approveReview, user.RoleAdmin))
	mux.Handle("GET /api/admin/analytics", h.requireRole(h.analytics, user.RoleAdmin))

	return mux
}

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respond(w, code, errorResponse{Code: code, Message: msg})
}

// decode reads the request body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return validation.New("malformed request body")
	}
	return nil
}

// respondDomainError maps a domain error onto the API's status codes:
// invalid input 400, missing entities 404, failed authentication 401,
// insufficient role or ownership 403, duplicates and state conflicts
// 409, and stock preconditions 422. Anything unrecognized is treated as
// a transient backend failure.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr  *validation.Error
		unErr *book.UnavailableError
		isErr *book.InsufficientStockError
		itErr *order.InvalidTransitionError
	)
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, order.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, order.ErrNotAuthorized),
		errors.Is(err, book.ErrNotOwner),
		errors.Is(err, review.ErrNotEligible):
		respondError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, book.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, wishlist.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, book.ErrISBNTaken),
		errors.Is(err, review.ErrDuplicate),
		errors.Is(err, wishlist.ErrDuplicate),
		errors.Is(err, order.ErrTrackingConflict),
		errors.As(err, &itErr):
		respondError(w, http.StatusConflict, err.Error())

	case errors.As(err, &unErr),
		errors.As(err, &isErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	}
}
