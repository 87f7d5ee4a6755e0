package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/cart"
	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
)

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID string
	Role   user.Role
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	UserID          string
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
}

// Service encapsulates order placement and fulfillment business logic.
type Service struct {
	books  book.Repository
	carts  cart.Repository
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service with the required domain
// dependencies.
func NewService(books book.Repository, carts cart.Repository, orders Repository) *Service {
	return &Service{
		books:  books,
		carts:  carts,
		orders: orders,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Place transforms the user's current cart into an immutable order.
//
// The validation pass is fail-fast and all-or-nothing: an empty cart, an
// unavailable book, or insufficient stock aborts before any mutation.
// The commit phase runs in a single storage transaction — order insert,
// conditional stock decrements, cart consumption — so an order never
// exists without its stock reserved. Stock may have dropped since the
// items were added, so availability is re-checked here and again inside
// the transaction's conditional decrements.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentCOD
	}
	if !req.PaymentMethod.Valid() {
		return nil, validation.Errorf("unknown payment method %q", req.PaymentMethod)
	}
	if req.ShippingAddress.Country == "" {
		req.ShippingAddress.Country = "India"
	}

	items, err := s.carts.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.BookID
	}
	books, err := s.books.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load books")
	}
	byID := make(map[string]book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	// Validation pass: every line must resolve to an active book with
	// enough stock before anything is touched.
	lines := make([]Line, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		b, ok := byID[it.BookID]
		if !ok || !b.IsActive {
			return nil, &book.UnavailableError{BookID: it.BookID, Title: b.Title}
		}
		if b.Stock < it.Quantity {
			return nil, &book.InsufficientStockError{
				BookID:    b.ID,
				Title:     b.Title,
				Requested: it.Quantity,
				Available: b.Stock,
			}
		}

		line := Line{
			BookID:   b.ID,
			SellerID: b.SellerID,
			Quantity: it.Quantity,
			Price:    b.Price,
			Title:    b.Title,
			Author:   b.Author,
			ImageURL: b.ImageURL,
		}
		lines = append(lines, line)
		total = total.Add(line.Total())
	}

	now := s.now()
	o := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Lines:           lines,
		ShippingAddress: req.ShippingAddress,
		TotalPrice:      total,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   PaymentPending,
		Status:          StatusOrdered,
		TrackingID:      NewTrackingID(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		var ise *book.InsufficientStockError
		if errors.As(err, &ise) || errors.Is(err, ErrTrackingConflict) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// UpdateStatus advances an order through the fulfillment lifecycle.
// Only an admin, or a seller owning at least one book in the order's
// line snapshot, may transition status. Customers never may, including
// the order's owner.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, actor Actor, target Status, reason string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleSeller:
		if !o.SoldBy(actor.UserID) {
			return nil, ErrNotAuthorized
		}
	default:
		return nil, ErrNotAuthorized
	}

	if err := o.TransitionTo(target, reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, errors.Wrap(err, "persist status")
	}
	return o, nil
}

// Get returns a single order, visible to its owner, an involved seller,
// or an admin.
func (s *Service) Get(ctx context.Context, orderID string, actor Actor) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	isOwner := o.UserID == actor.UserID
	isSeller := actor.Role == user.RoleSeller && o.SoldBy(actor.UserID)
	isAdmin := actor.Role == user.RoleAdmin
	if !isOwner && !isSeller && !isAdmin {
		return nil, ErrNotAuthorized
	}
	return o, nil
}

// ListMine returns the actor's own orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListForSeller returns orders containing at least one of the seller's
// books.
func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

// ListAll returns every order. Admin only; the handler gates the role.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}
