// Package order implements the order engine: placement from a validated
// cart, the fulfillment status machine, and role-gated reads.
package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/bookease/marketplace/internal/domain/validation"
)

// Status is an order's position in the fulfillment lifecycle.
type Status string

const (
	StatusOrdered        Status = "ordered"
	StatusConfirmed      Status = "confirmed"
	StatusPacking        Status = "packing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// statusRank orders the forward lifecycle. Cancelled sits outside the
// linear sequence and is handled separately.
var statusRank = map[Status]int{
	StatusOrdered:        0,
	StatusConfirmed:      1,
	StatusPacking:        2,
	StatusShipped:        3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentMethod is the payment-method label recorded on an order. No
// transaction processing happens here.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentCard       PaymentMethod = "Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "NetBanking"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentNetBanking:
		return true
	}
	return false
}

// PaymentStatus tracks whether the recorded payment settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

var (
	// ErrEmptyCart is returned when placing an order from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNotAuthorized is returned when the actor may not view or mutate
	// the order.
	ErrNotAuthorized = errors.New("not authorized for this order")
	// ErrTrackingConflict is returned when the generated tracking ID
	// collides with an existing order. The whole placement is safe to
	// retry: nothing was committed.
	ErrTrackingConflict = errors.New("tracking id already exists")
)

// InvalidTransitionError indicates a status change the state machine
// rejects.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Line is an immutable snapshot of a book at placement time. It stays
// accurate even if the book later changes price or is deactivated.
// SellerID is denormalized so seller authorization never needs a catalog
// lookup.
type Line struct {
	BookID   string          `json:"bookId"`
	SellerID string          `json:"sellerId"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	ImageURL string          `json:"imageUrl"`
}

// Total returns price * quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ShippingAddress is the destination recorded on an order.
type ShippingAddress struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// Validate checks the required address fields.
func (a ShippingAddress) Validate() error {
	switch {
	case a.Name == "":
		return validation.New("shipping name is required")
	case a.Street == "":
		return validation.New("shipping street is required")
	case a.City == "":
		return validation.New("shipping city is required")
	case a.State == "":
		return validation.New("shipping state is required")
	case a.ZipCode == "":
		return validation.New("shipping zip code is required")
	case a.Phone == "":
		return validation.New("shipping phone is required")
	}
	return nil
}

// Order is created atomically from a user's cart. TotalPrice always
// equals the sum of line totals at creation and is never recomputed from
// live book prices.
type Order struct {
	ID                 string
	UserID             string
	Lines              []Line
	ShippingAddress    ShippingAddress
	TotalPrice         decimal.Decimal
	PaymentMethod      PaymentMethod
	PaymentStatus      PaymentStatus
	Status             Status
	TrackingID         string
	ExpectedDelivery   *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ContainsBook reports whether the order has a line for the given book.
func (o *Order) ContainsBook(bookID string) bool {
	for _, l := range o.Lines {
		if l.BookID == bookID {
			return true
		}
	}
	return false
}

// SoldBy reports whether any line's book belongs to the given seller.
func (o *Order) SoldBy(sellerID string) bool {
	for _, l := range o.Lines {
		if l.SellerID == sellerID {
			return true
		}
	}
	return false
}

// TransitionTo advances the order to target at the given time. Statuses
// are monotonic: the target must rank strictly after the current status
// (skipping intermediates is allowed), cancelled is reachable from any
// non-terminal state, and terminal states are frozen. First-time side
// effects stamp ExpectedDelivery (confirmed, +7 days), DeliveredAt
// (delivered), and CancelledAt plus reason (cancelled).
func (o *Order) TransitionTo(target Status, reason string, now time.Time) error {
	if !target.Valid() {
		return &InvalidTransitionError{From: o.Status, To: target}
	}
	if o.Status.Terminal() {
		return &InvalidTransitionError{From: o.Status, To: target}
	}

	if target == StatusCancelled {
		o.Status = StatusCancelled
		t := now
		o.CancelledAt = &t
		o.CancellationReason = reason
		o.UpdatedAt = now
		return nil
	}

	if statusRank[target] <= statusRank[o.Status] {
		return &InvalidTransitionError{From: o.Status, To: target}
	}

	o.Status = target
	if target == StatusConfirmed && o.ExpectedDelivery == nil {
		t := now.Add(7 * 24 * time.Hour)
		o.ExpectedDelivery = &t
	}
	if target == StatusDelivered && o.DeliveredAt == nil {
		t := now
		o.DeliveredAt = &t
	}
	o.UpdatedAt = now
	return nil
}

const (
	trackingPrefix      = "BKE"
	trackingSuffixLen   = 5
	trackingSuffixChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewTrackingID generates a human-readable tracking identifier: a fixed
// prefix, the coarse creation timestamp, and a short random suffix.
// Uniqueness is probabilistic; the storage layer's unique constraint
// turns the rare collision into a retryable ErrTrackingConflict.
func NewTrackingID(now time.Time) string {
	buf := make([]byte, trackingSuffixLen)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = trackingSuffixChars[int(b)%len(trackingSuffixChars)]
	}
	return trackingPrefix + strconv.FormatInt(now.UnixMilli(), 10) + string(buf)
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order, decrements each line's stock
	// conditionally, and consumes the user's cart in one transaction.
	// A failed decrement aborts with *book.InsufficientStockError; a
	// tracking ID collision aborts with ErrTrackingConflict.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// ListBySeller returns orders containing at least one of the
	// seller's books.
	ListBySeller(ctx context.Context, sellerID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	// UpdateStatus persists the status and its side-effect timestamps.
	UpdateStatus(ctx context.Context, o *Order) error
	// HasDelivered reports whether the user has a delivered order
	// containing the book.
	HasDelivered(ctx context.Context, userID, bookID string) (bool, error)
}
