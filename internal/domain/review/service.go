package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/order"
	"github.com/bookease/marketplace/internal/domain/validation"
)

const (
	maxTitleLen   = 100
	maxCommentLen = 1000
)

// Service implements review creation, admin approval, and the derived
// rating recomputation.
type Service struct {
	reviews Repository
	books   book.Repository
	orders  order.Repository
}

// NewService creates a review Service.
func NewService(reviews Repository, books book.Repository, orders order.Repository) *Service {
	return &Service{reviews: reviews, books: books, orders: orders}
}

// AddRequest holds the input for creating a review.
type AddRequest struct {
	UserID  string
	BookID  string
	Rating  int
	Title   string
	Comment string
}

// Add creates a review. The user must have at least one delivered order
// containing the book; a second review for the same (user, book) fails
// with ErrDuplicate and leaves the book's aggregate untouched.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Review, error) {
	switch {
	case req.Rating < 1 || req.Rating > 5:
		return nil, validation.New("rating must be between 1 and 5")
	case req.Comment == "":
		return nil, validation.New("comment is required")
	case len(req.Comment) > maxCommentLen:
		return nil, validation.Errorf("comment exceeds %d characters", maxCommentLen)
	case len(req.Title) > maxTitleLen:
		return nil, validation.Errorf("title exceeds %d characters", maxTitleLen)
	}

	if _, err := s.books.GetByID(ctx, req.BookID); err != nil {
		return nil, err
	}

	delivered, err := s.orders.HasDelivered(ctx, req.UserID, req.BookID)
	if err != nil {
		return nil, errors.Wrap(err, "check purchase history")
	}
	if !delivered {
		return nil, ErrNotEligible
	}

	r := &Review{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		BookID:    req.BookID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	// New reviews start unapproved and do not touch the book's aggregate
	// until an admin approves them.
	return r, nil
}

// Approve marks a review visible and recomputes the book's aggregate.
func (s *Service) Approve(ctx context.Context, reviewID string) (*Review, error) {
	r, err := s.reviews.Approve(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.Recompute(ctx, r.BookID); err != nil {
		return nil, errors.Wrap(err, "recompute rating")
	}
	return r, nil
}

// Recompute overwrites the book's averageRating and totalReviews from
// the full set of approved reviews. The average is rounded to one
// decimal place; zero approved reviews reset both fields. Running it
// twice with no intervening change is a no-op.
func (s *Service) Recompute(ctx context.Context, bookID string) error {
	count, sum, err := s.reviews.ApprovedStats(ctx, bookID)
	if err != nil {
		return errors.Wrap(err, "approved stats")
	}
	if count == 0 {
		return s.books.UpdateRating(ctx, bookID, decimal.Zero, 0)
	}
	avg := decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(count))).
		Round(1)
	return s.books.UpdateRating(ctx, bookID, avg, count)
}

// ListForBook returns the approved reviews of a book, newest first.
func (s *Service) ListForBook(ctx context.Context, bookID string) ([]Review, error) {
	return s.reviews.ListApprovedByBook(ctx, bookID)
}

// ListAll returns every review, approved or not. Admin only; the
// handler gates the role.
func (s *Service) ListAll(ctx context.Context) ([]Review, error) {
	return s.reviews.ListAll(ctx)
}
