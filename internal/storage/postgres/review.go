package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookease/marketplace/internal/domain/review"
)

const reviewColumns = `id, user_id, book_id, rating, title, comment, is_approved, created_at`

const (
	createReviewSQL = `INSERT INTO reviews (id, user_id, book_id, rating, title, comment, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	getReviewByIDSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	approveReviewSQL = `UPDATE reviews SET is_approved = true, updated_at = now()
		WHERE id = $1 RETURNING ` + reviewColumns

	listApprovedByBookSQL = `SELECT ` + reviewColumns + ` FROM reviews
		WHERE book_id = $1 AND is_approved ORDER BY created_at DESC`

	listAllReviewsSQL = `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC`

	approvedStatsSQL = `SELECT count(*)::int, COALESCE(sum(rating), 0)::int FROM reviews
		WHERE book_id = $1 AND is_approved`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.pool.Exec(ctx, createReviewSQL,
		rv.ID, rv.UserID, rv.BookID, rv.Rating, rv.Title, rv.Comment,
		rv.Approved, rv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "reviews_user_id_book_id_key") {
			return review.ErrDuplicate
		}
		return fmt.Errorf("creating review %q: %w", rv.ID, err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, getReviewByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Approve(ctx context.Context, id string) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, approveReviewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("approving review %q: %w", id, err)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("approving review %q: %w", id, err)
	}
	return &rv, nil
}

func (r *ReviewRepository) ListApprovedByBook(ctx context.Context, bookID string) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listApprovedByBookSQL, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for book %q: %w", bookID, err)
	}
	return pgx.CollectRows(rows, scanReview)
}

func (r *ReviewRepository) ListAll(ctx context.Context) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listAllReviewsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return pgx.CollectRows(rows, scanReview)
}

// ApprovedStats returns the count and rating sum over approved reviews
// of a book, for recomputing its average.
func (r *ReviewRepository) ApprovedStats(ctx context.Context, bookID string) (int, int, error) {
	var count, sum int
	err := r.pool.QueryRow(ctx, approvedStatsSQL, bookID).Scan(&count, &sum)
	if err != nil {
		return 0, 0, fmt.Errorf("computing rating stats for book %q: %w", bookID, err)
	}
	return count, sum, nil
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rv review.Review
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.BookID, &rv.Rating, &rv.Title, &rv.Comment,
		&rv.Approved, &rv.CreatedAt,
	)
	return rv, err
}
