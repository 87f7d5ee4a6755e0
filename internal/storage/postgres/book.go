package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bookease/marketplace/internal/domain/book"
)

const bookColumns = `id, title, author, description, price, original_price, stock, image_url,
		category, seller_id, isbn, language, pages, publisher, publication_date,
		average_rating, total_reviews, is_active, created_at, updated_at`

const (
	createBookSQL = `INSERT INTO books (id, title, author, description, price, original_price, stock,
			image_url, category, seller_id, isbn, language, pages, publisher, publication_date,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)`

	getBookByIDSQL = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	getBooksByIDsSQL = `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`

	updateBookSQL = `UPDATE books SET
			title = $2, author = $3, description = $4, price = $5, original_price = $6,
			stock = $7, image_url = $8, category = $9, isbn = $10, language = $11,
			pages = $12, publisher = $13, publication_date = $14, is_active = $15,
			updated_at = now()
		WHERE id = $1`

	deactivateBookSQL = `UPDATE books SET is_active = FALSE, updated_at = now() WHERE id = $1`

	updateRatingSQL = `UPDATE books SET average_rating = $2, total_reviews = $3, updated_at = now()
		WHERE id = $1`
)

// decrementStockSQL reserves stock only when enough remains; zero rows
// affected means the conditional check failed.
const decrementStockSQL = `UPDATE books SET stock = stock - $2, updated_at = now()
	WHERE id = $1 AND stock >= $2`

var _ book.Repository = (*BookRepository)(nil)

// BookRepository implements book.Repository backed by PostgreSQL.
type BookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository returns a BookRepository that uses the given pool.
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

// Create persists a new catalog entry.
func (r *BookRepository) Create(ctx context.Context, b *book.Book) error {
	_, err := r.pool.Exec(ctx, createBookSQL,
		b.ID, b.Title, b.Author, b.Description, b.Price,
		nullDecimal(b.OriginalPrice), b.Stock, b.ImageURL, b.Category, b.SellerID,
		nullString(b.ISBN), b.Language, nullInt(b.Pages), b.Publisher,
		nullTime(b.PublicationDate), b.IsActive, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_idx") {
			return book.ErrISBNTaken
		}
		return fmt.Errorf("creating book %q: %w", b.ID, err)
	}
	return nil
}

// GetByID returns a single book by identifier, active or not.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*book.Book, error) {
	rows, err := r.pool.Query(ctx, getBookByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting book %q: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrNotFound
		}
		return nil, fmt.Errorf("getting book %q: %w", id, err)
	}
	return &b, nil
}

// GetByIDs returns books matching any of the given IDs.
func (r *BookRepository) GetByIDs(ctx context.Context, ids []string) ([]book.Book, error) {
	rows, err := r.pool.Query(ctx, getBooksByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting books by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanBook)
}

// sortColumns whitelists the sortable fields; anything else falls back
// to created_at.
var sortColumns = map[string]string{
	"created_at":     "created_at",
	"price":          "price",
	"average_rating": "average_rating",
	"title":          "title",
}

// List returns one page of active books matching the filter.
func (r *BookRepository) List(ctx context.Context, f book.Filter) (*book.Page, error) {
	where := []string{"is_active"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Search != "" {
		where = append(where,
			"to_tsvector('english', title || ' ' || author || ' ' || description) @@ plainto_tsquery('english', "+arg(f.Search)+")")
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Author != "" {
		where = append(where, "author ILIKE "+arg("%"+f.Author+"%"))
	}
	if f.SellerID != "" {
		where = append(where, "seller_id = "+arg(f.SellerID))
	}
	if !f.MinPrice.IsZero() {
		where = append(where, "price >= "+arg(f.MinPrice))
	}
	if !f.MaxPrice.IsZero() {
		where = append(where, "price <= "+arg(f.MaxPrice))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM books WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting books: %w", err)
	}

	sortCol, ok := sortColumns[f.Sort]
	if !ok {
		sortCol = "created_at"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 {
		perPage = 12
	}

	query := "SELECT " + bookColumns + " FROM books WHERE " + cond +
		" ORDER BY " + sortCol + " " + dir +
		" LIMIT " + arg(perPage) + " OFFSET " + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	books, err := pgx.CollectRows(rows, scanBook)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	totalPages := (total + perPage - 1) / perPage
	return &book.Page{
		Books:      books,
		Total:      total,
		TotalPages: totalPages,
		Current:    page,
	}, nil
}

// Update overwrites the seller-editable fields.
func (r *BookRepository) Update(ctx context.Context, b *book.Book) error {
	tag, err := r.pool.Exec(ctx, updateBookSQL,
		b.ID, b.Title, b.Author, b.Description, b.Price,
		nullDecimal(b.OriginalPrice), b.Stock, b.ImageURL, b.Category,
		nullString(b.ISBN), b.Language, nullInt(b.Pages), b.Publisher,
		nullTime(b.PublicationDate), b.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_idx") {
			return book.ErrISBNTaken
		}
		return fmt.Errorf("updating book %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a book; historical order lines keep their
// snapshot regardless.
func (r *BookRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deactivateBookSQL, id)
	if err != nil {
		return fmt.Errorf("deactivating book %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

// DecrementStock performs the conditional decrement on the pool.
func (r *BookRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	return decrementStock(ctx, r.pool, id, qty)
}

// queryExecer covers both *pgxpool.Pool and pgx.Tx so the conditional
// decrement can run standalone or inside the placement transaction.
type queryExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// decrementStock runs the conditional stock decrement on any pgx
// executor. On a failed condition it re-reads the row to report the
// actual shortfall.
func decrementStock(ctx context.Context, db queryExecer, id string, qty int) error {
	tag, err := db.Exec(ctx, decrementStockSQL, id, qty)
	if err != nil {
		return fmt.Errorf("decrementing stock for %q: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var (
		title string
		stock int
	)
	err = db.QueryRow(ctx, "SELECT title, stock FROM books WHERE id = $1", id).Scan(&title, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &book.UnavailableError{BookID: id}
		}
		return fmt.Errorf("checking stock for %q: %w", id, err)
	}
	return &book.InsufficientStockError{
		BookID:    id,
		Title:     title,
		Requested: qty,
		Available: stock,
	}
}

// UpdateRating overwrites the derived rating aggregate.
func (r *BookRepository) UpdateRating(ctx context.Context, id string, avg decimal.Decimal, total int) error {
	tag, err := r.pool.Exec(ctx, updateRatingSQL, id, avg, total)
	if err != nil {
		return fmt.Errorf("updating rating for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.CollectableRow) (book.Book, error) {
	var (
		b       book.Book
		origPrc *decimal.Decimal
		isbn    *string
		pages   *int
		pubDate *time.Time
		avg     decimal.Decimal
	)
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &origPrc, &b.Stock,
		&b.ImageURL, &b.Category, &b.SellerID, &isbn, &b.Language, &pages,
		&b.Publisher, &pubDate, &avg, &b.TotalReviews, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if origPrc != nil {
		b.OriginalPrice = *origPrc
	}
	if isbn != nil {
		b.ISBN = *isbn
	}
	if pages != nil {
		b.Pages = *pages
	}
	if pubDate != nil {
		b.PublicationDate = *pubDate
	}
	b.AverageRating = avg
	return b, err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullDecimal(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}
