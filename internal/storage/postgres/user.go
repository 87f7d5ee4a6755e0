package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookease/marketplace/internal/domain/user"
)

const userColumns = `id, name, email, password_hash, role, phone, address, is_active, is_approved, created_at`

const (
	createUserSQL = `INSERT INTO users (id, name, email, password_hash, role, phone, address, is_active, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	listUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	updateUserSQL = `UPDATE users SET
			role = COALESCE($2, role),
			is_active = COALESCE($3, is_active),
			is_approved = COALESCE($4, is_approved),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	updateProfileSQL = `UPDATE users SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			address = COALESCE($4, address),
			email = COALESCE($5, email),
			password_hash = COALESCE($6, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new account. A duplicate email surfaces as
// user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, createUserSQL,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
		u.Phone, u.Address, u.IsActive, u.IsApproved, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a single user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns a single user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Update applies the non-nil fields of upd and returns the fresh row.
func (r *UserRepository) Update(ctx context.Context, id string, upd user.Update) (*user.User, error) {
	var role *string
	if upd.Role != nil {
		s := string(*upd.Role)
		role = &s
	}
	rows, err := r.pool.Query(ctx, updateUserSQL, id, role, upd.IsActive, upd.IsApproved)
	if err != nil {
		return nil, fmt.Errorf("updating user %q: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("updating user %q: %w", id, err)
	}
	return &u, nil
}

// UpdateProfile applies the non-nil fields of p and returns the fresh
// row. A duplicate email surfaces as user.ErrEmailTaken.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p user.Profile) (*user.User, error) {
	rows, err := r.pool.Query(ctx, updateProfileSQL,
		id, p.Name, p.Phone, p.Address, p.Email, p.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, user.ErrEmailTaken
		}
		return nil, fmt.Errorf("updating profile for %q: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, user.ErrEmailTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("updating profile for %q: %w", id, err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u    user.User
		role string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.Phone, &u.Address, &u.IsActive, &u.IsApproved, &u.CreatedAt,
	)
	u.Role = user.Role(role)
	return u, err
}
