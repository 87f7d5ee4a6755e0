// Package user defines marketplace accounts and their roles.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role determines which operations an account may perform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email that is
	// already attached to an account.
	ErrEmailTaken = errors.New("email already registered")
)

// User represents a marketplace account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	Address      string
	IsActive     bool
	IsApproved   bool
	CreatedAt    time.Time
}

// Update holds the admin-mutable account fields. Nil pointers leave the
// corresponding field unchanged.
type Update struct {
	Role       *Role
	IsActive   *bool
	IsApproved *bool
}

// Profile holds the self-service account fields. Nil pointers leave the
// corresponding field unchanged.
type Profile struct {
	Name         *string
	Phone        *string
	Address      *string
	Email        *string
	PasswordHash *string
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, upd Update) (*User, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (*User, error)
}
