package auth

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
)

// ErrInvalidCredentials is returned on a failed login. It deliberately
// does not distinguish unknown email from wrong password or a
// deactivated account.
var ErrInvalidCredentials = errors.New("invalid credentials or account deactivated")

// Service implements registration and login on top of the user store.
type Service struct {
	users  user.Repository
	tokens *TokenManager
}

// NewService creates an auth Service.
func NewService(users user.Repository, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
	Phone    string
	Address  string
}

// Session pairs an authenticated user with a fresh bearer token.
type Session struct {
	User  *user.User
	Token string
}

// Register creates an account and issues its first token. Accounts
// default to the customer role; only customer and seller can be chosen
// at registration — admins are provisioned out of band.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	switch {
	case req.Name == "":
		return nil, validation.New("name is required")
	case req.Password == "" || len(req.Password) < 6:
		return nil, validation.New("password must be at least 6 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, validation.New("valid email is required")
	}
	if req.Role == "" {
		req.Role = user.RoleCustomer
	}
	if req.Role != user.RoleCustomer && req.Role != user.RoleSeller {
		return nil, validation.Errorf("role %q cannot be chosen at registration", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
		IsActive:     true,
		// Customers are usable immediately; sellers wait for admin approval.
		IsApproved: req.Role == user.RoleCustomer,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// UpdateProfileRequest holds the self-service profile changes. Empty
// fields are left unchanged; changing the password requires the current
// one.
type UpdateProfileRequest struct {
	Name            string
	Phone           string
	Address         string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile applies the non-empty fields of req to the user's own
// account and returns the fresh record.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var p user.Profile
	if req.Name != "" {
		p.Name = &req.Name
	}
	if req.Phone != "" {
		p.Phone = &req.Phone
	}
	if req.Address != "" {
		p.Address = &req.Address
	}
	if req.Email != "" && req.Email != u.Email {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, validation.New("valid email is required")
		}
		p.Email = &req.Email
	}
	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			return nil, validation.New("password must be at least 6 characters")
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return nil, validation.New("current password is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		hashed := string(hash)
		p.PasswordHash = &hashed
	}

	return s.users.UpdateProfile(ctx, userID, p)
}

// Login verifies credentials against the stored bcrypt hash and issues
// a token for active accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}
