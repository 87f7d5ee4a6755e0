package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
)

type mockUserRepo struct {
	byEmail map[string]*user.User
	byID    map[string]*user.User
	created *user.User
}

func newMockUserRepo(users ...*user.User) *mockUserRepo {
	m := &mockUserRepo{
		byEmail: make(map[string]*user.User),
		byID:    make(map[string]*user.User),
	}
	for _, u := range users {
		m.byEmail[u.Email] = u
		m.byID[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	m.created = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]user.User, error) { return nil, nil }

func (m *mockUserRepo) Update(_ context.Context, _ string, _ user.Update) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id string, p user.Profile) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if p.Email != nil {
		if other, ok := m.byEmail[*p.Email]; ok && other.ID != id {
			return nil, user.ErrEmailTaken
		}
		delete(m.byEmail, u.Email)
		u.Email = *p.Email
		m.byEmail[u.Email] = u
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return u, nil
}

func newAuthService(users *mockUserRepo) *Service {
	return NewService(users, NewTokenManager([]byte("test-secret"), time.Hour))
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "s3cret1",
	}
}

func TestRegister_DefaultsToCustomer(t *testing.T) {
	users := newMockUserRepo()
	svc := newAuthService(users)

	sess, err := svc.Register(context.Background(), registerRequest())

	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, user.RoleCustomer, sess.User.Role)
	assert.True(t, sess.User.IsActive)
	assert.True(t, sess.User.IsApproved)
	assert.NotEqual(t, "s3cret1", sess.User.PasswordHash)
}

func TestRegister_SellerAwaitsApproval(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	req := registerRequest()
	req.Role = user.RoleSeller
	sess, err := svc.Register(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, user.RoleSeller, sess.User.Role)
	assert.False(t, sess.User.IsApproved)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	req := registerRequest()
	req.Role = user.RoleAdmin
	_, err := svc.Register(context.Background(), req)

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	cases := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }},
		{"short password", func(r *RegisterRequest) { r.Password = "12345" }},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := registerRequest()
			tc.mutate(&req)

			_, err := svc.Register(context.Background(), req)

			var vErr *validation.Error
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	svc := newAuthService(newMockUserRepo(&user.User{Email: "asha@example.com"}))

	_, err := svc.Register(context.Background(), registerRequest())

	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func profileUser(t *testing.T) *user.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret1"), bcrypt.MinCost)
	require.NoError(t, err)
	return &user.User{
		ID:           "u1",
		Name:         "Asha Rao",
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		Role:         user.RoleCustomer,
		IsActive:     true,
		IsApproved:   true,
	}
}

func TestUpdateProfile_ChangesFields(t *testing.T) {
	svc := newAuthService(newMockUserRepo(profileUser(t)))

	u, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{
		Name:  "Asha R.",
		Phone: "9876543210",
		Email: "asha.rao@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "Asha R.", u.Name)
	assert.Equal(t, "9876543210", u.Phone)
	assert.Equal(t, "asha.rao@example.com", u.Email)
}

func TestUpdateProfile_ChangesPassword(t *testing.T) {
	svc := newAuthService(newMockUserRepo(profileUser(t)))

	u, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{
		CurrentPassword: "s3cret1",
		NewPassword:     "n3wsecret",
	})

	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("n3wsecret")))
}

func TestUpdateProfile_WrongCurrentPassword(t *testing.T) {
	svc := newAuthService(newMockUserRepo(profileUser(t)))

	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{
		CurrentPassword: "wrong",
		NewPassword:     "n3wsecret",
	})

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateProfile_ShortNewPassword(t *testing.T) {
	svc := newAuthService(newMockUserRepo(profileUser(t)))

	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{
		CurrentPassword: "s3cret1",
		NewPassword:     "12345",
	})

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateProfile_InvalidEmail(t *testing.T) {
	svc := newAuthService(newMockUserRepo(profileUser(t)))

	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Email: "not-an-email"})

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	svc := newAuthService(newMockUserRepo(
		profileUser(t),
		&user.User{ID: "u2", Email: "taken@example.com"},
	))

	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Email: "taken@example.com"})

	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	_, err := svc.UpdateProfile(context.Background(), "ghost", UpdateProfileRequest{Name: "Ghost"})

	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret1"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := newAuthService(newMockUserRepo(&user.User{
		ID:           "u1",
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		Role:         user.RoleCustomer,
		IsActive:     true,
	}))

	sess, err := svc.Login(context.Background(), "asha@example.com", "s3cret1")

	require.NoError(t, err)
	assert.Equal(t, "u1", sess.User.ID)
	assert.NotEmpty(t, sess.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret1"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := newAuthService(newMockUserRepo(&user.User{
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}))

	_, err = svc.Login(context.Background(), "asha@example.com", "wrong")

	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")

	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret1"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := newAuthService(newMockUserRepo(&user.User{
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		IsActive:     false,
	}))

	_, err = svc.Login(context.Background(), "asha@example.com", "s3cret1")

	require.ErrorIs(t, err, ErrInvalidCredentials)
}
