package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookease/marketplace/internal/domain/user"
)

func testUser() *user.User {
	return &user.User{
		ID:    "u-123",
		Name:  "Asha Rao",
		Email: "asha@example.com",
		Role:  user.RoleSeller,
	}
}

func TestTokenRoundtrip(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)

	token, err := tm.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-123", claims.UserID())
	assert.Equal(t, user.RoleSeller, claims.Role)
}

func TestVerify_Expired(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)
	issued := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issued }

	token, err := tm.Issue(testUser())
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tm.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenManager([]byte("secret-a"), time.Hour)
	verifier := NewTokenManager([]byte("secret-b"), time.Hour)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)

	_, err := tm.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_UnknownRole(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)

	u := testUser()
	u.Role = user.Role("superuser")
	token, err := tm.Issue(u)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
