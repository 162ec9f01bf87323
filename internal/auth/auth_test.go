package auth

import (
	"errors"
	"testing"
	"time"

	"moviestore/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens, err := NewTokens("secret")
	require.NoError(t, err)

	tok, err := tokens.Issue(domain.Principal{UserID: "u1", Admin: true}, time.Hour)
	require.NoError(t, err)

	p, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: "u1", Admin: true}, p)

	tok, err = tokens.Issue(domain.Principal{UserID: "u2"}, time.Hour)
	require.NoError(t, err)
	p, err = tokens.Verify(tok)
	require.NoError(t, err)
	assert.False(t, p.Admin)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens, err := NewTokens("secret")
	require.NoError(t, err)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := tokens.Issue(domain.Principal{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, err := NewTokens("a")
	require.NoError(t, err)
	b, err := NewTokens("b")
	require.NoError(t, err)

	tok, err := a.Issue(domain.Principal{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	tokens, err := NewTokens("secret")
	require.NoError(t, err)

	claims := Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := NewTokens(" ")
	assert.Error(t, err)
}
