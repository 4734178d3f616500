package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/journal/domain"
)

func testAccount() domain.Account {
	return domain.Account{ID: 7, Email: "ada@example.org", FirstName: "Ada", LastName: "Lovelace"}
}

func TestService_IssueAndParse(t *testing.T) {
	svc := NewService("secret", "journal", time.Hour)

	issued, err := svc.Issue(testAccount(), domain.EditorProfile{ID: 3, IsApproved: true})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Value)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))

	claims, err := svc.Parse(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "ada@example.org", claims.Email)
	assert.Equal(t, int64(3), claims.EditorID)
	assert.True(t, claims.IsApproved)
	assert.Equal(t, TypeAccess, claims.TokenType)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestService_ParseRejectsWrongSecret(t *testing.T) {
	issued, err := NewService("secret", "journal", time.Hour).Issue(testAccount(), domain.EditorProfile{ID: 1})
	require.NoError(t, err)

	_, err = NewService("other", "journal", time.Hour).Parse(issued.Value)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestService_ParseRejectsWrongIssuer(t *testing.T) {
	issued, err := NewService("secret", "someone-else", time.Hour).Issue(testAccount(), domain.EditorProfile{ID: 1})
	require.NoError(t, err)

	_, err = NewService("secret", "journal", time.Hour).Parse(issued.Value)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestService_ParseExpired(t *testing.T) {
	svc := NewService("secret", "journal", time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	issued, err := svc.Issue(testAccount(), domain.EditorProfile{ID: 1})
	require.NoError(t, err)

	_, err = svc.Parse(issued.Value)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestService_ParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "journal",
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti",
		},
		TokenType: TypeAccess,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewService("secret", "journal", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestService_ParseGarbage(t *testing.T) {
	svc := NewService("secret", "journal", time.Hour)
	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalid, raw)
	}
}

func TestClaims_AccountIDInvalidSubject(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := c.AccountID()
	assert.ErrorIs(t, err, ErrInvalid)
}
