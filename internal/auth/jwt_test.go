package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		UserID: uuid.NewString(),
		Role:   RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "maria@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParseToken(t *testing.T) {
	claims := validClaims()
	token := signToken(t, claims, testSecret, jwt.SigningMethodHS256)

	parsed, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, parsed.UserID)
	assert.Equal(t, RoleUser, parsed.Role)
	assert.Equal(t, "maria@example.com", parsed.Subject)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token := signToken(t, validClaims(), "other-secret", jwt.SigningMethodHS256)

	_, err := ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, claims, testSecret, jwt.SigningMethodHS256)

	_, err := ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsNonUUIDSubject(t *testing.T) {
	claims := validClaims()
	claims.UserID = "not-a-uuid"
	token := signToken(t, claims, testSecret, jwt.SigningMethodHS256)

	_, err := ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(RoleAdmin, RoleUser))
	assert.True(t, Allows(RoleAdmin, RoleAdmin))
	assert.True(t, Allows(RoleStaff, RoleUser))
	assert.False(t, Allows(RoleStaff, RoleAdmin))
	assert.False(t, Allows(RoleUser, RoleStaff))
	assert.False(t, Allows("", RoleUser))
	assert.False(t, Allows("superuser", RoleUser))
}
