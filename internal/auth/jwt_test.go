package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signToken(t, jwt.MapClaims{"sub": "ana", "role": "admin", "exp": exp.Unix()})

	tc, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana", tc.Subject)
	assert.Equal(t, "ana", tc.Username)
	assert.Equal(t, "admin", tc.Role)
	assert.True(t, exp.Equal(tc.ExpiresAt))
}

func TestParseClaims_IsAdminAndUsername(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"sub": "17", "username": "bo", "is_admin": false})

	tc, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "bo", tc.Username)
	assert.Equal(t, "user", tc.Role)
	assert.True(t, tc.ExpiresAt.IsZero())
}

func TestParseClaims_Opaque(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.ErrorIs(t, err, ErrNotJWT)
}

func TestRoleFromToken(t *testing.T) {
	assert.Equal(t, "admin", RoleFromToken(signToken(t, jwt.MapClaims{"is_admin": true}), "user"))
	assert.Equal(t, "user", RoleFromToken(signToken(t, jwt.MapClaims{"sub": "x"}), "user"))
	assert.Equal(t, "user", RoleFromToken("opaque", "user"))
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := signToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	future := signToken(t, jwt.MapClaims{"exp": now.Add(time.Minute).Unix()})

	assert.True(t, Expired(past, now))
	assert.False(t, Expired(future, now))
	assert.False(t, Expired("opaque", now))
}
