package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotJWT = errors.New("token is not a JWT")

// TokenClaims is what the console reads out of a backend bearer token. The
// console never holds the backend's signing key, so the signature is not
// checked here; the backend verifies it on every call.
type TokenClaims struct {
	Subject   string
	Username  string
	Role      string
	ExpiresAt time.Time
}

func ParseClaims(tokenString string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	tc := &TokenClaims{}
	tc.Subject, _ = claims.GetSubject()
	tc.Username = stringClaim(claims, "username")
	if tc.Username == "" {
		tc.Username = tc.Subject
	}
	tc.Role = stringClaim(claims, "role")
	if tc.Role == "" {
		if isAdmin, ok := claims["is_admin"].(bool); ok {
			tc.Role = "user"
			if isAdmin {
				tc.Role = "admin"
			}
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	return tc, nil
}

// RoleFromToken returns the role carried by the token, or fallback when the
// token is opaque or has no role claim.
func RoleFromToken(tokenString, fallback string) string {
	tc, err := ParseClaims(tokenString)
	if err != nil || tc.Role == "" {
		return fallback
	}
	return tc.Role
}

// Expired reports whether the token carries an exp claim in the past. Opaque
// tokens never expire from the console's point of view.
func Expired(tokenString string, now time.Time) bool {
	tc, err := ParseClaims(tokenString)
	if err != nil || tc.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(tc.ExpiresAt)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
