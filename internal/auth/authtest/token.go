// Package authtest mints session tokens for tests.
package authtest

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uptome-dev/uptome/internal/auth"
)

// Secret signs every token produced by this package.
var Secret = []byte("authtest-secret")

// Token returns a signed session token for userID carrying roles.
func Token(t testing.TB, userID string, roles ...auth.Role) string {
	t.Helper()

	claims := auth.Claims{
		UserID:    userID,
		Roles:     roles,
		Timestamp: "2024-01-01T10:00:00Z",
		ExpiresAt: "2024-01-01T12:00:00Z",
	}
	return sign(t, claims)
}

// TokenWithoutRoles returns a signed token with no roles claim at all.
func TokenWithoutRoles(t testing.TB, userID string) string {
	t.Helper()
	return sign(t, jwt.MapClaims{"user_id": userID})
}

func sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}
