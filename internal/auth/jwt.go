package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTimeLayout = "2006-01-02T15:04:05Z"

var (
	ErrNoToken        = errors.New("no session token")
	ErrMalformedToken = errors.New("malformed session token")
)

// Claims represents the payload of a session token issued by the
// passwordless login exchange.
type Claims struct {
	UserID    string `json:"user_id"`
	Roles     []Role `json:"roles,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	jwt.RegisteredClaims
}

// ExpiresAtTime parses the expires_at claim. The second return value is
// false when the claim is missing or unparseable.
func (c *Claims) ExpiresAtTime() (time.Time, bool) {
	if c.ExpiresAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(tokenTimeLayout, c.ExpiresAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DecodeToken reads the claims of a session token without verifying its
// signature. The result is only good for UI gating; the backend re-checks
// every request that matters.
func DecodeToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return claims, nil
}

// VerifyToken decodes a session token and checks its HS256 signature
// against secret.
func VerifyToken(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("verification secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("%w: invalid token", ErrMalformedToken)
}
