package auth

import (
	"errors"
	"fmt"
)

// TokenSource yields the currently persisted session token. Implementations
// return ErrNoToken when nothing is stored.
type TokenSource interface {
	LoadToken() (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() (string, error)

func (f TokenSourceFunc) LoadToken() (string, error) {
	return f()
}

// StaticToken is a TokenSource holding a fixed token. An empty token means
// no session.
type StaticToken string

func (s StaticToken) LoadToken() (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Resolver derives the caller's identity from the persisted session token.
// It performs a local read and nothing else.
type Resolver struct {
	source TokenSource
	secret []byte
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithVerificationKey makes the resolver check the token signature with the
// given HS256 secret instead of trusting the payload.
func WithVerificationKey(secret []byte) ResolverOption {
	return func(r *Resolver) {
		r.secret = secret
	}
}

// NewResolver creates a resolver reading tokens from source.
func NewResolver(source TokenSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentExternalID returns the external user id of the current session,
// or ErrNoToken when there is none.
func (r *Resolver) CurrentExternalID() (string, error) {
	claims, err := r.claims()
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// CurrentIdentity returns the identity of the current session. A token
// without a roles claim yields an identity with no roles.
func (r *Resolver) CurrentIdentity() (*Identity, error) {
	claims, err := r.claims()
	if err != nil {
		return nil, err
	}
	return identityFromClaims(claims), nil
}

// CurrentClaims returns the full decoded claims of the current session.
func (r *Resolver) CurrentClaims() (*Claims, error) {
	return r.claims()
}

func (r *Resolver) claims() (*Claims, error) {
	if r.source == nil {
		return nil, ErrNoToken
	}

	token, err := r.source.LoadToken()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}
	if token == "" {
		return nil, ErrNoToken
	}

	if len(r.secret) > 0 {
		return VerifyToken(token, r.secret)
	}
	return DecodeToken(token)
}
