package auth

import (
	"fmt"

	coreauth "github.com/uptome-dev/uptome/internal/auth"
)

// TokenStore defines the interface for token storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	SaveToken(origin, token string) error
	LoadToken(origin string) (string, error)
	DeleteToken(origin string) error
}

// defaultTokenStore implements TokenStore using the OS keyring
type defaultTokenStore struct{}

var Default TokenStore = &defaultTokenStore{}

// File stores tokens in ~/.config/uptome/config.json
var File TokenStore = &fileTokenStore{}

func (d *defaultTokenStore) SaveToken(origin, token string) error {
	return SaveToken(origin, token)
}

func (d *defaultTokenStore) LoadToken(origin string) (string, error) {
	return LoadToken(origin)
}

func (d *defaultTokenStore) DeleteToken(origin string) error {
	return DeleteToken(origin)
}

// StoreFor returns the store named by kind: "keyring" (default) or "file".
func StoreFor(kind string) (TokenStore, error) {
	switch kind {
	case "", "keyring":
		return Default, nil
	case "file":
		return File, nil
	default:
		return nil, fmt.Errorf("unknown token store %q (expected keyring or file)", kind)
	}
}

// Source binds a store to one backend origin so it can feed an identity
// resolver.
func Source(store TokenStore, origin string) coreauth.TokenSource {
	return coreauth.TokenSourceFunc(func() (string, error) {
		return store.LoadToken(origin)
	})
}
