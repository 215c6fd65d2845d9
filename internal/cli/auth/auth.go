package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	coreauth "github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/cli/userconfig"
)

const (
	service = "uptome-cli"
)

// getKeyringKey returns a unique key for storing session tokens per backend
func getKeyringKey(origin string) string {
	return fmt.Sprintf("jwt-%s", origin)
}

// SaveToken persists the session token securely in the OS keychain/credential manager
func SaveToken(origin, token string) error {
	key := getKeyringKey(origin)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the session token from the OS keychain/credential manager
func LoadToken(origin string) (string, error) {
	key := getKeyringKey(origin)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", coreauth.ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the session token from the OS keychain/credential manager
func DeleteToken(origin string) error {
	key := getKeyringKey(origin)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// fileTokenStore keeps tokens in the user config file for hosts without a
// keychain.
type fileTokenStore struct{}

func (f *fileTokenStore) SaveToken(origin, token string) error {
	return userconfig.SetSession(origin, token)
}

func (f *fileTokenStore) LoadToken(origin string) (string, error) {
	token, err := userconfig.GetSession(origin)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", coreauth.ErrNoToken
	}
	return token, nil
}

func (f *fileTokenStore) DeleteToken(origin string) error {
	return userconfig.ClearSession(origin)
}
