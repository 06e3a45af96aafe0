package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/bloomup/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested entry
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	secret, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(user, secret, what string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetConnectionString retrieves the server database connection string.
// Returns ErrNotFound if no credentials are stored.
func GetConnectionString() (string, error) { return get(constants.DefaultKeyringUser) }

// SetConnectionString stores the server database connection string.
func SetConnectionString(connStr string) error {
	return set(constants.DefaultKeyringUser, connStr, "connection string")
}

// DeleteConnectionString removes the server database connection string.
func DeleteConnectionString() error {
	return del(constants.DefaultKeyringUser, "connection string")
}

// GetToken returns the API bearer token saved by the last login.
func GetToken() (string, error) { return get(constants.TokenKeyringUser) }

// SetToken saves the API bearer token.
func SetToken(token string) error { return set(constants.TokenKeyringUser, token, "token") }

// DeleteToken removes the API bearer token.
func DeleteToken() error { return del(constants.TokenKeyringUser, "token") }

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	// ErrNotFound means the keyring answered but is empty
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
