// Package auth keeps the client's login state: the bearer token (OS
// keyring when available, otherwise the local cache) and the cached user.
package auth

import (
	"context"
	"errors"

	"github.com/julianstephens/bloomup/internal/cache"
	apperrors "github.com/julianstephens/bloomup/internal/errors"
	"github.com/julianstephens/bloomup/internal/keyring"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
)

// ErrLoginRequired is returned by commands that need a token when none is stored.
var ErrLoginRequired = apperrors.WithHint(remote.ErrUnauthorized, "run 'bloomup login' to sign in")

type Session struct {
	Cache *cache.Store
	// Keyring stores the token in the OS keyring instead of the cache.
	Keyring bool
	// Override, when set, is used as the token and nothing is persisted.
	Override string
}

func New(c *cache.Store, override string) *Session {
	return &Session{Cache: c, Keyring: keyring.IsAvailable(), Override: override}
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Session) Token(ctx context.Context) string {
	if s.Override != "" {
		return s.Override
	}
	if s.Keyring {
		tok, err := keyring.GetToken()
		if err == nil {
			return tok
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("Failed to read token from keyring", "error", err)
		}
	}
	tok, err := s.Cache.Token(ctx)
	if err != nil && !cache.IsMiss(err) {
		logger.Warn("Failed to read token from cache", "error", err)
	}
	return tok
}

func (s *Session) LoggedIn(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// Save stores the token and user after a successful login.
func (s *Session) Save(ctx context.Context, token string, u models.User) error {
	stored := false
	if s.Keyring {
		if err := keyring.SetToken(token); err != nil {
			logger.Warn("Keyring unavailable, keeping token in cache", "error", err)
		} else {
			stored = true
		}
	}
	if !stored {
		if err := s.Cache.SaveToken(ctx, token); err != nil {
			return err
		}
	}
	return s.Cache.SaveUser(ctx, u)
}

// User returns the user cached by the last login.
func (s *Session) User(ctx context.Context) (models.User, error) {
	u, err := s.Cache.User(ctx)
	if cache.IsMiss(err) {
		return models.User{}, ErrLoginRequired
	}
	return u, err
}

// Clear forgets the token and cached user.
func (s *Session) Clear(ctx context.Context) error {
	err := s.Cache.ClearSession(ctx)
	if s.Keyring {
		if kerr := keyring.DeleteToken(); kerr != nil && !errors.Is(kerr, keyring.ErrNotFound) {
			err = errors.Join(err, kerr)
		}
	}
	return err
}

// OnUnauthorized is installed as the remote client's 401 hook.
func (s *Session) OnUnauthorized(ctx context.Context) {
	logger.Warn("Server rejected the stored token, clearing login")
	if err := s.Clear(ctx); err != nil {
		logger.Error("Failed to clear login", "error", err)
	}
}

// Require wraps a 401 from the server so the CLI prints a login hint.
func Require(err error) error {
	if remote.IsUnauthorized(err) {
		return apperrors.WithHint(err, "run 'bloomup login' to sign in again")
	}
	return err
}
