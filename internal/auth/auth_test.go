package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/bloomup/internal/cache"
	apperrors "github.com/julianstephens/bloomup/internal/errors"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/remote"
)

func TestSessionStorage(t *testing.T) {
	tests := []struct {
		name    string
		keyring bool
	}{
		{"keyring", true},
		{"cache only", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gokeyring.MockInit()
			ctx := context.Background()
			s := &Session{Cache: cache.New(cache.NewMemoryStore()), Keyring: tt.keyring}

			if s.LoggedIn(ctx) {
				t.Fatal("fresh session should be logged out")
			}
			if _, err := s.User(ctx); !errors.Is(err, remote.ErrUnauthorized) {
				t.Errorf("User() error = %v, want ErrUnauthorized", err)
			}

			if err := s.Save(ctx, "tok", models.User{ID: "7", Email: "a@b.co"}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if got := s.Token(ctx); got != "tok" {
				t.Errorf("Token() = %q", got)
			}
			_, cacheErr := s.Cache.Token(ctx)
			if tt.keyring != cache.IsMiss(cacheErr) {
				t.Errorf("token in cache = %v, want only when keyring is off", cacheErr == nil)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if s.LoggedIn(ctx) {
				t.Error("still logged in after Clear")
			}
		})
	}
}

func TestOverrideToken(t *testing.T) {
	s := &Session{Cache: cache.New(cache.NewMemoryStore()), Override: "env-token"}
	if got := s.Token(context.Background()); got != "env-token" {
		t.Errorf("Token() = %q", got)
	}
}

func TestUnauthorizedHookClearsLogin(t *testing.T) {
	gokeyring.MockInit()
	ctx := context.Background()
	s := &Session{Cache: cache.New(cache.NewMemoryStore()), Keyring: true}
	if err := s.Save(ctx, "stale", models.User{ID: "1"}); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Token expired"}`))
	}))
	defer srv.Close()

	client, err := remote.New(srv.URL, remote.WithToken(s.Token), remote.WithUnauthorizedHook(s.OnUnauthorized))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Me(ctx)
	err = Require(err)
	if !remote.IsUnauthorized(err) {
		t.Fatalf("Me() error = %v", err)
	}
	var hinted *apperrors.HintedError
	if !errors.As(err, &hinted) {
		t.Error("401 should carry a login hint")
	}
	if s.LoggedIn(ctx) {
		t.Error("401 should clear the stored token")
	}
	if _, err := s.Cache.User(ctx); !cache.IsMiss(err) {
		t.Error("401 should clear the cached user")
	}
}
