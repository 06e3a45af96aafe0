// Package cache is the client's local key/value persistence. Values are
// stored as JSON inside a versioned envelope under namespaced keys.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/bloomup/internal/constants"
)

var (
	// ErrMiss is returned when a key holds no value.
	ErrMiss = errors.New("cache: key not found")
	// ErrNewerVersion is returned when a stored value was written by a newer schema.
	ErrNewerVersion = errors.New("cache: stored value has a newer schema version")
)

// Key names a cached value. Version 0 means the value is not versioned.
type Key struct {
	Name    string
	Version int
}

func (k Key) String() string {
	base := constants.CacheNamespace + "/" + k.Name
	if k.Version > 0 {
		return fmt.Sprintf("%s@v%d", base, k.Version)
	}
	return base
}

var (
	HabitsKey    = Key{Name: "habits", Version: 3}
	TimerKey     = Key{Name: "timer", Version: 1}
	UserKey      = Key{Name: "user", Version: 1}
	TokenKey     = Key{Name: "token"}
	MoodTodayKey = Key{Name: "mood-today", Version: 1}
)

// LegacyHabitKeys hold bare habit arrays written by older clients.
var LegacyHabitKeys = []string{"habit-tracker@hybrid", "habit-tracker@v3"}

// Backend is raw byte storage keyed by string.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type envelope struct {
	Version int             `json:"v"`
	SavedAt string          `json:"savedAt"`
	Data    json.RawMessage `json:"data"`
}

// Store wraps a Backend with envelopes and JSON encoding.
type Store struct {
	backend Backend
	now     func() time.Time
}

func New(b Backend) *Store {
	return &Store{backend: b, now: time.Now}
}

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) Close() error { return s.backend.Close() }

// Save encodes v and writes it under k.
func (s *Store) Save(ctx context.Context, k Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	env, err := json.Marshal(envelope{
		Version: k.Version,
		SavedAt: s.now().UTC().Format(time.RFC3339),
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", k, err)
	}
	if err := s.backend.Set(ctx, k.String(), env); err != nil {
		return fmt.Errorf("write %s: %w", k, err)
	}
	return nil
}

// LoadRaw returns the payload stored under k without decoding it.
// Values written without an envelope are returned as-is.
func (s *Store) LoadRaw(ctx context.Context, k Key) ([]byte, error) {
	raw, err := s.backend.Get(ctx, k.String())
	if err != nil {
		return nil, err
	}
	return unwrap(k, raw)
}

// Load decodes the value under k into dst.
func (s *Store) Load(ctx context.Context, k Key, dst any) error {
	data, err := s.LoadRaw(ctx, k)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, k Key) error {
	if err := s.backend.Delete(ctx, k.String()); err != nil && !errors.Is(err, ErrMiss) {
		return fmt.Errorf("delete %s: %w", k, err)
	}
	return nil
}

func unwrap(k Key, raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrMiss
	}
	if trimmed[0] != '{' || !bytes.Contains(trimmed, []byte(`"data"`)) {
		return trimmed, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Data == nil {
		return trimmed, nil
	}
	if env.Version > k.Version {
		return nil, fmt.Errorf("%w: %s holds v%d", ErrNewerVersion, k, env.Version)
	}
	return env.Data, nil
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool { return errors.Is(err, ErrMiss) }

// keyName strips the namespace prefix from a full key, for logs.
func keyName(full string) string {
	return strings.TrimPrefix(full, constants.CacheNamespace+"/")
}
