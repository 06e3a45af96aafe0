package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in a single JSON document on disk.
// Each operation re-reads the document under a lock file and writes back
// only the key it touched, so several processes can share one cache.
// Writes go to a temporary file that is renamed over the original.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

// locked runs fn with the in-process mutex and the cross-process lock held.
func (f *FileStore) locked(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	lf, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open cache lock: %w", err)
	}
	defer lf.Close()
	if err := lockFile(lf); err != nil {
		return fmt.Errorf("failed to lock cache: %w", err)
	}
	defer unlockFile(lf)
	return fn()
}

func (f *FileStore) read() (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse cache %s: %w", f.path, err)
		}
	}
	return data, nil
}

func (f *FileStore) write(data map[string]json.RawMessage) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := f.locked(func() error {
		data, err := f.read()
		if err != nil {
			return err
		}
		v, ok := data[key]
		if !ok {
			return ErrMiss
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (f *FileStore) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("cache value for %s is not valid JSON", keyName(key))
	}
	return f.locked(func() error {
		data, err := f.read()
		if err != nil {
			return err
		}
		data[key] = append(json.RawMessage(nil), value...)
		return f.write(data)
	})
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	return f.locked(func() error {
		data, err := f.read()
		if err != nil {
			return err
		}
		if _, ok := data[key]; !ok {
			return ErrMiss
		}
		delete(data, key)
		return f.write(data)
	})
}

func (f *FileStore) Close() error { return nil }
