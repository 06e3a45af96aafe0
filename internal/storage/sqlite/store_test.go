package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/bloomup/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "bloomup.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storagetest.Run(t, newTestStore(t))
}

func TestLoad(t *testing.T) {
	missing := NewStore(filepath.Join(t.TempDir(), "none.db"))
	if err := missing.Load(); err == nil {
		t.Error("Load() on a missing file should fail")
	}

	s := newTestStore(t)
	path := s.GetConfigPath()
	s.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() after Init error = %v", err)
	}
	defer reopened.Close()
	if err := reopened.Init(); err != nil {
		t.Errorf("re-running Init should be a no-op, got %v", err)
	}
}
