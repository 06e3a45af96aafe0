package system

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestServeCmd_RequiresSecret(t *testing.T) {
	ctx := newOfflineContext(t)
	cmd := &ServeCmd{Secret: "short"}
	err := cmd.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "BLOOMUP_JWT_SECRET") {
		t.Fatalf("Run() error = %v, want missing secret", err)
	}
}

func TestServeCmd_OpenStore(t *testing.T) {
	ctx := newOfflineContext(t)
	path := filepath.Join(t.TempDir(), "api.db")

	strict := &ServeCmd{DB: path, NoMigrate: true}
	if _, err := strict.openStore(ctx); err == nil {
		t.Fatal("openStore with --no-migrate should refuse a missing database")
	}

	migrating := &ServeCmd{DB: path}
	store, err := migrating.openStore(ctx)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	store.Close()

	store, err = strict.openStore(ctx)
	if err != nil {
		t.Fatalf("openStore on a migrated database: %v", err)
	}
	store.Close()
}
