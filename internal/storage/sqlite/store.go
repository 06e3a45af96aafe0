package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/migration"
	"github.com/julianstephens/bloomup/internal/storage"
	"github.com/julianstephens/bloomup/migrations"
)

// Store is the embedded single-file backend.
type Store struct {
	storage.SQL
	path string
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{
		SQL:  storage.SQL{Dialect: storage.SQLite},
		path: path,
	}
}

// dsn enables foreign keys and waits on a locked database instead of failing.
func (s *Store) dsn() string {
	return "file:" + s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.DB = db
	return nil
}

// Init creates the database file if needed and applies pending migrations.
func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load opens an existing database and refuses a schema that is not current.
func (s *Store) Load() error {
	if s.DB != nil {
		return nil
	}

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage not initialized, run 'bloomup migrate' first")
	}

	if err := s.open(); err != nil {
		return err
	}
	return s.runner(func(r *migration.Runner) error { return r.ValidateVersion() })
}

func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *Store) runner(fn func(*migration.Runner) error) error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	r, err := migration.NewRunner(s.DB, subFS, migration.DriverSQLite)
	if err != nil {
		return err
	}
	return fn(r)
}

func (s *Store) runMigrations() error {
	return s.runner(func(r *migration.Runner) error {
		_, err := r.ApplyMigrations(func(msg string) {
			logger.Info(msg)
		})
		return err
	})
}

func (s *Store) GetConfigPath() string {
	return s.path
}
