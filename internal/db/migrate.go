package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"RestyAPI/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationSource turns dir into a file:// URL. golang-migrate needs an
// absolute path with forward slashes.
func migrationSource(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs migrations: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// NewPostgresMigrator reads migrations from dir for the database at dsn.
func NewPostgresMigrator(dsn, dir string) (*migrate.Migrate, error) {
	src, err := migrationSource(dir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New(src, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate.New: %w", err)
	}
	return m, nil
}

// NewSQLiteMigrator migrates through the already open handle, so an
// in-memory database sees the schema. Closing the migrator closes s.
func NewSQLiteMigrator(s *SQLite, dir string) (*migrate.Migrate, error) {
	src, err := migrationSource(dir)
	if err != nil {
		return nil, err
	}
	driver, err := sqlite3.WithInstance(s.DB(), &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite3 driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate.New: %w", err)
	}
	return m, nil
}

// ApplyMigrations runs every pending migration up, or every applied one
// down. Nothing to do is not an error.
func ApplyMigrations(m *migrate.Migrate, down bool) error {
	run, direction := m.Up, "up"
	if down {
		run, direction = m.Down, "down"
	}
	if err := run(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate version: %w", err)
	}
	logger.Info("migrations_applied", map[string]any{
		"direction": direction,
		"version":   version,
		"dirty":     dirty,
	})
	return nil
}
