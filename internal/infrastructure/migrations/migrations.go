// Package migrations holds the eartrainer schema and applies it with
// golang-migrate through a driver that works on ncruces/go-sqlite3
// connections.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var schemaFS embed.FS

// MigrationsFS returns the embedded migration files.
func MigrationsFS() fs.FS {
	return schemaFS
}

// New builds a migrator for db over the embedded migrations.
func New(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(schemaFS, ".")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}
	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}

// RunMigrations applies every pending migration. An up-to-date database is
// not an error.
func RunMigrations(db *sql.DB) error {
	m, err := New(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version reports the applied schema version. A database without any
// migration reports version 0.
func Version(db *sql.DB) (uint, bool, error) {
	m, err := New(db)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
