// Package sqlite stores eartrainer settings in a SQLite database opened
// through the CGO-free ncruces driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/eartrainer/internal/infrastructure/migrations"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/settings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB owns the connection and hands out repositories.
type DB struct {
	conn *sql.DB
	path string
}

var pragmas = []struct {
	stmt, what string
}{
	{"PRAGMA journal_mode=WAL", "enable WAL mode"},
	{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	{"PRAGMA busy_timeout=5000", "set busy timeout"},
}

// NewDB opens the database at path, creating its directory, and migrates it
// to the latest schema. An existing file is first copied to {path}.bak.
//
//	db, err := sqlite.NewDB(cfg.DBPath)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func NewDB(path string) (*DB, error) {
	log.Debug(log.CatDB, "Opening database", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.ErrorErr(log.CatDB, "Failed to create database directory", err, "path", dir)
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	if _, err := os.Stat(path); err == nil {
		backup := path + ".bak"
		if err := copyFile(path, backup); err != nil {
			log.ErrorErr(log.CatDB, "Failed to create pre-migration backup", err, "path", path, "backup", backup)
			return nil, fmt.Errorf("failed to create pre-migration backup: %w", err)
		}
		log.Debug(log.CatDB, "Created pre-migration backup", "backup", backup)
	}

	conn, err := Open("file:" + path)
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to open database", err, "path", path)
		return nil, err
	}

	log.Info(log.CatDB, "Database initialized", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Open connects to dsn, applies the connection pragmas and runs migrations.
// NewDB is the usual entry point; tests use Open with "file::memory:".
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// Every pooled connection would get its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to %s: %w", p.what, err)
		}
	}
	if err := migrations.RunMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return conn, nil
}

// NewFromConn wraps an already migrated connection.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn, path: ":memory:"}
}

// Close releases the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	log.Debug(log.CatDB, "Closing database", "path", db.path)
	return db.conn.Close()
}

// SettingsRepository returns the settings.Store backed by this database.
func (db *DB) SettingsRepository() settings.Store {
	return newSettingsRepository(db.conn)
}

// AllSettings lists every stored setting ordered by key.
func (db *DB) AllSettings(ctx context.Context) ([]SettingModel, error) {
	return newSettingsRepository(db.conn).All(ctx)
}

// Connection exposes the underlying *sql.DB for tests.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// copyFile copies src over dst, keeping src's mode. A failed close of dst is
// reported so a truncated backup is never silently accepted.
func copyFile(src, dst string) (retErr error) {
	in, err := os.Open(src) //nolint:gosec // src is the configured database path
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close source file: %w", err)
		}
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, info.Mode()) //nolint:gosec // dst derives from the database path
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close backup file: %w", err)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
