package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/eartrainer/internal/settings"
)

// settingsRepository implements settings.Store on the settings table.
type settingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func newSettingsRepository(db *sql.DB) *settingsRepository {
	return &settingsRepository{db: db, now: time.Now}
}

var _ settings.Store = (*settingsRepository)(nil)

// Get returns the stored value or *settings.NotFoundError.
func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	var m SettingModel
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM settings WHERE key = ?`, key,
	).Scan(&m.Key, &m.Value, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &settings.NotFoundError{Key: key}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return m.Value, nil
}

// Set inserts or replaces the value for key.
func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	m := newSettingModel(key, value, r.now())
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		m.Key, m.Value, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// All returns every stored setting ordered by key.
func (r *settingsRepository) All(ctx context.Context) (_ []SettingModel, err error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer func() { err = errors.Join(err, rows.Close()) }()

	var out []SettingModel
	for rows.Next() {
		var m SettingModel
		if err := rows.Scan(&m.Key, &m.Value, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
