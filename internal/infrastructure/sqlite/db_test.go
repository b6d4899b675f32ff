package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/eartrainer/internal/settings"
)

func newMemoryDB(t *testing.T) *DB {
	t.Helper()
	conn, err := Open("file::memory:")
	require.NoError(t, err)
	db := NewFromConn(conn)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "eartrainer.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	var n int
	err = db.Connection().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='settings'`).Scan(&n)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestNewDB_BacksUpExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eartrainer.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.SettingsRepository().Set(context.Background(), settings.KeyScale, "F"))
	require.NoError(t, db.Close())

	_, err = os.Stat(path + ".bak")
	require.True(t, os.IsNotExist(err), "first open has nothing to back up")

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(path + ".bak")
	require.NoError(t, err)
	require.Positive(t, info.Size())

	v, err := db.SettingsRepository().Get(context.Background(), settings.KeyScale)
	require.NoError(t, err)
	require.Equal(t, "F", v)
}

func TestSettingsRepository_GetMissing(t *testing.T) {
	db := newMemoryDB(t)

	_, err := db.SettingsRepository().Get(context.Background(), "nope")

	var nf *settings.NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "nope", nf.Key)
}

func TestSettingsRepository_SetOverwrites(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	repo := newSettingsRepository(db.Connection())
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, repo.Set(ctx, settings.KeyRange, "one"))
	repo.now = func() time.Time { return time.Unix(1700000100, 0) }
	require.NoError(t, repo.Set(ctx, settings.KeyRange, "multi"))

	v, err := repo.Get(ctx, settings.KeyRange)
	require.NoError(t, err)
	require.Equal(t, "multi", v)

	all, err := db.AllSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, []SettingModel{{Key: settings.KeyRange, Value: "multi", UpdatedAt: 1700000100}}, all)
}

func TestSettingsRepository_BacksPreferences(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	prefs := settings.NewPreferences(db.SettingsRepository(), settings.PreferencesConfig{RestoreLast: true})

	prefs.SaveKey(ctx, "Ab")
	prefs.SaveRange(ctx, "multi")
	prefs.SaveName(ctx, " Clara ")

	require.Equal(t, "Ab", prefs.LoadKey(ctx))
	require.Equal(t, "multi", prefs.LoadRange(ctx))
	require.Equal(t, "Clara", prefs.LoadName(ctx))

	all, err := db.AllSettings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, settings.KeyPlayerName, all[0].Key)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0600))
	require.NoError(t, os.WriteFile(dst, []byte("old and longer"), 0600))

	require.NoError(t, copyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	require.Error(t, copyFile(filepath.Join(dir, "missing"), dst))
}
