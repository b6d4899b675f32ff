package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_InvalidatesChangedSamples(t *testing.T) {
	dir := t.TempDir()
	samplePath := filepath.Join(dir, "c3.mp3")
	require.NoError(t, os.WriteFile(samplePath, []byte("v1"), 0o644))

	r := New(Config{Fetcher: &FSFetcher{FS: os.DirFS(filepath.Dir(dir))}, Decoder: lenDecoder{}, Dir: filepath.Base(dir)})
	res := r.Resolve(context.Background(), 36)
	require.False(t, res.Missing())
	require.Equal(t, 2, res.Buffer.Frames())

	invalidated := make(chan []string, 4)
	cfg := DefaultWatcherConfig(dir)
	cfg.DebounceDur = 50 * time.Millisecond
	cfg.OnInvalidate = func(locs []string) { invalidated <- locs }
	w, err := NewWatcher(r, cfg)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.NoError(t, w.Start())

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(samplePath, []byte("version2"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case locs := <-invalidated:
		require.Equal(t, []string{res.Locator}, locs)
	case <-time.After(2 * time.Second):
		require.Fail(t, "expected invalidation")
	}

	res = r.Resolve(context.Background(), 36)
	require.Equal(t, 8, res.Buffer.Frames())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("a"), 0o644))

	invalidated := make(chan []string, 1)
	cfg := WatcherConfig{Dir: dir, DebounceDur: 20 * time.Millisecond, OnInvalidate: func(l []string) { invalidated <- l }}
	w, err := NewWatcher(New(Config{}), cfg)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(other, []byte("b"), 0o644))

	select {
	case <-invalidated:
		require.Fail(t, "should not invalidate for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(New(Config{}), DefaultWatcherConfig(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
