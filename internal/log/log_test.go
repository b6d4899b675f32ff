package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	std.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(LevelDebug)
		std.now = time.Now
	})
	return &buf
}

func TestWrite_FormatsLevelCategoryAndPairs(t *testing.T) {
	buf := captureOutput(t)

	Info(CatAudio, "Sample missing", "locator", "audio/c3.mp3", "pitch", 36)

	require.Equal(t, "2026-01-02T03:04:05.000 [INFO] [audio] Sample missing locator=audio/c3.mp3 pitch=36\n", buf.String())
}

func TestWrite_OddPairMarksMissingValue(t *testing.T) {
	buf := captureOutput(t)

	Debug(CatGame, "odd", "lonely")

	require.Contains(t, buf.String(), "lonely=(missing)")
}

func TestErrorErr_AttachesError(t *testing.T) {
	buf := captureOutput(t)

	ErrorErr(CatDB, "Failed to open", errors.New("boom"), "path", "/tmp/x")

	line := buf.String()
	require.Contains(t, line, "[ERROR] [db] Failed to open")
	require.Contains(t, line, "error=boom")
	require.Contains(t, line, "path=/tmp/x")
}

func TestSetLevel_FiltersLowerLevels(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelWarn)

	Debug(CatConfig, "hidden")
	Info(CatConfig, "hidden")
	Warn(CatConfig, "shown")

	require.Equal(t, 1, strings.Count(buf.String(), "\n"))
	require.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "eartrainer.log")

	cleanup, err := Init(path)
	require.NoError(t, err)
	Warn(CatCLI, "hello file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[WARN] [cli] hello file")
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	buf := captureOutput(t)
	done := make(chan struct{})

	SafeGo("panicky", func() {
		defer close(done)
		panic("kaboom")
	})
	<-done

	require.Eventually(t, func() bool {
		std.mu.Lock()
		defer std.mu.Unlock()
		return strings.Contains(buf.String(), "goroutine=panicky")
	}, time.Second, 5*time.Millisecond)
}
