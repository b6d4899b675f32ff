// Package log provides the category logger used throughout eartrainer.
//
// Output is discarded until Init is called, so library code can log freely
// from tests and from commands that never configure a log file.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case label written in front of each line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Category tags a log entry with the subsystem that produced it.
type Category string

const (
	CatAudio  Category = "audio"
	CatTheory Category = "theory"
	CatGame   Category = "game"
	CatConfig Category = "config"
	CatDB     Category = "db"
	CatCLI    Category = "cli"
	CatUI     Category = "ui"
)

type logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
	now      func() time.Time
}

var std = &logger{out: io.Discard, minLevel: LevelDebug, now: time.Now}

// Init opens (or creates) the log file at path and routes all output to it.
// The returned cleanup function flushes and closes the file and restores
// the discarding writer.
func Init(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	SetOutput(f)
	return func() {
		SetOutput(io.Discard)
		_ = f.Close()
	}, nil
}

// SetOutput replaces the destination writer.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	std.out = w
}

// SetLevel drops every entry below min.
func SetLevel(min Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.minLevel = min
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Debug logs a debug entry. kv is a list of alternating keys and values.
func Debug(cat Category, msg string, kv ...any) { std.write(LevelDebug, cat, msg, kv) }

// Info logs an info entry.
func Info(cat Category, msg string, kv ...any) { std.write(LevelInfo, cat, msg, kv) }

// Warn logs a warning entry.
func Warn(cat Category, msg string, kv ...any) { std.write(LevelWarn, cat, msg, kv) }

// Error logs an error entry.
func Error(cat Category, msg string, kv ...any) { std.write(LevelError, cat, msg, kv) }

// ErrorErr logs an error entry with err attached under the "error" key.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	std.write(LevelError, cat, msg, append([]any{"error", err}, kv...))
}

// Printf logs a formatted info entry without a category.
func Printf(format string, args ...any) {
	std.write(LevelInfo, "", fmt.Sprintf(format, args...), nil)
}

// SafeGo runs fn in a new goroutine and logs (rather than crashes on) a panic.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(CatAudio, "Recovered panic in goroutine", "goroutine", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}

func (l *logger) write(level Level, cat Category, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel || l.out == io.Discard {
		return
	}

	var b strings.Builder
	b.WriteString(l.now().Format("2006-01-02T15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if cat != "" {
		b.WriteString("[")
		b.WriteString(string(cat))
		b.WriteString("] ")
	}
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, kv[i])
		b.WriteByte('=')
		if i+1 < len(kv) {
			fmt.Fprintf(&b, "%v", kv[i+1])
		} else {
			b.WriteString("(missing)")
		}
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(l.out, b.String())
}
