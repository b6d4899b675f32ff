package settings

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zjrosen/eartrainer/internal/log"
)

// Keys under which preferences are stored.
const (
	KeyScale      = "et_diatonic_major_scale"
	KeyRange      = "et_diatonic_major_range"
	KeyPlayerName = "et_diatonic_major_player_name"
)

// MaxNameLength caps the stored player name, in characters.
const MaxNameLength = 32

// Preferences reads and writes the player's settings. Storage failures are
// logged and otherwise ignored; reads fall back to the defaults.
type Preferences struct {
	store        Store
	defaultKey   string
	defaultRange string
	restoreLast  bool
}

// PreferencesConfig configures Preferences.
type PreferencesConfig struct {
	DefaultKey   string
	DefaultRange string
	// RestoreLast makes LoadKey and LoadRange return the stored values
	// instead of the defaults.
	RestoreLast bool
}

// NewPreferences creates a Preferences over store.
func NewPreferences(store Store, cfg PreferencesConfig) *Preferences {
	if cfg.DefaultKey == "" {
		cfg.DefaultKey = "C"
	}
	if cfg.DefaultRange == "" {
		cfg.DefaultRange = "one"
	}
	return &Preferences{
		store:        store,
		defaultKey:   cfg.DefaultKey,
		defaultRange: cfg.DefaultRange,
		restoreLast:  cfg.RestoreLast,
	}
}

// LoadKey returns the scale key a new session starts on.
func (p *Preferences) LoadKey(ctx context.Context) string {
	if !p.restoreLast {
		return p.defaultKey
	}
	return p.get(ctx, KeyScale, p.defaultKey)
}

// LoadRange returns the range mode a new session starts on.
func (p *Preferences) LoadRange(ctx context.Context) string {
	if !p.restoreLast {
		return p.defaultRange
	}
	return p.get(ctx, KeyRange, p.defaultRange)
}

// SaveKey stores the scale key.
func (p *Preferences) SaveKey(ctx context.Context, key string) {
	p.set(ctx, KeyScale, key)
}

// SaveRange stores the range mode.
func (p *Preferences) SaveRange(ctx context.Context, mode string) {
	p.set(ctx, KeyRange, mode)
}

// LoadName returns the stored player name, trimmed and capped.
func (p *Preferences) LoadName(ctx context.Context) string {
	return truncate(strings.TrimSpace(p.get(ctx, KeyPlayerName, "")), MaxNameLength)
}

// SaveName stores a sanitized player name and returns what was stored.
func (p *Preferences) SaveName(ctx context.Context, name string) string {
	clean := truncate(SafeText(name), MaxNameLength)
	p.set(ctx, KeyPlayerName, clean)
	return clean
}

func (p *Preferences) get(ctx context.Context, key, def string) string {
	v, err := p.store.Get(ctx, key)
	if err != nil {
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			log.Warn(log.CatDB, "Failed to read setting", "key", key, "error", err)
		}
		return def
	}
	return v
}

func (p *Preferences) set(ctx context.Context, key, value string) {
	if err := p.store.Set(ctx, key, value); err != nil {
		log.Warn(log.CatDB, "Failed to save setting", "key", key, "error", err)
	}
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SafeText strips control characters and surrounding whitespace.
func SafeText(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeFile    = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)
)

// SanitizeFilenamePart turns s into a filename fragment: whitespace runs
// become underscores, anything outside [A-Za-z0-9_-] is dropped, and the
// result is capped at 32 characters.
func SanitizeFilenamePart(s string) string {
	v := whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "_")
	v = unsafeFile.ReplaceAllString(v, "")
	return truncate(v, MaxNameLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
