// Package config provides configuration types, defaults and loading for
// eartrainer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/eartrainer/internal/paths"
	"github.com/zjrosen/eartrainer/internal/theory"
)

// Config holds all configuration options for eartrainer.
type Config struct {
	Audio     AudioConfig          `mapstructure:"audio"`
	Reference ReferenceConfig      `mapstructure:"reference"`
	Game      GameConfig           `mapstructure:"game"`
	Cues      map[string]CueConfig `mapstructure:"cues"`
	DBPath    string               `mapstructure:"db_path"`
	LogPath   string               `mapstructure:"log_path"`
	LogLevel  string               `mapstructure:"log_level"`
	Tracing   TracingConfig        `mapstructure:"tracing"`
}

// AudioConfig configures sample loading and the output device.
type AudioConfig struct {
	// Dir holds <stem><octave>.mp3 samples and the cue sounds.
	Dir        string        `mapstructure:"dir"`
	SampleRate int           `mapstructure:"sample_rate"`
	BufferSize time.Duration `mapstructure:"buffer_size"`
	MasterGain float64       `mapstructure:"master_gain"`
	// Watch drops cached samples when files in Dir change.
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// ReferenceConfig configures the reference scale and tonic.
type ReferenceConfig struct {
	FadeOut time.Duration `mapstructure:"fade_out"`
}

// GameConfig holds the starting settings of a session.
type GameConfig struct {
	DefaultKey   string `mapstructure:"default_key"`
	DefaultRange string `mapstructure:"default_range"`
	// RestoreLast starts on the last saved key and range instead of the
	// defaults.
	RestoreLast bool `mapstructure:"restore_last"`
}

// CueConfig configures one UI cue sound.
type CueConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	OverrideSounds []string `mapstructure:"override_sounds"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// CueNames are the configurable cues.
var CueNames = []string{"select", "back", "correct", "incorrect"}

// Defaults returns a Config with the default values.
func Defaults() Config {
	cues := make(map[string]CueConfig, len(CueNames))
	for _, name := range CueNames {
		cues[name] = CueConfig{Enabled: true}
	}
	appDir := paths.UserAppDir()
	return Config{
		Audio: AudioConfig{
			Dir:           "audio",
			SampleRate:    44100,
			BufferSize:    50 * time.Millisecond,
			MasterGain:    0.9,
			WatchDebounce: 100 * time.Millisecond,
		},
		Reference: ReferenceConfig{FadeOut: 60 * time.Millisecond},
		Game: GameConfig{
			DefaultKey:   "C",
			DefaultRange: "one",
		},
		Cues:     cues,
		DBPath:   filepath.Join(appDir, "eartrainer.db"),
		LogPath:  filepath.Join(appDir, "eartrainer.log"),
		LogLevel: "info",
		Tracing: TracingConfig{
			File: filepath.Join(appDir, "traces.jsonl"),
		},
	}
}

// SetDefaults registers Defaults on v so unset keys fall back to them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("audio.dir", d.Audio.Dir)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.buffer_size", d.Audio.BufferSize)
	v.SetDefault("audio.master_gain", d.Audio.MasterGain)
	v.SetDefault("audio.watch", d.Audio.Watch)
	v.SetDefault("audio.watch_debounce", d.Audio.WatchDebounce)
	v.SetDefault("reference.fade_out", d.Reference.FadeOut)
	v.SetDefault("game.default_key", d.Game.DefaultKey)
	v.SetDefault("game.default_range", d.Game.DefaultRange)
	v.SetDefault("game.restore_last", d.Game.RestoreLast)
	for name, c := range d.Cues {
		v.SetDefault("cues."+name+".enabled", c.Enabled)
		v.SetDefault("cues."+name+".override_sounds", []string{})
	}
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.file", d.Tracing.File)
}

// ConfigPaths returns the files searched, in order, when no explicit
// config file is given.
func ConfigPaths() []string {
	out := []string{filepath.Join(paths.ResolveAppDir("."), "config.yaml")}
	if dir, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(dir, "eartrainer", "config.yaml"))
	}
	return out
}

// Load reads the configuration. An explicit path must exist; otherwise the
// first existing file of ConfigPaths is used, and defaults apply when there
// is none. Environment variables EARTRAINER_<KEY> override file values.
// It returns the config and the file it was read from, if any.
func Load(v *viper.Viper, explicit string) (Config, string, error) {
	SetDefaults(v)
	v.SetEnvPrefix("EARTRAINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := ""
	if explicit != "" {
		used = paths.Expand(explicit)
	} else {
		for _, p := range ConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				used = p
				break
			}
		}
	}
	if used != "" {
		v.SetConfigFile(used)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, used, fmt.Errorf("reading config %s: %w", used, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, used, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	return cfg, used, nil
}

func (c *Config) normalize() {
	c.Audio.Dir = paths.Expand(c.Audio.Dir)
	c.DBPath = paths.Expand(c.DBPath)
	c.LogPath = paths.Expand(c.LogPath)
	c.Tracing.File = paths.Expand(c.Tracing.File)
	if c.Cues == nil {
		c.Cues = map[string]CueConfig{}
	}
	for _, name := range CueNames {
		if _, ok := c.Cues[name]; !ok {
			c.Cues[name] = CueConfig{Enabled: true}
		}
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate: %d is outside 8000..192000", c.Audio.SampleRate))
	}
	if c.Audio.BufferSize <= 0 {
		errs = append(errs, errors.New("audio.buffer_size: must be positive"))
	}
	if c.Audio.MasterGain < 0 || c.Audio.MasterGain > 1 {
		errs = append(errs, fmt.Errorf("audio.master_gain: %g is outside 0..1", c.Audio.MasterGain))
	}
	if c.Audio.Watch && c.Audio.WatchDebounce < 0 {
		errs = append(errs, errors.New("audio.watch_debounce: must not be negative"))
	}
	if c.Reference.FadeOut < 0 {
		errs = append(errs, errors.New("reference.fade_out: must not be negative"))
	}
	if _, err := theory.SpellMajorScale(c.Game.DefaultKey); err != nil {
		errs = append(errs, fmt.Errorf("game.default_key: %w", err))
	}
	if c.Game.DefaultRange != "one" && c.Game.DefaultRange != "multi" {
		errs = append(errs, fmt.Errorf("game.default_range: %q must be one or multi", c.Game.DefaultRange))
	}
	for name := range c.Cues {
		if !slices.Contains(CueNames, name) {
			errs = append(errs, fmt.Errorf("cues.%s: unknown cue (valid: %s)", name, strings.Join(CueNames, ", ")))
		}
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path: is required"))
	}
	if c.Tracing.Enabled && c.Tracing.File == "" {
		errs = append(errs, errors.New("tracing.file: is required when tracing is enabled"))
	}
	return errors.Join(errs...)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# eartrainer configuration

audio:
  # Directory with <stem><octave>.mp3 samples (c3.mp3, fsharp4.mp3, ...)
  # and the cue sounds select1.mp3, back1.mp3, correct1.mp3, incorrect1.mp3.
  dir: audio
  sample_rate: 44100
  buffer_size: 50ms
  master_gain: 0.9
  # Reload samples when files in dir change.
  watch: false
  watch_debounce: 100ms

reference:
  # Fade applied to the end of each reference note.
  fade_out: 60ms

game:
  default_key: C        # C, Db, D, Eb, E, F, Gb, G, Ab, A, Bb, B
  default_range: one    # one | multi
  restore_last: false   # start on the last saved key and range

# UI cue sounds. Override sounds are picked at random.
cues:
  select:
    enabled: true
  back:
    enabled: true
  correct:
    enabled: true
    # override_sounds:
    #   - ~/sounds/yay.mp3
  incorrect:
    enabled: true

# db_path: ~/.eartrainer/eartrainer.db
# log_path: ~/.eartrainer/eartrainer.log
log_level: info

tracing:
  enabled: false
  # file: ~/.eartrainer/traces.jsonl
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
