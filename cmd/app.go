package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/eartrainer/internal/audio/mp3"
	"github.com/zjrosen/eartrainer/internal/audio/oto"
	"github.com/zjrosen/eartrainer/internal/config"
	"github.com/zjrosen/eartrainer/internal/cues"
	"github.com/zjrosen/eartrainer/internal/infrastructure/sqlite"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/resolver"
	"github.com/zjrosen/eartrainer/internal/settings"
	"github.com/zjrosen/eartrainer/internal/voice"
)

// consoleNotifier prints scheduler messages to the terminal.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Alert(msg string)  { fmt.Fprintf(n.w, "error: %s\n", msg) }
func (n consoleNotifier) Notice(msg string) { fmt.Fprintf(n.w, "note: %s\n", msg) }

// sampleSource returns the filesystem and locator prefix for a sample
// directory. Relative directories below the working directory are read
// through os.DirFS("."); anything else through the filesystem root.
func sampleSource(dir string) (fs.FS, string, error) {
	slash := filepath.ToSlash(filepath.Clean(dir))
	if fs.ValidPath(slash) {
		return os.DirFS("."), slash, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving sample directory: %w", err)
	}
	root := filepath.VolumeName(abs) + string(filepath.Separator)
	return os.DirFS(root), "/" + filepath.ToSlash(strings.TrimPrefix(abs, root)), nil
}

func newResolver(c config.Config) (*resolver.Resolver, error) {
	fsys, dir, err := sampleSource(c.Audio.Dir)
	if err != nil {
		return nil, err
	}
	return resolver.New(resolver.Config{
		Fetcher: &resolver.FSFetcher{FS: fsys},
		Decoder: &mp3.Decoder{SampleRate: c.Audio.SampleRate},
		Dir:     dir,
	}), nil
}

func openPreferences(c config.Config) (*settings.Preferences, *sqlite.DB, error) {
	db, err := sqlite.NewDB(c.DBPath)
	if err != nil {
		return nil, nil, err
	}
	prefs := settings.NewPreferences(db.SettingsRepository(), settings.PreferencesConfig{
		DefaultKey:   c.Game.DefaultKey,
		DefaultRange: c.Game.DefaultRange,
		RestoreLast:  c.Game.RestoreLast,
	})
	return prefs, db, nil
}

func cueEvents(c config.Config) map[cues.Cue]cues.EventConfig {
	events := make(map[cues.Cue]cues.EventConfig, len(c.Cues))
	for name, cc := range c.Cues {
		events[cues.Cue(name)] = cues.EventConfig{Enabled: cc.Enabled, OverrideSounds: cc.OverrideSounds}
	}
	return events
}

// audioStack is everything needed to make sound.
type audioStack struct {
	resolver  *resolver.Resolver
	scheduler *voice.Scheduler
	cues      *cues.Service
	watcher   *resolver.Watcher
}

func newAudioStack(c config.Config, stderr io.Writer) (*audioStack, error) {
	res, err := newResolver(c)
	if err != nil {
		return nil, err
	}
	sched := voice.New(voice.Config{
		Graphs: oto.NewGraphFactory(oto.Config{
			SampleRate: c.Audio.SampleRate,
			BufferSize: c.Audio.BufferSize,
			MasterGain: c.Audio.MasterGain,
		}),
		Resolver: res,
		Notifier: consoleNotifier{w: stderr},
	})
	cueService := cues.New(cues.Config{
		Voices:  sched,
		Loader:  res,
		Decoder: &mp3.Decoder{SampleRate: c.Audio.SampleRate},
		Dir:     res.Dir(),
		Events:  cueEvents(c),
	})

	stack := &audioStack{resolver: res, scheduler: sched, cues: cueService}
	if c.Audio.Watch {
		wc := resolver.DefaultWatcherConfig(c.Audio.Dir)
		wc.DebounceDur = c.Audio.WatchDebounce
		wc.OnInvalidate = func(locators []string) {
			log.Info(log.CatAudio, "Samples changed", "count", len(locators))
		}
		w, err := resolver.NewWatcher(res, wc)
		if err != nil {
			return nil, fmt.Errorf("watching samples: %w", err)
		}
		if err := w.Start(); err != nil {
			return nil, fmt.Errorf("watching samples: %w", err)
		}
		stack.watcher = w
	}
	return stack, nil
}

func (s *audioStack) Close() {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			log.ErrorErr(log.CatAudio, "Failed to stop watcher", err)
		}
	}
	s.cues.StopAll()
	s.scheduler.StopAll(voice.PrimaryStopFade)
	if err := s.scheduler.Close(); err != nil {
		log.ErrorErr(log.CatAudio, "Failed to close audio", err)
	}
}
