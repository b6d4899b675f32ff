package resolver

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/eartrainer/internal/log"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Dir is the directory on disk that holds the samples.
	Dir string
	// DebounceDur coalesces bursts of file events into one invalidation.
	DebounceDur time.Duration
	// OnInvalidate is called after each batch with the invalidated locators.
	OnInvalidate func(locators []string)
}

// DefaultWatcherConfig returns a config for dir with a 100ms debounce.
func DefaultWatcherConfig(dir string) WatcherConfig {
	return WatcherConfig{Dir: dir, DebounceDur: 100 * time.Millisecond}
}

// Watcher invalidates cached loads when sample files change on disk.
type Watcher struct {
	cfg      WatcherConfig
	resolver *Resolver
	fsw      *fsnotify.Watcher
	debounce func(func())

	mu      sync.Mutex
	pending map[string]struct{}

	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher creates a watcher that invalidates entries of r.
func NewWatcher(r *Resolver, cfg WatcherConfig) (*Watcher, error) {
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = 100 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		cfg:      cfg,
		resolver: r,
		fsw:      fsw,
		debounce: debounce.New(cfg.DebounceDur),
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the sample directory.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}
	log.SafeGo("resolver-watcher", w.loop)
	log.Info(log.CatAudio, "Watching sample directory", "dir", w.cfg.Dir)
	return nil
}

// Stop ends the watch. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Ext(ev.Name) != ".mp3" {
				continue
			}
			w.mu.Lock()
			w.pending[path.Join(w.resolver.Dir(), filepath.Base(ev.Name))] = struct{}{}
			w.mu.Unlock()
			w.debounce(w.flush)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatAudio, "Sample watcher error", err)
		}
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	locators := make([]string, 0, len(w.pending))
	for loc := range w.pending {
		locators = append(locators, loc)
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(locators) == 0 {
		return
	}
	slices.Sort(locators)
	for _, loc := range locators {
		w.resolver.Invalidate(loc)
	}
	log.Debug(log.CatAudio, "Invalidated samples", "count", len(locators))
	if w.cfg.OnInvalidate != nil {
		w.cfg.OnInvalidate(locators)
	}
}
