// Package cues plays the short interface sounds (select, back, correct,
// incorrect) through the same audio graph as the musical voices.
package cues

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/zjrosen/eartrainer/internal/audio"
	"github.com/zjrosen/eartrainer/internal/log"
)

// Cue names an interface sound.
type Cue string

const (
	Select    Cue = "select"
	Back      Cue = "back"
	Correct   Cue = "correct"
	Incorrect Cue = "incorrect"
)

// All lists every cue.
var All = []Cue{Select, Back, Correct, Incorrect}

// File returns the default sample file name, e.g. "correct1.mp3".
func (c Cue) File() string { return string(c) + "1.mp3" }

// Player plays cues. Implementations handle all errors internally.
type Player interface {
	// Play plays the cue if it is enabled.
	Play(ctx context.Context, c Cue)
	// PlayIfSilent plays the cue only when no musical voice is sounding.
	PlayIfSilent(ctx context.Context, c Cue)
	// StopAll silences every cue immediately.
	StopAll()
}

// NoopPlayer is a Player that does nothing.
type NoopPlayer struct{}

func (NoopPlayer) Play(context.Context, Cue)         {}
func (NoopPlayer) PlayIfSilent(context.Context, Cue) {}
func (NoopPlayer) StopAll()                          {}

// EventConfig configures one cue.
type EventConfig struct {
	Enabled bool
	// OverrideSounds are files on disk; one is picked at random per play.
	OverrideSounds []string
}

// Voices is the part of the voice scheduler cues need.
type Voices interface {
	Graph(ctx context.Context) (audio.Graph, error)
	ActiveCount() int
}

// Loader loads a sample file by locator.
type Loader interface {
	Load(ctx context.Context, locator string) (*audio.Buffer, error)
}

// maxConcurrentCues limits simultaneous cue playback.
const maxConcurrentCues = 2

// Config configures a Service.
type Config struct {
	Voices  Voices
	Loader  Loader
	Decoder audio.Decoder
	// Dir prefixes default cue locators. Defaults to "audio".
	Dir string
	// Events maps cues to their configuration. Cues without an entry are
	// enabled with the default sound.
	Events map[Cue]EventConfig
	// ReadFile reads override sounds; defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	// IntN picks an override; defaults to math/rand/v2.IntN.
	IntN func(n int) int
}

// Service plays cues through the voice scheduler's graph.
type Service struct {
	voices   Voices
	loader   Loader
	decoder  audio.Decoder
	dir      string
	events   map[Cue]EventConfig
	readFile func(string) ([]byte, error)
	intN     func(int) int

	mu         sync.Mutex
	playing    map[uuid.UUID]audio.Source
	concurrent atomic.Int32
}

var _ Player = (*Service)(nil)

// New creates a Service.
func New(cfg Config) *Service {
	if cfg.Dir == "" {
		cfg.Dir = "audio"
	}
	if cfg.ReadFile == nil {
		cfg.ReadFile = os.ReadFile
	}
	if cfg.IntN == nil {
		cfg.IntN = rand.IntN //nolint:gosec // random cue selection
	}
	return &Service{
		voices:   cfg.Voices,
		loader:   cfg.Loader,
		decoder:  cfg.Decoder,
		dir:      cfg.Dir,
		events:   cfg.Events,
		readFile: cfg.ReadFile,
		intN:     cfg.IntN,
		playing:  make(map[uuid.UUID]audio.Source),
	}
}

// Play implements Player.
func (s *Service) Play(ctx context.Context, c Cue) {
	ev, configured := s.events[c]
	if configured && !ev.Enabled {
		log.Debug(log.CatAudio, "Cue disabled by config", "cue", c)
		return
	}

	if s.concurrent.Add(1) > maxConcurrentCues {
		s.concurrent.Add(-1)
		log.Debug(log.CatAudio, "Concurrent cue limit reached", "cue", c)
		return
	}
	started := false
	defer func() {
		if !started {
			s.concurrent.Add(-1)
		}
	}()

	buf, err := s.load(ctx, c, ev.OverrideSounds)
	if err != nil {
		log.Debug(log.CatAudio, "Cue unavailable", "cue", c, "error", err)
		return
	}
	g, err := s.voices.Graph(ctx)
	if err != nil {
		log.Debug(log.CatAudio, "No graph for cue", "cue", c, "error", err)
		return
	}

	src := g.NewBufferSource(buf)
	id := uuid.New()
	s.mu.Lock()
	s.playing[id] = src
	s.mu.Unlock()
	if err := src.Start(g.Now(), 0, 0); err != nil {
		s.mu.Lock()
		delete(s.playing, id)
		s.mu.Unlock()
		log.Debug(log.CatAudio, "Cue failed to start", "cue", c, "error", err)
		return
	}
	started = true

	log.SafeGo("cue-completion", func() {
		<-src.Done()
		s.mu.Lock()
		delete(s.playing, id)
		s.mu.Unlock()
		s.concurrent.Add(-1)
	})
}

// PlayIfSilent implements Player.
func (s *Service) PlayIfSilent(ctx context.Context, c Cue) {
	if s.voices.ActiveCount() > 0 {
		return
	}
	s.Play(ctx, c)
}

// StopAll implements Player.
func (s *Service) StopAll() {
	s.mu.Lock()
	sources := make([]audio.Source, 0, len(s.playing))
	for id, src := range s.playing {
		sources = append(sources, src)
		delete(s.playing, id)
	}
	s.mu.Unlock()
	if len(sources) == 0 {
		return
	}

	g, err := s.voices.Graph(context.Background())
	if err != nil {
		return
	}
	now := g.Now()
	for _, src := range sources {
		src.Stop(now)
	}
}

// Playing returns the number of cues still sounding.
func (s *Service) Playing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playing)
}

// load returns the buffer for c, preferring a random override sound and
// falling back to the default sound if the override cannot be read.
func (s *Service) load(ctx context.Context, c Cue, overrides []string) (*audio.Buffer, error) {
	if len(overrides) > 0 && s.decoder != nil {
		p := overrides[s.intN(len(overrides))]
		buf, err := s.loadOverride(ctx, p)
		if err == nil {
			return buf, nil
		}
		log.Debug(log.CatAudio, "Override cue unavailable, falling back to default", "path", p, "cue", c, "error", err)
	}
	if s.loader == nil {
		return nil, fmt.Errorf("no loader for cue %s", c)
	}
	return s.loader.Load(ctx, path.Join(s.dir, c.File()))
}

func (s *Service) loadOverride(ctx context.Context, p string) (*audio.Buffer, error) {
	data, err := s.readFile(p)
	if err != nil {
		return nil, err
	}
	return s.decoder.Decode(ctx, data)
}
