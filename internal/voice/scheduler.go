package voice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/eartrainer/internal/audio"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/resolver"
	"github.com/zjrosen/eartrainer/internal/theory"
)

// ErrNoAudio is returned when no audio graph can be opened.
var ErrNoAudio = errors.New("voice: audio output unavailable")

// NoAudioMessage is shown when the graph cannot be opened.
const NoAudioMessage = "Your system doesn't support audio output (required for playback)."

const (
	bufferFadeIn   = 4 * time.Millisecond
	toneFadeIn     = 10 * time.Millisecond
	minPlay        = 20 * time.Millisecond
	minTonePlay    = 50 * time.Millisecond
	minFadeOut     = 10 * time.Millisecond
	minToneFadeOut = 15 * time.Millisecond
	minHold        = 20 * time.Millisecond
	toneStopPad    = 30 * time.Millisecond

	defaultStopFade = 50 * time.Millisecond
	minStopFade     = 10 * time.Millisecond
	stopPad         = 20 * time.Millisecond

	// PrimaryStopFade silences the previous note before a new one.
	PrimaryStopFade = 60 * time.Millisecond

	fallbackToneLength = 850 * time.Millisecond
	fallbackToneFade   = 80 * time.Millisecond
	fallbackToneGain   = 0.7
)

// Resolver resolves pitches to sample buffers.
type Resolver interface {
	Resolve(ctx context.Context, p theory.Pitch) resolver.Resolution
}

// Config configures a Scheduler.
type Config struct {
	Graphs   audio.GraphFactory
	Resolver Resolver
	// Notifier is optional; messages are dropped without one.
	Notifier Notifier
	// AfterFunc is optional and defaults to time.AfterFunc.
	AfterFunc AfterFunc
}

// Scheduler owns the audio graph and the set of active voices.
type Scheduler struct {
	graphs    audio.GraphFactory
	resolver  Resolver
	notifier  Notifier
	afterFunc AfterFunc

	openMu sync.Mutex
	mu     sync.Mutex
	graph  audio.Graph
	active map[uuid.UUID]*Voice
	// generation advances on every StopAll; playback that awaited a load
	// is dropped if the generation moved on meanwhile.
	generation uint64

	refPlaying bool
	refTimer   Timer
	refSeq     uint64

	warnOnce sync.Once
}

// New creates a Scheduler. The graph is opened on first playback.
func New(cfg Config) *Scheduler {
	if cfg.Notifier == nil {
		cfg.Notifier = NoopNotifier{}
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = realAfterFunc
	}
	return &Scheduler{
		graphs:    cfg.Graphs,
		resolver:  cfg.Resolver,
		notifier:  cfg.Notifier,
		afterFunc: cfg.AfterFunc,
		active:    make(map[uuid.UUID]*Voice),
	}
}

// Graph returns the audio graph, opening it on first use. When the graph
// cannot be opened the player is alerted and ErrNoAudio is returned.
func (s *Scheduler) Graph(ctx context.Context) (audio.Graph, error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	g := s.graph
	s.mu.Unlock()
	if g != nil {
		return g, nil
	}

	if s.graphs == nil {
		s.notifier.Alert(NoAudioMessage)
		return nil, ErrNoAudio
	}
	g, err := s.graphs(ctx)
	if err != nil {
		log.ErrorErr(log.CatAudio, "Failed to open audio graph", err)
		s.notifier.Alert(NoAudioMessage)
		return nil, fmt.Errorf("%w: %v", ErrNoAudio, err)
	}

	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()
	return g, nil
}

// Close stops every voice and closes the graph.
func (s *Scheduler) Close() error {
	s.CancelReference()
	s.mu.Lock()
	g := s.graph
	s.graph = nil
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Close()
}

// ActiveCount returns the number of voices that have not finished.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Generation returns the number of StopAll calls so far.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// PlayPitchNow silences whatever is playing and starts p immediately. When
// no sample is available a synthesized tone plays instead.
func (s *Scheduler) PlayPitchNow(ctx context.Context, p theory.Pitch, gain float64) error {
	g, err := s.Graph(ctx)
	if err != nil {
		return err
	}
	if err := g.Resume(ctx); err != nil {
		log.Debug(log.CatAudio, "Resume failed", "error", err)
	}

	s.StopAll(PrimaryStopFade)
	gen := s.Generation()

	res := s.resolver.Resolve(ctx, p)
	if err := ctx.Err(); err != nil {
		// A load abandoned by the caller says nothing about the sample.
		log.Debug(log.CatAudio, "Dropping cancelled playback", "pitch", int(p), "error", err)
		return err
	}
	if s.Generation() != gen {
		log.Debug(log.CatAudio, "Dropping stale playback", "pitch", int(p))
		return nil
	}

	if res.Missing() {
		s.warnMissing(res.Locator)
		_, err := s.playTone(g, p, g.Now(), fallbackToneLength, fallbackToneFade, fallbackToneGain)
		return err
	}
	_, err = s.playBuffer(g, res.Buffer, g.Now(), gain)
	return err
}

// PlayBufferAt starts buf at when with a 4ms fade-in and no scheduled end.
func (s *Scheduler) PlayBufferAt(ctx context.Context, buf *audio.Buffer, when time.Duration, gain float64) (*Voice, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return s.playBuffer(g, buf, when, gain)
}

// PlayWindowed plays at most play of buf from when, fading out so that the
// gain reaches zero exactly at when+play.
func (s *Scheduler) PlayWindowed(ctx context.Context, buf *audio.Buffer, when, play, fadeOut time.Duration, gain float64) (*Voice, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return s.playWindowed(g, buf, when, play, fadeOut, gain)
}

// PlayToneWindowed plays a sine at the frequency of p, shaped like
// PlayWindowed, and hard-stops the oscillator shortly after the fade.
func (s *Scheduler) PlayToneWindowed(ctx context.Context, p theory.Pitch, when, play, fadeOut time.Duration, gain float64) (*Voice, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return s.playTone(g, p, when, play, fadeOut, gain)
}

// StopAll fades out every voice active at the time of the call. A zero fade
// means 50ms; anything shorter than 10ms is raised to 10ms. Voices leave the
// active set only once their sources report completion.
func (s *Scheduler) StopAll(fade time.Duration) {
	if fade == 0 {
		fade = defaultStopFade
	}
	fade = max(fade, minStopFade)

	s.mu.Lock()
	s.generation++
	g := s.graph
	voices := make([]*Voice, 0, len(s.active))
	for _, v := range s.active {
		voices = append(voices, v)
	}
	if s.refPlaying {
		s.scheduleReferenceClearLocked(fade + 30*time.Millisecond)
	}
	s.mu.Unlock()

	if g == nil || len(voices) == 0 {
		return
	}

	now := g.Now()
	for _, v := range voices {
		v.Gain.CancelScheduledValues(now)
		v.Gain.SetTargetAtTime(0, now, fade/6)
		stopAt := max(now+fade, v.StartTime+time.Millisecond)
		v.Source.Stop(stopAt + stopPad)
	}
	log.Debug(log.CatAudio, "Stopped voices", "count", len(voices), "fade", fade)
}

func (s *Scheduler) playBuffer(g audio.Graph, buf *audio.Buffer, when time.Duration, gain float64) (*Voice, error) {
	gain = safeGain(gain, 1)
	src := g.NewBufferSource(buf)
	src.Gain().SetValueAtTime(0, when)
	src.Gain().LinearRampToValueAtTime(gain, when+bufferFadeIn)
	return s.start(src, KindSample, when, 0)
}

func (s *Scheduler) playWindowed(g audio.Graph, buf *audio.Buffer, when, play, fadeOut time.Duration, gain float64) (*Voice, error) {
	gain = safeGain(gain, 1)
	dur := max(minPlay, play)
	fade := min(max(minFadeOut, fadeOut), dur*8/10)
	end := when + dur
	fadeStart := max(when+minHold, end-fade)

	src := g.NewBufferSource(buf)
	env := src.Gain()
	env.SetValueAtTime(0, when)
	env.LinearRampToValueAtTime(gain, when+bufferFadeIn)
	env.SetValueAtTime(gain, fadeStart)
	env.LinearRampToValueAtTime(0, end)
	return s.start(src, KindSample, when, dur)
}

func (s *Scheduler) playTone(g audio.Graph, p theory.Pitch, when, play, fadeOut time.Duration, gain float64) (*Voice, error) {
	gain = safeGain(gain, 0.65)
	end := when + max(minTonePlay, play)
	fade := min(max(minToneFadeOut, fadeOut), (end-when)*8/10)
	fadeStart := max(when+minHold, end-fade)

	osc := g.NewOscillator(theory.Frequency(p))
	env := osc.Gain()
	env.SetValueAtTime(0, when)
	env.LinearRampToValueAtTime(gain, when+toneFadeIn)
	env.SetValueAtTime(gain, fadeStart)
	env.LinearRampToValueAtTime(0, end)

	v, err := s.start(osc, KindTone, when, 0)
	if err != nil {
		return nil, err
	}
	osc.Stop(end + toneStopPad)
	return v, nil
}

// start registers the voice before starting its source so a source that
// finishes immediately is still removed by its completion handler.
func (s *Scheduler) start(src audio.Source, kind Kind, when, dur time.Duration) (*Voice, error) {
	v := &Voice{ID: uuid.New(), Kind: kind, Source: src, Gain: src.Gain(), StartTime: when}

	s.mu.Lock()
	s.active[v.ID] = v
	s.mu.Unlock()

	log.SafeGo("voice-completion", func() {
		<-src.Done()
		s.mu.Lock()
		delete(s.active, v.ID)
		s.mu.Unlock()
	})

	if err := src.Start(when, 0, dur); err != nil {
		src.Stop(when)
		return nil, fmt.Errorf("starting %s voice: %w", kind, err)
	}
	return v, nil
}

func (s *Scheduler) warnMissing(locator string) {
	s.warnOnce.Do(func() {
		log.Warn(log.CatAudio, "Audio sample(s) missing; using synthesized tones instead", "missing", locator)
		s.notifier.Notice(fmt.Sprintf("Audio samples not found; using synthesized tones. Missing: %s", locator))
	})
}

func safeGain(g, def float64) float64 {
	if math.IsNaN(g) || math.IsInf(g, 0) {
		g = def
	}
	return math.Max(0, g)
}
