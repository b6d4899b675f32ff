package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/eartrainer/internal/cues"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/theory"
)

const (
	// StopFade silences notes on restart and settings changes.
	StopFade = 60 * time.Millisecond
	// DefaultRefFadeOut is the reference fade used when none is configured.
	DefaultRefFadeOut = 60 * time.Millisecond
	minRefFadeOut     = 10 * time.Millisecond

	targetGain = 1.0
	// HighlightOctave is the lower octave of the two-octave keyboard display.
	HighlightOctave = 3
)

// Player is the audio surface a Session drives. *voice.Scheduler
// implements it.
type Player interface {
	PlayPitchNow(ctx context.Context, p theory.Pitch, gain float64) error
	StopAll(fade time.Duration)
	PlayReferenceScale(ctx context.Context, rootPC int, fadeOut time.Duration) (bool, error)
	PlayReferenceTonic(ctx context.Context, rootPC int, fadeOut time.Duration) error
	CancelReference()
}

// Prefs persists settings changes. *settings.Preferences implements it.
type Prefs interface {
	SaveKey(ctx context.Context, key string)
	SaveRange(ctx context.Context, mode string)
}

type noopPrefs struct{}

func (noopPrefs) SaveKey(context.Context, string)   {}
func (noopPrefs) SaveRange(context.Context, string) {}

// Config configures a Session.
type Config struct {
	Player Player
	// Cues defaults to cues.NoopPlayer.
	Cues  cues.Player
	Prefs Prefs
	// Key and Range are the initial settings. Key defaults to "C".
	Key   string
	Range RangeMode
	// RefFadeOut is the fade used for reference runs and for silencing a
	// note after a correct answer. At least 10ms.
	RefFadeOut time.Duration
	// FrameSync runs after a new target is set and before it is played, so
	// a UI can render the round first.
	FrameSync func(ctx context.Context) error
	// IntN defaults to math/rand/v2.IntN.
	IntN   func(n int) int
	Tracer trace.Tracer
}

// Session is one player's game. All methods are safe for concurrent use.
type Session struct {
	player     Player
	cues       cues.Player
	prefs      Prefs
	refFadeOut time.Duration
	frameSync  func(context.Context) error
	intn       func(int) int
	tracer     trace.Tracer

	mu           sync.Mutex
	started      bool
	awaitingNext bool
	target       *Target
	lastPitch    *theory.Pitch
	key          string
	rangeMode    RangeMode
	scale        *theory.Scale
	score        Score
	// round increments whenever the current round is replaced or abandoned.
	round uint64
}

// New creates a Session in PhaseNotStarted with cfg.Key's scale.
func New(cfg Config) (*Session, error) {
	if cfg.Key == "" {
		cfg.Key = "C"
	}
	scale, err := theory.SpellMajorScale(cfg.Key)
	if err != nil {
		return nil, err
	}
	if cfg.Cues == nil {
		cfg.Cues = cues.NoopPlayer{}
	}
	if cfg.Prefs == nil {
		cfg.Prefs = noopPrefs{}
	}
	if cfg.RefFadeOut == 0 {
		cfg.RefFadeOut = DefaultRefFadeOut
	}
	if cfg.IntN == nil {
		cfg.IntN = rand.IntN //nolint:gosec // target selection is not security sensitive
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/zjrosen/eartrainer/internal/game")
	}
	return &Session{
		player:     cfg.Player,
		cues:       cfg.Cues,
		prefs:      cfg.Prefs,
		refFadeOut: max(minRefFadeOut, cfg.RefFadeOut),
		frameSync:  cfg.FrameSync,
		intn:       cfg.IntN,
		tracer:     cfg.Tracer,
		key:        cfg.Key,
		rangeMode:  ParseRangeMode(string(cfg.Range)),
		scale:      scale,
	}, nil
}

// StartGame switches to key, resets the score and starts the first round.
// An unparsable key returns *theory.InvalidNoteError and leaves the session
// untouched.
func (s *Session) StartGame(ctx context.Context, key string) error {
	scale, err := theory.SpellMajorScale(key)
	if err != nil {
		return err
	}
	s.player.CancelReference()

	s.mu.Lock()
	s.key = key
	s.scale = scale
	s.score = Score{}
	s.started = true
	s.awaitingNext = false
	s.target = nil
	s.lastPitch = nil
	s.round++
	s.mu.Unlock()

	log.Info(log.CatGame, "Game started", "key", key, "range", s.RangeMode())
	return s.StartRound(ctx)
}

// StartRound picks a new target and plays it.
func (s *Session) StartRound(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	t := PickTarget(s.scale, s.rangeMode, s.lastPitch, s.intn)
	s.target = &t
	s.lastPitch = &t.Pitch
	s.awaitingNext = false
	s.round++
	round := s.round
	key, mode := s.key, s.rangeMode
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "game.round", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("range", string(mode)),
		attribute.Int("pitch", int(t.Pitch)),
		attribute.String("name", t.Name),
	))
	defer span.End()

	if s.frameSync != nil {
		if err := s.frameSync(ctx); err != nil {
			return fmt.Errorf("frame sync: %w", err)
		}
	}
	if !s.isCurrent(round) {
		log.Debug(log.CatGame, "Round replaced before autoplay", "round", round)
		return nil
	}
	return s.player.PlayPitchNow(ctx, t.Pitch, targetGain)
}

// SubmitAnswer scores pc against the target. It returns false, and changes
// nothing, unless the session is waiting for an answer.
func (s *Session) SubmitAnswer(ctx context.Context, pc int) (Feedback, bool) {
	s.mu.Lock()
	if !s.started || s.awaitingNext || s.target == nil {
		s.mu.Unlock()
		return Feedback{}, false
	}
	correct := theory.Mod12(pc) == theory.Mod12(s.target.PitchClass)
	if correct {
		s.score.Correct++
	} else {
		s.score.Incorrect++
	}
	s.awaitingNext = true
	fb := Feedback{Correct: correct, Chosen: theory.Mod12(pc), Target: *s.target, Score: s.score}
	s.mu.Unlock()

	if correct {
		s.player.StopAll(s.refFadeOut)
		s.cues.StopAll()
		s.cues.Play(ctx, cues.Correct)
	} else {
		s.cues.Play(ctx, cues.Incorrect)
	}
	log.Debug(log.CatGame, "Answer submitted", "correct", correct, "chosen", fb.Chosen, "target", fb.Target.Name)
	return fb, true
}

// Advance starts the next round after an answer.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	s.mu.Lock()
	ok := s.started && s.awaitingNext
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	s.player.StopAll(s.refFadeOut)
	s.cues.StopAll()
	return true, s.StartRound(ctx)
}

// ReplayTarget plays the current target again.
func (s *Session) ReplayTarget(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.target == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	p := s.target.Pitch
	s.mu.Unlock()
	return s.player.PlayPitchNow(ctx, p, targetGain)
}

// PlayReferenceScale toggles the reference scale run for the current key.
// It reports whether a run was started.
func (s *Session) PlayReferenceScale(ctx context.Context) (bool, error) {
	root, err := s.startedRoot()
	if err != nil {
		return false, err
	}
	return s.player.PlayReferenceScale(ctx, root, s.refFadeOut)
}

// PlayReferenceTonic plays the tonic of the current key.
func (s *Session) PlayReferenceTonic(ctx context.Context) error {
	root, err := s.startedRoot()
	if err != nil {
		return err
	}
	return s.player.PlayReferenceTonic(ctx, root, s.refFadeOut)
}

// StopAll fades out every note.
func (s *Session) StopAll(fade time.Duration) {
	s.player.StopAll(fade)
}

// ChangeSettings switches key and range, persists both, and returns the
// session to PhaseNotStarted with a cleared score.
func (s *Session) ChangeSettings(ctx context.Context, key string, mode RangeMode) error {
	scale, err := theory.SpellMajorScale(key)
	if err != nil {
		return err
	}
	mode = ParseRangeMode(string(mode))
	s.prefs.SaveKey(ctx, key)
	s.prefs.SaveRange(ctx, string(mode))

	s.silence()

	s.mu.Lock()
	s.key = key
	s.rangeMode = mode
	s.scale = scale
	s.resetLocked()
	s.mu.Unlock()

	log.Info(log.CatGame, "Settings changed", "key", key, "range", mode)
	return nil
}

// Restart returns to PhaseNotStarted keeping the key and range.
func (s *Session) Restart() {
	s.silence()
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

func (s *Session) silence() {
	s.player.StopAll(StopFade)
	s.cues.StopAll()
	s.player.CancelReference()
}

func (s *Session) resetLocked() {
	s.started = false
	s.awaitingNext = false
	s.target = nil
	s.lastPitch = nil
	s.score = Score{}
	s.round++
}

func (s *Session) startedRoot() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0, ErrNotStarted
	}
	return s.scale.RootPitchClass, nil
}

func (s *Session) isCurrent(round uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.round == round
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.started:
		return PhaseNotStarted
	case s.awaitingNext:
		return PhaseAwaitingNext
	default:
		return PhaseAwaitingAnswer
	}
}

// Scale returns the scale of the current key.
func (s *Session) Scale() *theory.Scale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Score returns the current score.
func (s *Session) Score() Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Target returns the current round's target.
func (s *Session) Target() (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return Target{}, false
	}
	return *s.target, true
}

// Key returns the current key.
func (s *Session) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// RangeMode returns the current range mode.
func (s *Session) RangeMode() RangeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeMode
}

// ScoreMeta is the settings line shown under the score.
func (s *Session) ScoreMeta() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Scale: %s • Range: %s", theory.KeyLabel(s.key), s.rangeMode.Label())
}

// KeyboardHighlights returns the scale's pitches over the two-octave display.
func (s *Session) KeyboardHighlights() []theory.Pitch {
	return s.Scale().ReferencePitches(HighlightOctave)
}
