package voice

import (
	"context"
	"sync"
	"time"

	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/resolver"
	"github.com/zjrosen/eartrainer/internal/theory"
)

const (
	// ReferenceOctave is the octave the reference scale and tonic start in.
	ReferenceOctave = 3

	// ReferenceStep separates the starts of consecutive reference notes,
	// which last ReferenceNote, or ReferenceLastNote for the top note.
	ReferenceStep     = 300 * time.Millisecond
	ReferenceNote     = 700 * time.Millisecond
	ReferenceLastNote = 800 * time.Millisecond

	referenceLead     = 20 * time.Millisecond
	referenceTail     = 50 * time.Millisecond
	referenceGain     = 0.95
	referenceToneGain = 0.65

	tonicLength   = 7 * time.Second
	tonicToneGain = 0.7
)

// ReferencePlaying reports whether a reference scale run is sounding.
func (s *Scheduler) ReferencePlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refPlaying
}

// CancelReference clears the reference run immediately without touching
// the voices.
func (s *Scheduler) CancelReference() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refTimer != nil {
		s.refTimer.Stop()
		s.refTimer = nil
	}
	s.refSeq++
	s.refPlaying = false
}

// PlayReferenceScale plays the ascending major scale of rootPC from octave 3
// up to the octave above, overlapping notes slightly. If a run is already
// playing it is stopped instead and started reports false.
func (s *Scheduler) PlayReferenceScale(ctx context.Context, rootPC int, fadeOut time.Duration) (started bool, err error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return false, err
	}
	if err := g.Resume(ctx); err != nil {
		log.Debug(log.CatAudio, "Resume failed", "error", err)
	}

	if s.ReferencePlaying() {
		s.StopAll(fadeOut)
		return false, nil
	}

	s.StopAll(fadeOut)
	s.mu.Lock()
	s.refPlaying = true
	gen := s.generation
	s.mu.Unlock()

	root := theory.PitchOf(rootPC, ReferenceOctave)
	pitches := make([]theory.Pitch, 0, 8)
	for _, step := range []int{0, 2, 4, 5, 7, 9, 11, 12} {
		pitches = append(pitches, root+theory.Pitch(step))
	}
	loaded := s.resolveAll(ctx, pitches)

	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		if s.generation == gen {
			s.refPlaying = false
		}
		s.mu.Unlock()
		log.Debug(log.CatAudio, "Dropping cancelled reference scale", "error", err)
		return false, err
	}
	if s.generation != gen {
		s.mu.Unlock()
		log.Debug(log.CatAudio, "Dropping stale reference scale")
		return false, nil
	}
	total := time.Duration(len(pitches)-1)*ReferenceStep + ReferenceLastNote + fadeOut + referenceTail
	s.scheduleReferenceClearLocked(total)
	s.mu.Unlock()

	startAt := g.Now() + referenceLead
	for i, res := range loaded {
		when := startAt + time.Duration(i)*ReferenceStep
		length := ReferenceNote
		if i == len(loaded)-1 {
			length = ReferenceLastNote
		}
		if res.Missing() {
			s.warnMissing(res.Locator)
			if _, err := s.playTone(g, res.Pitch, when, length, fadeOut, referenceToneGain); err != nil {
				return true, err
			}
			continue
		}
		if _, err := s.playWindowed(g, res.Buffer, when, length, fadeOut, referenceGain); err != nil {
			return true, err
		}
	}
	return true, nil
}

// PlayReferenceTonic stops everything and sustains the root in octave 3 for
// seven seconds.
func (s *Scheduler) PlayReferenceTonic(ctx context.Context, rootPC int, fadeOut time.Duration) error {
	g, err := s.Graph(ctx)
	if err != nil {
		return err
	}
	if err := g.Resume(ctx); err != nil {
		log.Debug(log.CatAudio, "Resume failed", "error", err)
	}

	s.StopAll(fadeOut)
	gen := s.Generation()

	pitch := theory.PitchOf(rootPC, ReferenceOctave)
	res := s.resolver.Resolve(ctx, pitch)
	if err := ctx.Err(); err != nil {
		log.Debug(log.CatAudio, "Dropping cancelled reference tonic", "error", err)
		return err
	}
	if s.Generation() != gen {
		log.Debug(log.CatAudio, "Dropping stale reference tonic")
		return nil
	}

	when := g.Now() + referenceLead
	if res.Missing() {
		s.warnMissing(res.Locator)
		_, err := s.playTone(g, pitch, when, tonicLength, fadeOut, tonicToneGain)
		return err
	}
	_, err = s.playWindowed(g, res.Buffer, when, tonicLength, fadeOut, referenceGain)
	return err
}

func (s *Scheduler) resolveAll(ctx context.Context, pitches []theory.Pitch) []resolver.Resolution {
	out := make([]resolver.Resolution, len(pitches))
	var wg sync.WaitGroup
	for i, p := range pitches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = s.resolver.Resolve(ctx, p)
		}()
	}
	wg.Wait()
	return out
}

// scheduleReferenceClearLocked replaces any pending clear of the reference
// flag with one that fires after d. s.mu must be held.
func (s *Scheduler) scheduleReferenceClearLocked(d time.Duration) {
	if s.refTimer != nil {
		s.refTimer.Stop()
	}
	s.refSeq++
	seq := s.refSeq
	s.refTimer = s.afterFunc(max(d, 0), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.refSeq != seq {
			return
		}
		s.refTimer = nil
		s.refPlaying = false
	})
}
