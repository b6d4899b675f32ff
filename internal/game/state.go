// Package game runs the note-identification rounds: it picks targets from
// the current scale, plays them, scores answers, and resets on demand.
package game

import (
	"errors"
	"fmt"

	"github.com/zjrosen/eartrainer/internal/theory"
)

// ErrNotStarted is returned by operations that need a started game.
var ErrNotStarted = errors.New("game not started")

// Phase is the position of a Session in its round cycle.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingAnswer
	PhaseAwaitingNext
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	case PhaseAwaitingNext:
		return "awaiting-next"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// RangeMode selects the octaves targets are drawn from.
type RangeMode string

const (
	RangeOne   RangeMode = "one"
	RangeMulti RangeMode = "multi"
)

// ParseRangeMode maps "multi" to RangeMulti and anything else to RangeOne.
func ParseRangeMode(s string) RangeMode {
	if s == string(RangeMulti) {
		return RangeMulti
	}
	return RangeOne
}

// Octaves returns the octaves a target may be drawn from.
func (m RangeMode) Octaves() []int {
	if m == RangeMulti {
		return []int{3, 4, 5}
	}
	return []int{3}
}

// Label is the human-readable range name.
func (m RangeMode) Label() string {
	if m == RangeMulti {
		return "Multiple Octaves"
	}
	return "One Octave"
}

// Target is the note the player has to identify in the current round.
type Target struct {
	Pitch      theory.Pitch
	PitchClass int
	Name       string
}

// Score counts answers since the last reset.
type Score struct {
	Correct   int
	Incorrect int
}

// Total is the number of answered rounds.
func (s Score) Total() int { return s.Correct + s.Incorrect }

// Accuracy is the percentage of correct answers, 0 before any answer.
func (s Score) Accuracy() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total()) * 100
}

// AccuracyString formats Accuracy with one decimal, e.g. "66.7%".
func (s Score) AccuracyString() string {
	return fmt.Sprintf("%.1f%%", s.Accuracy())
}

// Feedback describes the outcome of an answer.
type Feedback struct {
	Correct bool
	// Chosen is the submitted pitch class.
	Chosen int
	Target Target
	Score  Score
}

// Message is the line shown to the player after answering.
func (f Feedback) Message() string {
	if f.Correct {
		return fmt.Sprintf("Correct - nice one! That note was %s.", f.Target.Name)
	}
	return fmt.Sprintf("Uh oh! That note was actually %s. Give it another go!", f.Target.Name)
}
