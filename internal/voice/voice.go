// Package voice schedules sample and tone playback on an audio graph and
// tracks every scheduled sound so it can be faded out on demand.
package voice

import (
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/eartrainer/internal/audio"
)

// Kind says what a voice is playing.
type Kind int

const (
	KindSample Kind = iota
	KindTone
)

func (k Kind) String() string {
	if k == KindTone {
		return "tone"
	}
	return "sample"
}

// Voice is one in-flight sample or oscillator. It stays in the scheduler's
// active set until its source reports completion.
type Voice struct {
	ID        uuid.UUID
	Kind      Kind
	Source    audio.Source
	Gain      *audio.Param
	StartTime time.Duration
}

// Done is closed when the voice's source has finished.
func (v *Voice) Done() <-chan struct{} { return v.Source.Done() }

// Notifier surfaces audio problems to the player.
type Notifier interface {
	// Alert shows a blocking message.
	Alert(msg string)
	// Notice shows a non-blocking feedback message.
	Notice(msg string)
}

// NoopNotifier discards every message.
type NoopNotifier struct{}

func (NoopNotifier) Alert(string)  {}
func (NoopNotifier) Notice(string) {}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d on the wall clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
