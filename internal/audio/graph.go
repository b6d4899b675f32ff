// Package audio defines the playback graph used by the voice scheduler and a
// software implementation of it.
//
// Times are graph times: the duration of audio rendered since the graph was
// opened. Every scheduling call takes a graph time, so events land on exact
// sample frames regardless of when the call is made.
package audio

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice on a source.
	ErrAlreadyStarted = errors.New("audio: source already started")
	// ErrClosed is returned by operations on a closed graph.
	ErrClosed = errors.New("audio: graph closed")
)

// Clock reports the current graph time.
type Clock interface {
	Now() time.Duration
}

// Decoder turns encoded bytes into a PCM buffer.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Buffer, error)
}

// Source is a single playable node: a buffer player or an oscillator, each
// with its own gain stage routed to the graph's master gain.
type Source interface {
	// Gain is the per-source gain automation.
	Gain() *Param
	// Start schedules playback at when, beginning offset into the content.
	// A positive duration limits how much content is played.
	Start(when, offset, duration time.Duration) error
	// Stop schedules the source to end at when. Later calls replace the
	// stop time.
	Stop(when time.Duration)
	// Done is closed once the source has finished, for whatever reason.
	Done() <-chan struct{}
}

// Graph is an audio output graph with a master gain stage.
type Graph interface {
	Clock
	// Resume makes the graph advance time and produce sound.
	Resume(ctx context.Context) error
	NewBufferSource(buf *Buffer) Source
	NewOscillator(freq float64) Source
	Close() error
}

// GraphFactory opens a graph. It is called lazily on first playback.
type GraphFactory func(ctx context.Context) (Graph, error)

// Seconds converts fractional seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
