// Package oto streams an audio.Mixer to the sound card.
package oto

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/zjrosen/eartrainer/internal/audio"
	"github.com/zjrosen/eartrainer/internal/log"
)

// Config selects the device format.
type Config struct {
	SampleRate int
	BufferSize time.Duration
	MasterGain float64
}

// oto allows one context per process.
var (
	contextOnce sync.Once
	otoContext  *oto.Context
	contextErr  error
)

// Graph is an audio.Mixer attached to an output device.
type Graph struct {
	*audio.Mixer
	ctx    *oto.Context
	player *oto.Player
}

var _ audio.Graph = (*Graph)(nil)

// NewGraphFactory returns a factory that opens the device on first use.
func NewGraphFactory(cfg Config) audio.GraphFactory {
	return func(ctx context.Context) (audio.Graph, error) {
		return Open(ctx, cfg)
	}
}

// Open starts the device and a player pulling from a fresh mixer.
func Open(ctx context.Context, cfg Config) (*Graph, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50 * time.Millisecond
	}

	var ready chan struct{}
	contextOnce.Do(func() {
		otoContext, ready, contextErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   cfg.BufferSize,
		})
	})
	if contextErr != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", contextErr)
	}
	if ready != nil {
		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	mixer := audio.NewMixer(cfg.SampleRate, cfg.MasterGain)
	player := otoContext.NewPlayer(mixer)
	player.Play()
	log.Info(log.CatAudio, "Audio output opened", "sample_rate", cfg.SampleRate, "buffer", cfg.BufferSize)

	return &Graph{Mixer: mixer, ctx: otoContext, player: player}, nil
}

// Resume resumes the device as well as the mixer clock.
func (g *Graph) Resume(ctx context.Context) error {
	if err := g.ctx.Resume(); err != nil {
		return fmt.Errorf("cannot resume oto context: %w", err)
	}
	return g.Mixer.Resume(ctx)
}

// Close stops the player and finishes every source.
func (g *Graph) Close() error {
	if err := g.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return g.Mixer.Close()
}
