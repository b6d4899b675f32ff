package play

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameDelay is how long a new round is on screen before its note plays.
const frameDelay = time.Second / 60

// roundMsg announces a new round. The model closes ack once the round has
// had a frame to render.
type roundMsg struct {
	ack chan struct{}
}

// FrameSync holds a session's autoplay until the program has drawn the new
// round. Its Wait method is a game.Config FrameSync.
type FrameSync struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewFrameSync returns a FrameSync that does not wait until attached.
func NewFrameSync() *FrameSync {
	return &FrameSync{}
}

// Attach routes round announcements to send, usually (*tea.Program).Send.
func (f *FrameSync) Attach(send func(tea.Msg)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.send = send
}

// Wait announces the round and blocks until it has been rendered or ctx
// ends.
func (f *FrameSync) Wait(ctx context.Context) error {
	f.mu.Lock()
	send := f.send
	f.mu.Unlock()
	if send == nil {
		return nil
	}

	ack := make(chan struct{})
	send(roundMsg{ack: ack})
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ackAfterFrame releases a waiting round after one frame.
func ackAfterFrame(ack chan struct{}) tea.Cmd {
	return tea.Tick(frameDelay, func(time.Time) tea.Msg {
		close(ack)
		return nil
	})
}
