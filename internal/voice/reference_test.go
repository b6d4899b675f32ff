package voice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/eartrainer/internal/theory"
)

func cMajorRun() []theory.Pitch {
	return []theory.Pitch{36, 38, 40, 41, 43, 45, 47, 48}
}

func TestPlayReferenceScale_SchedulesEightOverlappingNotes(t *testing.T) {
	h := newHarness(cMajorRun()...)
	h.advance(100 * time.Millisecond)

	started, err := h.s.PlayReferenceScale(context.Background(), 0, 60*time.Millisecond)
	require.NoError(t, err)
	require.True(t, started)
	require.True(t, h.s.ReferencePlaying())

	vs := h.voices()
	require.Len(t, vs, 8)
	for i, v := range vs {
		require.Equal(t, KindSample, v.Kind)
		require.Equal(t, 120*time.Millisecond+time.Duration(i)*300*time.Millisecond, v.StartTime)
	}
	require.InDelta(t, 0.95, vs[0].Gain.ValueAt(300*time.Millisecond), 1e-9)

	timer := h.timers.last()
	require.NotNil(t, timer)
	require.Equal(t, 7*300*time.Millisecond+800*time.Millisecond+60*time.Millisecond+50*time.Millisecond, timer.d)

	timer.fire()
	require.False(t, h.s.ReferencePlaying())
}

func TestPlayReferenceScale_LastNoteSustainsLonger(t *testing.T) {
	h := newHarness(cMajorRun()...)
	ms := time.Millisecond

	_, err := h.s.PlayReferenceScale(context.Background(), 0, 60*ms)
	require.NoError(t, err)

	vs := h.voices()
	first, last := vs[0], vs[7]
	// regular notes end 700ms after they start, the last one 800ms after
	require.InDelta(t, 0, first.Gain.ValueAt(first.StartTime+700*ms), 1e-9)
	require.Greater(t, last.Gain.ValueAt(last.StartTime+700*ms), 0.1)
	require.InDelta(t, 0, last.Gain.ValueAt(last.StartTime+800*ms), 1e-9)
}

func TestPlayReferenceScale_TogglesOff(t *testing.T) {
	h := newHarness(cMajorRun()...)
	ctx := context.Background()

	_, err := h.s.PlayReferenceScale(ctx, 0, 60*time.Millisecond)
	require.NoError(t, err)
	runTimer := h.timers.last()

	started, err := h.s.PlayReferenceScale(ctx, 0, 60*time.Millisecond)
	require.NoError(t, err)
	require.False(t, started)
	require.Len(t, h.voices(), 8, "no new voices are scheduled when stopping")

	clearTimer := h.timers.last()
	require.NotSame(t, runTimer, clearTimer)
	require.True(t, runTimer.stopped.Load())
	require.Equal(t, 90*time.Millisecond, clearTimer.d)

	// still flagged until the fade completes
	require.True(t, h.s.ReferencePlaying())
	runTimer.fire()
	require.True(t, h.s.ReferencePlaying())
	clearTimer.fire()
	require.False(t, h.s.ReferencePlaying())

	// the last note starts at 2.12s and is stopped 21ms after its start
	h.advance(3 * time.Second)
	h.requireActive(t, 0)
}

func TestPlayReferenceScale_MissingSamplesUseTones(t *testing.T) {
	h := newHarness(36)

	_, err := h.s.PlayReferenceScale(context.Background(), 0, 60*time.Millisecond)
	require.NoError(t, err)

	vs := h.voices()
	require.Len(t, vs, 8)
	require.Equal(t, KindSample, vs[0].Kind)
	for _, v := range vs[1:] {
		require.Equal(t, KindTone, v.Kind)
		require.InDelta(t, 0.65, v.Gain.ValueAt(v.StartTime+100*time.Millisecond), 1e-9)
	}
	require.Len(t, h.notifier.notices, 1)
}

func TestPlayReferenceScale_StaleAfterStopDuringLoad(t *testing.T) {
	h := newHarness(cMajorRun()...)
	h.resolver.gate = make(chan struct{})

	type result struct {
		started bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		started, err := h.s.PlayReferenceScale(context.Background(), 0, 60*time.Millisecond)
		done <- result{started, err}
	}()
	require.Eventually(t, func() bool { return h.resolver.calls.Load() == 8 }, time.Second, time.Millisecond)

	h.s.StopAll(60 * time.Millisecond)
	close(h.resolver.gate)

	res := <-done
	require.NoError(t, res.err)
	require.False(t, res.started)
	require.Equal(t, 0, h.s.ActiveCount())

	h.timers.last().fire()
	require.False(t, h.s.ReferencePlaying())
}

func TestPlayReferenceScale_CancelledDuringLoad(t *testing.T) {
	h := newHarness(cMajorRun()...)
	h.resolver.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	type result struct {
		started bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		started, err := h.s.PlayReferenceScale(ctx, 0, 60*time.Millisecond)
		done <- result{started, err}
	}()
	require.Eventually(t, func() bool { return h.resolver.calls.Load() == 8 }, time.Second, time.Millisecond)
	cancel()

	res := <-done
	require.ErrorIs(t, res.err, context.Canceled)
	require.False(t, res.started)
	require.False(t, h.s.ReferencePlaying())
	require.Equal(t, 0, h.s.ActiveCount())
	require.Empty(t, h.notifier.notices)

	// the next press starts the scale instead of toggling it off
	close(h.resolver.gate)
	started, err := h.s.PlayReferenceScale(context.Background(), 0, 60*time.Millisecond)
	require.NoError(t, err)
	require.True(t, started)
	require.Len(t, h.voices(), 8)
}

func TestPlayReferenceTonic_CancelledDuringLoad(t *testing.T) {
	h := newHarness()
	h.resolver.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.s.PlayReferenceTonic(ctx, 2, 60*time.Millisecond)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, h.s.ActiveCount())
	require.Empty(t, h.notifier.notices)
}

func TestStopAll_ReschedulesReferenceClear(t *testing.T) {
	h := newHarness(cMajorRun()...)

	_, err := h.s.PlayReferenceScale(context.Background(), 0, 60*time.Millisecond)
	require.NoError(t, err)

	h.s.StopAll(100 * time.Millisecond)

	require.Equal(t, 130*time.Millisecond, h.timers.last().d)
	require.True(t, h.s.ReferencePlaying())
}

func TestCancelReference_ClearsImmediately(t *testing.T) {
	h := newHarness(cMajorRun()...)

	_, err := h.s.PlayReferenceScale(context.Background(), 0, 60*time.Millisecond)
	require.NoError(t, err)
	timer := h.timers.last()

	h.s.CancelReference()

	require.False(t, h.s.ReferencePlaying())
	require.True(t, timer.stopped.Load())
}

func TestPlayReferenceTonic_SustainsSevenSeconds(t *testing.T) {
	h := newHarness()
	h.advance(50 * time.Millisecond)

	require.NoError(t, h.s.PlayReferenceTonic(context.Background(), 2, 60*time.Millisecond))

	vs := h.voices()
	require.Len(t, vs, 1)
	require.Equal(t, KindTone, vs[0].Kind)
	require.Equal(t, 70*time.Millisecond, vs[0].StartTime)
	require.InDelta(t, 0.7, vs[0].Gain.ValueAt(5*time.Second), 1e-9)
	require.InDelta(t, 0, vs[0].Gain.ValueAt(7070*time.Millisecond), 1e-9)
	require.False(t, h.s.ReferencePlaying())
}

func TestPlayReferenceTonic_UsesSampleWhenPresent(t *testing.T) {
	h := newHarness(38)

	require.NoError(t, h.s.PlayReferenceTonic(context.Background(), 2, 60*time.Millisecond))

	vs := h.voices()
	require.Len(t, vs, 1)
	require.Equal(t, KindSample, vs[0].Kind)
	require.InDelta(t, 0.95, vs[0].Gain.ValueAt(500*time.Millisecond), 1e-9)
}
