package audio

import (
	"math"
	"slices"
	"sync"
	"time"
)

type paramEventKind int

const (
	setValueEvent paramEventKind = iota
	linearRampEvent
	setTargetEvent
)

type paramEvent struct {
	kind  paramEventKind
	at    time.Duration
	value float64
	tau   float64 // seconds, setTargetEvent only
}

// Param is an automatable value such as a gain. Events are kept sorted by
// time; events scheduled at the same time apply in insertion order.
type Param struct {
	mu      sync.Mutex
	initial float64
	events  []paramEvent
}

// NewParam returns a param holding v until automation says otherwise.
func NewParam(v float64) *Param {
	return &Param{initial: v}
}

// SetValueAtTime jumps to v at t.
func (p *Param) SetValueAtTime(v float64, t time.Duration) {
	p.insert(paramEvent{kind: setValueEvent, at: t, value: v})
}

// LinearRampToValueAtTime ramps linearly from the previous event's value so
// that v is reached exactly at t.
func (p *Param) LinearRampToValueAtTime(v float64, t time.Duration) {
	p.insert(paramEvent{kind: linearRampEvent, at: t, value: v})
}

// SetTargetAtTime approaches target exponentially from start with time
// constant tau.
func (p *Param) SetTargetAtTime(target float64, start, tau time.Duration) {
	p.insert(paramEvent{kind: setTargetEvent, at: start, value: target, tau: math.Max(tau.Seconds(), 1e-6)})
}

// CancelScheduledValues drops every event at or after t.
func (p *Param) CancelScheduledValues(t time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.IndexFunc(p.events, func(e paramEvent) bool { return e.at >= t })
	if i >= 0 {
		p.events = p.events[:i]
	}
}

// ValueAt evaluates the automation at t.
func (p *Param) ValueAt(t time.Duration) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valueAt(t)
}

// fill writes the automation value for n consecutive frames starting at
// frame first into dst.
func (p *Param) fill(dst []float32, first int64, sampleRate int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		for i := range dst {
			dst[i] = float32(p.initial)
		}
		return
	}
	for i := range dst {
		dst[i] = float32(p.valueAt(frameTime(first+int64(i), sampleRate)))
	}
}

func (p *Param) insert(e paramEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.IndexFunc(p.events, func(x paramEvent) bool { return x.at > e.at })
	if i < 0 {
		p.events = append(p.events, e)
		return
	}
	p.events = slices.Insert(p.events, i, e)
}

func (p *Param) valueAt(t time.Duration) float64 {
	prevAt := time.Duration(0)
	prevValue := p.initial
	var target *paramEvent
	var targetFrom float64

	current := func(x time.Duration) float64 {
		if target == nil {
			return prevValue
		}
		elapsed := (x - target.at).Seconds()
		return target.value + (targetFrom-target.value)*math.Exp(-elapsed/target.tau)
	}

	for i := range p.events {
		e := &p.events[i]
		switch e.kind {
		case setValueEvent:
			if e.at > t {
				return current(t)
			}
			prevAt, prevValue, target = e.at, e.value, nil
		case linearRampEvent:
			if e.at > t {
				from := current(prevAt)
				frac := float64(t-prevAt) / float64(e.at-prevAt)
				return from + (e.value-from)*frac
			}
			prevAt, prevValue, target = e.at, e.value, nil
		case setTargetEvent:
			if e.at > t {
				return current(t)
			}
			v0 := current(e.at)
			prevAt, prevValue = e.at, v0
			target, targetFrom = e, v0
		}
	}
	return current(t)
}

func frameTime(frame int64, sampleRate int) time.Duration {
	return time.Duration(frame * int64(time.Second) / int64(sampleRate))
}

func timeFrame(t time.Duration, sampleRate int) int64 {
	return int64(math.Round(t.Seconds() * float64(sampleRate)))
}
