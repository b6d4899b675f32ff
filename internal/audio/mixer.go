package audio

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/viterin/vek/vek32"
)

// Mixer is a software Graph. It renders interleaved stereo float32 frames on
// demand and its clock advances by exactly the number of frames rendered, so
// a device pulling from it (see Read) drives graph time.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	frames     int64
	master     *Param
	sources    []*source
	suspended  bool
	closed     bool

	left, right, gains, scratch, scratchR []float32
}

var _ Graph = (*Mixer)(nil)

// NewMixer returns a running mixer at sampleRate with the given master gain.
func NewMixer(sampleRate int, masterGain float64) *Mixer {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Mixer{sampleRate: sampleRate, master: NewParam(masterGain)}
}

// SampleRate returns the output rate in frames per second.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// Master is the master gain applied after all sources are summed.
func (m *Mixer) Master() *Param { return m.master }

// Now returns the graph time.
func (m *Mixer) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return frameTime(m.frames, m.sampleRate)
}

// Resume lets the clock advance again after Suspend.
func (m *Mixer) Resume(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.suspended = false
	return nil
}

// Suspend freezes the clock; Render outputs silence until Resume.
func (m *Mixer) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = true
}

// Active returns the number of started or pending sources.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// NewBufferSource returns a source that plays buf. Buffers at another sample
// rate are resampled by holding the last frame at or before each position.
func (m *Mixer) NewBufferSource(buf *Buffer) Source {
	return m.newSource(buf, 0)
}

// NewOscillator returns a sine source at freq Hz.
func (m *Mixer) NewOscillator(freq float64) Source {
	return m.newSource(nil, freq)
}

func (m *Mixer) newSource(buf *Buffer, freq float64) *source {
	return &source{
		m:         m,
		gain:      NewParam(1),
		buf:       buf,
		freq:      freq,
		stopFrame: math.MaxInt64,
		endFrame:  math.MaxInt64,
		done:      make(chan struct{}),
	}
}

// Close finishes every source and rejects further rendering.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, s := range m.sources {
		s.finish()
	}
	m.sources = nil
	return nil
}

// Render fills out with interleaved stereo frames and advances the clock by
// len(out)/2 frames. A suspended or closed mixer writes silence and keeps
// its clock still.
func (m *Mixer) Render(out []float32) {
	n := len(out) / 2
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.suspended || m.closed || n == 0 {
		clear(out)
		return
	}

	m.left = vek32.Zeros_Into(grow(m.left, n), n)
	m.right = vek32.Zeros_Into(grow(m.right, n), n)
	m.gains = grow(m.gains, n)
	m.scratch = grow(m.scratch, n)
	m.scratchR = grow(m.scratchR, n)

	first := m.frames
	last := first + int64(n)
	kept := m.sources[:0]
	for _, s := range m.sources {
		if s.renderInto(m, first, last) {
			kept = append(kept, s)
		} else {
			s.finish()
		}
	}
	clear(m.sources[len(kept):])
	m.sources = kept

	m.master.fill(m.gains, first, m.sampleRate)
	vek32.Mul_Inplace(m.left, m.gains)
	vek32.Mul_Inplace(m.right, m.gains)

	for i := range n {
		out[2*i] = m.left[i]
		out[2*i+1] = m.right[i]
	}
	m.frames = last
}

func (m *Mixer) add(s *source) {
	if !slices.Contains(m.sources, s) {
		m.sources = append(m.sources, s)
	}
}

func grow(b []float32, n int) []float32 {
	if cap(b) < n {
		return make([]float32, n)
	}
	return b[:n]
}

type source struct {
	m    *Mixer
	gain *Param
	buf  *Buffer
	freq float64

	started     bool
	startFrame  int64
	offsetFrame float64
	stopFrame   int64
	endFrame    int64
	phase       float64

	done     chan struct{}
	doneOnce sync.Once
}

var _ Source = (*source)(nil)

func (s *source) Gain() *Param          { return s.gain }
func (s *source) Done() <-chan struct{} { return s.done }

func (s *source) Start(when, offset, duration time.Duration) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	if m.closed {
		return ErrClosed
	}
	s.started = true
	s.startFrame = max(timeFrame(when, m.sampleRate), m.frames)

	if s.buf != nil {
		ratio := float64(s.buf.SampleRate) / float64(m.sampleRate)
		s.offsetFrame = offset.Seconds() * float64(s.buf.SampleRate)
		remaining := (float64(s.buf.Frames()) - s.offsetFrame) / ratio
		if duration > 0 {
			remaining = math.Min(remaining, duration.Seconds()*float64(m.sampleRate))
		}
		s.endFrame = s.startFrame + int64(math.Max(0, math.Ceil(remaining)))
	} else if duration > 0 {
		s.endFrame = s.startFrame + timeFrame(duration, m.sampleRate)
	}
	m.add(s)
	return nil
}

func (s *source) Stop(when time.Duration) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if !s.started {
		s.finish()
		return
	}
	s.stopFrame = max(timeFrame(when, m.sampleRate), m.frames)
}

// renderInto mixes frames [first, last) into m.left/m.right and reports
// whether the source is still alive afterwards.
func (s *source) renderInto(m *Mixer, first, last int64) bool {
	end := min(s.stopFrame, s.endFrame)
	if end <= first {
		return false
	}
	from := max(s.startFrame, first)
	to := min(end, last)
	if from >= to {
		return true
	}

	n := int(to - from)
	lo := int(from - first)
	gains := m.gains[:n]
	s.gain.fill(gains, from, m.sampleRate)

	l, r := m.scratch[:n], m.scratchR[:n]
	if s.buf != nil {
		ratio := float64(s.buf.SampleRate) / float64(m.sampleRate)
		for i := range n {
			pos := s.offsetFrame + float64(from-s.startFrame+int64(i))*ratio
			l[i], r[i] = s.buf.Frame(int(pos))
		}
	} else {
		step := s.freq / float64(m.sampleRate)
		for i := range n {
			l[i] = float32(math.Sin(2 * math.Pi * s.phase))
			_, s.phase = math.Modf(s.phase + step)
		}
		copy(r, l)
	}
	vek32.Mul_Inplace(l, gains)
	vek32.Mul_Inplace(r, gains)
	vek32.Add_Inplace(m.left[lo:lo+n], l)
	vek32.Add_Inplace(m.right[lo:lo+n], r)
	return to < end
}

func (s *source) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}
