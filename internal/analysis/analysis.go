// Package analysis checks decoded samples against the pitch they are
// supposed to sound.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/ktye/fft"

	"github.com/zjrosen/eartrainer/internal/audio"
	"github.com/zjrosen/eartrainer/internal/theory"
)

const (
	// WindowSize is the FFT length. It must be a power of two.
	WindowSize = 16384
	// Tolerance is the relative distance from a harmonic still accepted.
	Tolerance = 0.03
	// MaxHarmonic is the highest harmonic a peak may be matched to.
	MaxHarmonic = 8
	// skip ignores the attack of the sample.
	skip = 0.05
)

// ErrEmpty is returned for buffers without samples.
var ErrEmpty = errors.New("analysis: empty buffer")

// Result is the outcome of checking one sample.
type Result struct {
	Expected float64
	Peak     float64
	// Harmonic is the multiple of Expected closest to Peak.
	Harmonic int
	// Deviation is the relative distance of Peak from that multiple.
	Deviation float64
	OK        bool
}

func (r Result) String() string {
	status := "ok"
	if !r.OK {
		status = "off"
	}
	return fmt.Sprintf("expected %.1fHz peak %.1fHz (h%d, %+.1f%%) %s",
		r.Expected, r.Peak, r.Harmonic, r.Deviation*100, status)
}

// Analyzer holds an FFT plan and scratch space. It is not safe for
// concurrent use.
type Analyzer struct {
	fft    fft.FFT
	window []float64
	buf    []complex128
}

// New creates an Analyzer with a Hann window of WindowSize.
func New() (*Analyzer, error) {
	plan, err := fft.New(WindowSize)
	if err != nil {
		return nil, fmt.Errorf("creating fft: %w", err)
	}
	window := make([]float64, WindowSize)
	for i := range window {
		window[i] = (1 - math.Cos(2*math.Pi*float64(i)/float64(WindowSize))) / 2
	}
	return &Analyzer{fft: plan, window: window, buf: make([]complex128, WindowSize)}, nil
}

// PeakFrequency returns the strongest frequency in buf, skipping the first
// 50ms. Short buffers are zero padded.
func (a *Analyzer) PeakFrequency(buf *audio.Buffer) (float64, error) {
	frames := buf.Frames()
	if frames == 0 || buf.SampleRate <= 0 {
		return 0, ErrEmpty
	}
	start := int(skip * float64(buf.SampleRate))
	if start+WindowSize > frames {
		start = max(0, frames-WindowSize)
	}
	for i := range a.buf {
		var v float64
		if f := start + i; f < frames {
			l, r := buf.Frame(f)
			v = float64(l+r) / 2
		}
		a.buf[i] = complex(v*a.window[i], 0)
	}
	bins := a.fft.Transform(a.buf)

	peak, peakMag := 0, 0.0
	for i := 1; i < WindowSize/2; i++ {
		if m := cmplx.Abs(bins[i]); m > peakMag {
			peak, peakMag = i, m
		}
	}
	if peakMag == 0 {
		return 0, ErrEmpty
	}

	// Parabolic interpolation between neighbouring bins.
	bin := float64(peak)
	if peak > 1 && peak < WindowSize/2-1 {
		l := cmplx.Abs(bins[peak-1])
		r := cmplx.Abs(bins[peak+1])
		if d := l - 2*peakMag + r; d != 0 {
			bin += 0.5 * (l - r) / d
		}
	}
	return bin * float64(buf.SampleRate) / WindowSize, nil
}

// Check compares the peak of buf with expected Hz.
func (a *Analyzer) Check(buf *audio.Buffer, expected float64) (Result, error) {
	peak, err := a.PeakFrequency(buf)
	if err != nil {
		return Result{Expected: expected}, err
	}
	return Match(expected, peak), nil
}

// CheckPitch compares the peak of buf with the frequency of p.
func (a *Analyzer) CheckPitch(buf *audio.Buffer, p theory.Pitch) (Result, error) {
	return a.Check(buf, theory.Frequency(p))
}

// Match finds the harmonic of expected nearest to peak.
func Match(expected, peak float64) Result {
	r := Result{Expected: expected, Peak: peak, Harmonic: 1, Deviation: math.Inf(1)}
	for h := 1; h <= MaxHarmonic; h++ {
		target := expected * float64(h)
		dev := (peak - target) / target
		if math.Abs(dev) < math.Abs(r.Deviation) {
			r.Harmonic, r.Deviation = h, dev
		}
	}
	r.OK = math.Abs(r.Deviation) <= Tolerance
	return r
}
