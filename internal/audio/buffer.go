package audio

import "time"

// Buffer holds decoded PCM audio as interleaved float32 samples in [-1, 1].
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float32
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(b.Frames()) * int64(time.Second) / int64(b.SampleRate))
}

// Frame returns the left and right sample at frame i. Mono buffers return
// the same value on both sides; out-of-range frames are silent.
func (b *Buffer) Frame(i int) (float32, float32) {
	if i < 0 || i >= b.Frames() {
		return 0, 0
	}
	base := i * b.Channels
	if b.Channels == 1 {
		return b.Data[base], b.Data[base]
	}
	return b.Data[base], b.Data[base+1]
}
