// Package mp3 decodes mp3 samples into audio buffers.
package mp3

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/zjrosen/eartrainer/internal/audio"
)

// Decoder decodes mp3 data and resamples it to SampleRate.
type Decoder struct {
	SampleRate int
}

var _ audio.Decoder = (*Decoder)(nil)

// Decode implements audio.Decoder. The output is always stereo.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open mp3 stream: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("cannot decode mp3 stream: %w", err)
	}

	buf := &audio.Buffer{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Data:       int16LEToFloat(raw),
	}
	if d.SampleRate > 0 && d.SampleRate != buf.SampleRate {
		buf = Resample(buf, d.SampleRate)
	}
	return buf, nil
}

func int16LEToFloat(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return out
}

// Resample converts buf to rate by linear interpolation between frames.
func Resample(buf *audio.Buffer, rate int) *audio.Buffer {
	frames := buf.Frames()
	if frames == 0 || rate <= 0 || buf.SampleRate == rate {
		return buf
	}
	ch := buf.Channels
	outFrames := int(int64(frames) * int64(rate) / int64(buf.SampleRate))
	out := &audio.Buffer{SampleRate: rate, Channels: ch, Data: make([]float32, outFrames*ch)}
	step := float64(buf.SampleRate) / float64(rate)
	for i := range outFrames {
		pos := float64(i) * step
		j := int(pos)
		frac := float32(pos - float64(j))
		k := min(j+1, frames-1)
		for c := range ch {
			a := buf.Data[j*ch+c]
			b := buf.Data[k*ch+c]
			out.Data[i*ch+c] = a + (b-a)*frac
		}
	}
	return out
}
