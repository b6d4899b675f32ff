package mp3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/eartrainer/internal/audio"
)

func TestDecode_RejectsGarbage(t *testing.T) {
	d := &Decoder{SampleRate: 44100}
	_, err := d.Decode(context.Background(), []byte("definitely not an mp3 stream"))
	require.Error(t, err)
}

func TestResample_Upsamples(t *testing.T) {
	in := &audio.Buffer{SampleRate: 2, Channels: 1, Data: []float32{0, 1}}

	out := Resample(in, 4)

	require.Equal(t, 4, out.SampleRate)
	require.Equal(t, []float32{0, 0.5, 1, 1}, out.Data)
}

func TestResample_DownsamplesStereo(t *testing.T) {
	in := &audio.Buffer{SampleRate: 4, Channels: 2, Data: []float32{0, 0, 1, -1, 2, -2, 3, -3}}

	out := Resample(in, 2)

	require.Equal(t, []float32{0, 0, 2, -2}, out.Data)
	require.Equal(t, in.Duration(), out.Duration())
}

func TestResample_SameRateIsIdentity(t *testing.T) {
	in := &audio.Buffer{SampleRate: 44100, Channels: 1, Data: []float32{1, 2, 3}}
	require.Same(t, in, Resample(in, 44100))
}

func TestInt16LEToFloat(t *testing.T) {
	got := int16LEToFloat([]byte{0x00, 0x80, 0x00, 0x40, 0xff, 0x7f})
	require.Equal(t, float32(-1), got[0])
	require.Equal(t, float32(0.5), got[1])
	require.InDelta(t, 1, got[2], 1e-4)
}
