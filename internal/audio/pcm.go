package audio

import (
	"encoding/binary"
	"math"
)

// AppendInt16LE converts float samples to clamped signed 16-bit little-endian
// PCM, appending to dst.
func AppendInt16LE(dst []byte, samples []float32) []byte {
	for _, v := range samples {
		var iv int16
		switch {
		case v < -1:
			iv = -math.MaxInt16
		case v > 1:
			iv = math.MaxInt16
		default:
			iv = int16(v * math.MaxInt16)
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(iv))
	}
	return dst
}

// Read renders enough stereo frames to fill p with 16-bit little-endian PCM.
// It never returns an error, so an output device can pull from it for as
// long as the graph is open.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	buf := make([]float32, frames*2)
	m.Render(buf)
	out := AppendInt16LE(p[:0], buf)
	return len(out), nil
}
