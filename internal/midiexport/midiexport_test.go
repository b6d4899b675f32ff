package midiexport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/zjrosen/eartrainer/internal/theory"
)

type note struct {
	key     uint8
	onTick  int64
	offTick int64
}

func readNotes(t *testing.T, s *smf.SMF) []note {
	t.Helper()
	require.Len(t, s.Tracks, 2)

	var (
		notes []note
		abs   int64
		open  = map[uint8]int{}
	)
	for _, ev := range s.Tracks[1] {
		abs += int64(ev.Delta)
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			require.Equal(t, uint8(Velocity), vel)
			open[key] = len(notes)
			notes = append(notes, note{key: key, onTick: abs})
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			i, ok := open[key]
			require.True(t, ok, "note off without note on for %d", key)
			notes[i].offTick = abs
			delete(open, key)
		}
	}
	require.Empty(t, open)
	return notes
}

func TestReferenceScale_RoundTrip(t *testing.T) {
	scale, err := theory.SpellMajorScale("D")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReferenceScale(&buf, scale))

	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, smf.MetricTicks(TicksPerQuarter), s.TimeFormat)

	notes := readNotes(t, s)
	require.Len(t, notes, 8)

	// D3 is pitch 38, MIDI 50.
	wantKeys := []uint8{50, 52, 54, 55, 57, 59, 61, 62}
	for i, n := range notes {
		require.Equal(t, wantKeys[i], n.key, "note %d", i)
		require.Equal(t, int64(i*TicksPerQuarter), n.onTick, "note %d start", i)
		length := n.offTick - n.onTick
		if i == len(notes)-1 {
			require.Equal(t, int64(1280), length)
		} else {
			require.Equal(t, int64(1120), length)
		}
	}

	// At 200 BPM the last note starts 2.1s in.
	require.Equal(t, int64(2_100_000), s.TimeAt(notes[7].onTick))
}

func TestMIDINote(t *testing.T) {
	require.Equal(t, uint8(69), MIDINote(57))
	require.Equal(t, uint8(60), MIDINote(theory.PitchOf(0, 4)))
	require.Equal(t, uint8(0), MIDINote(-40))
	require.Equal(t, uint8(127), MIDINote(500))
}

func TestFileName(t *testing.T) {
	require.Equal(t, "Db_major.mid", FileName("Db"))
	require.Equal(t, "Fsharp_major.mid", FileName("F#"))
}

func TestExportAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "midi")

	written, err := ExportAll(dir)
	require.NoError(t, err)
	require.Len(t, written, len(theory.KeyOptions()))

	data, err := os.ReadFile(filepath.Join(dir, "C_major.mid"))
	require.NoError(t, err)
	require.Equal(t, "MThd", string(data[:4]))
}
