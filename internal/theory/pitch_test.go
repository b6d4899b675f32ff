package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPitch_ClassAndOctave(t *testing.T) {
	tests := []struct {
		p      Pitch
		pc     int
		octave int
	}{
		{0, 0, 0},
		{36, 0, 3},
		{57, 9, 4},
		{71, 11, 5},
		{-1, 11, -1},
		{-12, 0, -1},
		{-13, 11, -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.pc, tt.p.PitchClass(), "pitch class of %d", tt.p)
		assert.Equal(t, tt.octave, tt.p.Octave(), "octave of %d", tt.p)
	}
}

func TestFrequency(t *testing.T) {
	require.InDelta(t, 440.0, Frequency(57), 1e-9)
	require.InDelta(t, 880.0, Frequency(69), 1e-9)
	require.InDelta(t, 130.8128, Frequency(36), 1e-3)
}

func TestProperty_PitchRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Pitch(rapid.IntRange(-240, 240).Draw(t, "pitch"))
		if got := PitchOf(p.PitchClass(), p.Octave()); got != p {
			t.Fatalf("PitchOf(%d, %d) = %d, want %d", p.PitchClass(), p.Octave(), got, p)
		}
		if pc := p.PitchClass(); pc < 0 || pc > 11 {
			t.Fatalf("pitch class %d out of range", pc)
		}
	})
}

func TestKeyLabels(t *testing.T) {
	require.Len(t, KeyOptions(), 12)
	require.Equal(t, "C#/Db Major", KeyLabel("Db"))
	require.Equal(t, "C Major", KeyLabel("C"))
	require.Equal(t, "Cb Major", KeyLabel("Cb"))
	require.True(t, IsKeyOption("Gb"))
	require.False(t, IsKeyOption("F#"))
}

func TestDegreeLabel(t *testing.T) {
	got := []string{}
	for n := 1; n <= 7; n++ {
		got = append(got, DegreeLabel(n))
	}
	require.Equal(t, []string{"1st", "2nd", "3rd", "4th", "5th", "6th", "7th"}, got)
}
