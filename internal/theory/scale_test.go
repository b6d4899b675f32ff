package theory

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSpellMajorScale_AllKeyOptions(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"C", "C D E F G A B"},
		{"Db", "Db Eb F Gb Ab Bb C"},
		{"D", "D E F# G A B C#"},
		{"Eb", "Eb F G Ab Bb C D"},
		{"E", "E F# G# A B C# D#"},
		{"F", "F G A Bb C D E"},
		{"Gb", "Gb Ab Bb Cb Db Eb F"},
		{"G", "G A B C D E F#"},
		{"Ab", "Ab Bb C Db Eb F G"},
		{"A", "A B C# D E F# G#"},
		{"Bb", "Bb C D Eb F G A"},
		{"B", "B C# D# E F# G# A#"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, err := SpellMajorScale(tt.key)
			require.NoError(t, err)
			require.Equal(t, tt.want, strings.Join(s.Names(), " "))
		})
	}
}

func TestSpellMajorScale_Db(t *testing.T) {
	s, err := SpellMajorScale("Db")
	require.NoError(t, err)

	require.Equal(t, 1, s.RootPitchClass)
	require.Equal(t, []int{1, 3, 5, 6, 8, 10, 0}, s.PitchClasses())
	for i, d := range s.Degrees {
		require.Equal(t, i+1, d.Number)
	}
}

func TestSpellMajorScale_InvalidKey(t *testing.T) {
	for _, key := range []string{"", "   ", "H", "#C", "♭E", "1"} {
		t.Run(key, func(t *testing.T) {
			s, err := SpellMajorScale(key)
			require.Nil(t, s)
			var invalid *InvalidNoteError
			require.True(t, errors.As(err, &invalid))
			require.Equal(t, key, invalid.Name)
		})
	}
}

func TestSpellMajorScale_TrimsAndIgnoresCase(t *testing.T) {
	s, err := SpellMajorScale("  f# ")
	require.NoError(t, err)
	require.Equal(t, "F#", s.Degrees[0].Name)
	require.Equal(t, "E#", s.Degrees[6].Name)
}

func TestNoteNameToPitchClass(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"C", 0},
		{"c", 0},
		{"C#", 1},
		{"Db", 1},
		{"D♭", 1},
		{"B#", 0},
		{"Cb", 11},
		{"Ebb", 2},
		{"F##", 7},
		{" a ", 9},
		{"G#x", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NoteNameToPitchClass(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNoteNameToPitchClass_Invalid(t *testing.T) {
	_, err := NoteNameToPitchClass("x#")
	require.EqualError(t, err, `invalid note name "x#"`)
}

func TestScale_NameForAndContains(t *testing.T) {
	s, err := SpellMajorScale("Eb")
	require.NoError(t, err)

	require.Equal(t, "Ab", s.NameFor(8))
	require.Equal(t, "Ab", s.NameFor(-4))
	require.Equal(t, "", s.NameFor(4))
	require.True(t, s.Contains(3))
	require.False(t, s.Contains(1))
}

func TestScale_ReferencePitches(t *testing.T) {
	s, err := SpellMajorScale("D")
	require.NoError(t, err)

	got := s.ReferencePitches(3)
	require.Equal(t, []Pitch{38, 40, 42, 43, 45, 47, 49, 50}, got)
}

// TestProperty_SpellingUsesEachLetterOnce verifies that any parseable key
// spells seven degrees whose letters advance cyclically from the root
// letter and whose pitch classes follow the major step pattern.
func TestProperty_SpellingUsesEachLetterOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		letter := rapid.SampledFrom([]string{"A", "B", "C", "D", "E", "F", "G", "a", "c", "g"}).Draw(t, "letter")
		acc := rapid.SampledFrom([]string{"", "#", "b", "♭", "##", "bb"}).Draw(t, "accidental")
		key := letter + acc

		s, err := SpellMajorScale(key)
		if err != nil {
			t.Fatalf("SpellMajorScale(%q): %v", key, err)
		}

		rootPC, _ := NoteNameToPitchClass(key)
		seen := map[byte]bool{}
		for i, d := range s.Degrees {
			if seen[d.Name[0]] {
				t.Fatalf("letter %c repeated in %v", d.Name[0], s.Names())
			}
			seen[d.Name[0]] = true

			if d.PitchClass != Mod12(rootPC+majorSteps[i]) {
				t.Fatalf("degree %d pitch class %d, want %d", i+1, d.PitchClass, Mod12(rootPC+majorSteps[i]))
			}
			if i > 0 {
				prev := strings.Index("CDEFGAB", string(s.Degrees[i-1].Name[0]))
				cur := strings.Index("CDEFGAB", string(d.Name[0]))
				if (prev+1)%7 != cur {
					t.Fatalf("letters do not advance: %v", s.Names())
				}
			}
		}
	})
}

// TestProperty_SpelledNameParsesBack verifies that every spelled degree name
// parses back to its own pitch class.
func TestProperty_SpelledNameParsesBack(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		opt := rapid.SampledFrom(KeyOptions()).Draw(t, "key")
		s, err := SpellMajorScale(opt.Key)
		if err != nil {
			t.Fatalf("SpellMajorScale(%q): %v", opt.Key, err)
		}
		for _, d := range s.Degrees {
			pc, err := NoteNameToPitchClass(d.Name)
			if err != nil || pc != d.PitchClass {
				t.Fatalf("%s parsed to %d (%v), want %d", d.Name, pc, err, d.PitchClass)
			}
		}
	})
}
