package theory

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Pitch is a chromatic pitch number: octave*12 + pitch class.
type Pitch int

// PitchClass returns the pitch class in [0, 12).
func (p Pitch) PitchClass() int {
	return Mod12(int(p))
}

// Octave returns the octave number, rounding toward negative infinity.
func (p Pitch) Octave() int {
	o := int(p) / 12
	if int(p)%12 < 0 {
		o--
	}
	return o
}

// PitchOf builds a pitch from a pitch class and octave.
func PitchOf(pc, octave int) Pitch {
	return Pitch(octave*12 + Mod12(pc))
}

// Frequency returns the equal-tempered frequency in Hz, with pitch 57 (A4)
// at 440 Hz.
func Frequency(p Pitch) float64 {
	return 440 * math.Pow(2, float64(int(p)-57)/12)
}

// Mod12 reduces n into [0, 12).
func Mod12(n int) int {
	return ((n % 12) + 12) % 12
}

// Letters in scale order.
var Letters = [7]string{"C", "D", "E", "F", "G", "A", "B"}

var naturalPitchClass = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

var majorSteps = [7]int{0, 2, 4, 5, 7, 9, 11}

// NoteNameToPitchClass parses names such as "C", "f#", "Bb" or "E♭" into a
// pitch class. Each '#' raises by a semitone and each 'b' or '♭' lowers by
// one; other trailing characters are ignored.
func NoteNameToPitchClass(name string) (int, error) {
	s := strings.TrimSpace(name)
	letter, ok := leadingLetter(s)
	if !ok {
		return 0, &InvalidNoteError{Name: name}
	}

	delta := 0
	for _, r := range s[1:] {
		switch r {
		case '#':
			delta++
		case 'b', '♭':
			delta--
		}
	}
	return Mod12(naturalPitchClass[letter] + delta), nil
}

func leadingLetter(s string) (string, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r >= utf8.RuneSelf {
		return "", false
	}
	letter := strings.ToUpper(string(r))
	if _, ok := naturalPitchClass[letter]; !ok {
		return "", false
	}
	return letter, true
}
