package resolver

import (
	"fmt"
	"path"

	"github.com/zjrosen/eartrainer/internal/theory"
)

// UnknownLocator is reported for pitches with no sample stem.
const UnknownLocator = "(unknown)"

var stems = [12]string{
	"c", "csharp", "d", "dsharp", "e", "f",
	"fsharp", "g", "gsharp", "a", "asharp", "b",
}

// Stem returns the file stem for a pitch class, e.g. "fsharp" for 6.
func Stem(pc int) (string, bool) {
	if pc < 0 || pc >= len(stems) {
		return "", false
	}
	return stems[pc], true
}

// Locator returns the sample path for p under dir: "<dir>/<stem><octave>.mp3".
func Locator(dir string, p theory.Pitch) (string, bool) {
	stem, ok := Stem(p.PitchClass())
	if !ok {
		return UnknownLocator, false
	}
	return path.Join(dir, fmt.Sprintf("%s%d.mp3", stem, p.Octave())), true
}
