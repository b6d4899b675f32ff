package game

import "github.com/zjrosen/eartrainer/internal/theory"

const (
	maxPickTries   = 14
	fallbackOctave = 4
	unknownName    = "—"
)

// PickTarget draws a degree and an octave uniformly, retrying to avoid
// repeating prev. When every try collides it falls back to the first degree
// at octave 4. intn must return a value in [0, n).
func PickTarget(scale *theory.Scale, mode RangeMode, prev *theory.Pitch, intn func(n int) int) Target {
	octaves := mode.Octaves()
	for range maxPickTries {
		d := scale.Degrees[intn(len(scale.Degrees))]
		oct := octaves[intn(len(octaves))]
		p := theory.PitchOf(d.PitchClass, oct)
		if prev != nil && p == *prev {
			continue
		}
		return newTarget(scale, p)
	}
	return newTarget(scale, theory.PitchOf(scale.Degrees[0].PitchClass, fallbackOctave))
}

func newTarget(scale *theory.Scale, p theory.Pitch) Target {
	name := scale.NameFor(p.PitchClass())
	if name == "" {
		name = unknownName
	}
	return Target{Pitch: p, PitchClass: p.PitchClass(), Name: name}
}
