package theory

import (
	"fmt"
	"strings"
)

// Degree is one spelled note of a major scale.
type Degree struct {
	Number     int // 1..7
	Name       string
	PitchClass int
}

// Scale is a spelled major scale. It is never mutated after construction.
type Scale struct {
	Key            string
	RootPitchClass int
	Degrees        [7]Degree
}

// SpellMajorScale spells the major scale of key so that each letter A
// through G appears exactly once, in order from the root letter.
func SpellMajorScale(key string) (*Scale, error) {
	root := strings.TrimSpace(key)
	rootLetter, ok := leadingLetter(root)
	if !ok {
		return nil, &InvalidNoteError{Name: key}
	}
	rootPC, err := NoteNameToPitchClass(root)
	if err != nil {
		return nil, err
	}

	rootIdx := 0
	for i, l := range Letters {
		if l == rootLetter {
			rootIdx = i
			break
		}
	}

	s := &Scale{Key: root, RootPitchClass: rootPC}
	for i := range 7 {
		letter := Letters[(rootIdx+i)%7]
		desired := Mod12(rootPC + majorSteps[i])
		diff := desired - naturalPitchClass[letter]
		// Truncated remainder: a diff of -7 or below stays negative here and
		// is folded back by the bounds checks that follow.
		diff = ((diff + 6) % 12) - 6
		if diff > 2 {
			diff -= 12
		}
		if diff < -2 {
			diff += 12
		}
		s.Degrees[i] = Degree{
			Number:     i + 1,
			Name:       letter + accidental(diff),
			PitchClass: desired,
		}
	}
	return s, nil
}

func accidental(diff int) string {
	switch diff {
	case 0:
		return ""
	case 1:
		return "#"
	case 2:
		return "##"
	case -1:
		return "b"
	case -2:
		return "bb"
	}
	if diff > 0 {
		return strings.Repeat("#", diff)
	}
	return strings.Repeat("b", -diff)
}

// Names returns the seven spelled note names in degree order.
func (s *Scale) Names() []string {
	names := make([]string, len(s.Degrees))
	for i, d := range s.Degrees {
		names[i] = d.Name
	}
	return names
}

// PitchClasses returns the seven pitch classes in degree order.
func (s *Scale) PitchClasses() []int {
	pcs := make([]int, len(s.Degrees))
	for i, d := range s.Degrees {
		pcs[i] = d.PitchClass
	}
	return pcs
}

// NameFor returns the spelled name of pc in this scale, or "" when pc is not
// a scale degree.
func (s *Scale) NameFor(pc int) string {
	pc = Mod12(pc)
	for _, d := range s.Degrees {
		if d.PitchClass == pc {
			return d.Name
		}
	}
	return ""
}

// Contains reports whether pc is a degree of the scale.
func (s *Scale) Contains(pc int) bool {
	return s.NameFor(pc) != ""
}

// ReferencePitches returns the ascending scale from the root at octave up to
// the root an octave higher: eight pitches.
func (s *Scale) ReferencePitches(octave int) []Pitch {
	base := PitchOf(s.RootPitchClass, octave)
	out := make([]Pitch, 0, len(majorSteps)+1)
	for _, step := range majorSteps {
		out = append(out, base+Pitch(step))
	}
	return append(out, base+12)
}

// String renders the scale as space-separated note names.
func (s *Scale) String() string {
	return fmt.Sprintf("%s major: %s", s.Key, strings.Join(s.Names(), " "))
}
