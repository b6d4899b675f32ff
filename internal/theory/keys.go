package theory

import "fmt"

// KeyOption is a selectable major key and its display label.
type KeyOption struct {
	Key   string
	Label string
}

var keyOptions = []KeyOption{
	{"C", "C"},
	{"Db", "C#/Db"},
	{"D", "D"},
	{"Eb", "D#/Eb"},
	{"E", "E"},
	{"F", "F"},
	{"Gb", "F#/Gb"},
	{"G", "G"},
	{"Ab", "G#/Ab"},
	{"A", "A"},
	{"Bb", "A#/Bb"},
	{"B", "B"},
}

// KeyOptions returns the twelve selectable keys in chromatic order.
func KeyOptions() []KeyOption {
	out := make([]KeyOption, len(keyOptions))
	copy(out, keyOptions)
	return out
}

// IsKeyOption reports whether key is one of KeyOptions.
func IsKeyOption(key string) bool {
	for _, o := range keyOptions {
		if o.Key == key {
			return true
		}
	}
	return false
}

// KeyLabel returns the display label for key, e.g. "C#/Db Major". Unknown
// keys are labelled with the key itself.
func KeyLabel(key string) string {
	for _, o := range keyOptions {
		if o.Key == key {
			return o.Label + " Major"
		}
	}
	return key + " Major"
}

// DegreeLabel returns the ordinal label of a scale degree: "1st".."7th".
func DegreeLabel(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
