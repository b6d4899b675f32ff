package play

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestKeys_KeyAssignments(t *testing.T) {
	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"Next uses enter and space", Keys.Next, []string{"enter", " "}},
		{"Degree uses 1-7", Keys.Degree, []string{"1", "2", "3", "4", "5", "6", "7"}},
		{"Letter uses a-g", Keys.Letter, []string{"a", "b", "c", "d", "e", "f", "g"}},
		{"Replay uses r", Keys.Replay, []string{"r"}},
		{"Scale uses s", Keys.Scale, []string{"s"}},
		{"Tonic uses t", Keys.Tonic, []string{"t"}},
		{"PrevKey uses [", Keys.PrevKey, []string{"["}},
		{"NextKey uses ]", Keys.NextKey, []string{"]"}},
		{"Range uses m", Keys.Range, []string{"m"}},
		{"Restart uses x", Keys.Restart, []string{"x"}},
		{"Quit uses q, esc and ctrl+c", Keys.Quit, []string{"q", "esc", "ctrl+c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestKeys_NoOverlap(t *testing.T) {
	seen := map[string]string{}
	for _, b := range Keys.FullHelp() {
		for _, k := range b.Keys() {
			prev, dup := seen[k]
			require.False(t, dup, "%q bound to both %q and %q", k, prev, b.Help().Desc)
			seen[k] = b.Help().Desc
		}
	}
}

func TestKeys_HelpText(t *testing.T) {
	for _, b := range Keys.FullHelp() {
		help := b.Help()
		require.NotEmpty(t, help.Key, "key help should not be empty")
		require.NotEmpty(t, help.Desc, "description should not be empty")
	}
	require.Equal(t, "answer by degree", Keys.Degree.Help().Desc)
}

func TestKeys_ShortHelpIsSubset(t *testing.T) {
	full := map[string]bool{}
	for _, b := range Keys.FullHelp() {
		full[b.Help().Desc] = true
	}
	for _, b := range Keys.ShortHelp() {
		require.True(t, full[b.Help().Desc], "%q missing from full help", b.Help().Desc)
	}
}
