package play

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the game's key bindings.
type KeyMap struct {
	Next    key.Binding
	Degree  key.Binding
	Letter  key.Binding
	Replay  key.Binding
	Scale   key.Binding
	Tonic   key.Binding
	PrevKey key.Binding
	NextKey key.Binding
	Range   key.Binding
	Restart key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// Keys is the default key map.
var Keys = KeyMap{
	Next: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "start / next note"),
	),
	Degree: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7"),
		key.WithHelp("1-7", "answer by degree"),
	),
	Letter: key.NewBinding(
		key.WithKeys("a", "b", "c", "d", "e", "f", "g"),
		key.WithHelp("a-g", "answer by letter"),
	),
	Replay: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "replay note"),
	),
	Scale: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "reference scale"),
	),
	Tonic: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tonic"),
	),
	PrevKey: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "previous key"),
	),
	NextKey: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next key"),
	),
	Range: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "toggle range"),
	),
	Restart: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset score"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp is shown under the board.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Degree, k.Replay, k.Help, k.Quit}
}

// FullHelp lists every binding.
func (k KeyMap) FullHelp() []key.Binding {
	return []key.Binding{
		k.Next, k.Degree, k.Letter, k.Replay, k.Scale, k.Tonic,
		k.PrevKey, k.NextKey, k.Range, k.Restart, k.Help, k.Quit,
	}
}
