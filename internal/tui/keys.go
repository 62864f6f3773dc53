package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Pause   key.Binding
	Step    key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Restart key.Binding
	Quit    key.Binding
}

var Keys = KeyMap{
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("space", "pause"),
	),
	Step: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n/→", "step"),
	),
	Faster: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "faster"),
	),
	Slower: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "slower"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restart"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Faster, k.Slower, k.Restart, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
