package tui

import "github.com/charmbracelet/bubbles/v2/key"

// KeyMap holds the application-level bindings. Scrolling belongs to the
// tape list and is not duplicated here.
type KeyMap struct {
	Filter      key.Binding
	CloseFilter key.Binding
	Scrollbar   key.Binding
	Latest      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter symbols"),
		),
		CloseFilter: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Scrollbar: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle scrollbar"),
		),
		Latest: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "jump to latest"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Latest, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Filter, k.CloseFilter, k.Latest},
		{k.Scrollbar, k.Help, k.Quit},
	}
}
