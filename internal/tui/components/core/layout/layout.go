package layout

import (
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
)

// Sizeable is implemented by components that can be resized.
type Sizeable interface {
	SetSize(width, height int) tea.Cmd
	GetSize() (int, int)
}

// Focusable is implemented by components that react to keyboard focus.
type Focusable interface {
	Focus() tea.Cmd
	Blur() tea.Cmd
	IsFocused() bool
}

// KeyMapProvider is implemented by components that expose their key
// bindings for help views.
type KeyMapProvider interface {
	KeyBindings() []key.Binding
}
