package util

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea/v2"
)

// Model is the interface all top-level components implement.
type Model interface {
	Init() tea.Cmd
	Update(tea.Msg) (tea.Model, tea.Cmd)
	View() string
}

// CmdHandler wraps a message in a command.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// InfoMsg carries a transient message for the status bar.
type InfoMsg string

// ErrorMsg carries an error for the status bar.
type ErrorMsg struct {
	Err error
}

func (e ErrorMsg) Error() string { return e.Err.Error() }

// ReportInfo sends an info message to the status bar.
func ReportInfo(info string) tea.Cmd {
	return CmdHandler(InfoMsg(info))
}

// ReportError logs the error and sends it to the status bar.
func ReportError(err error) tea.Cmd {
	slog.Error("tui error", "error", err)
	return CmdHandler(ErrorMsg{Err: err})
}
