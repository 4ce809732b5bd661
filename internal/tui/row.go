package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/shopspring/decimal"

	"github.com/tapeview/tapeview/internal/tape"
)

var (
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	symbolStyle = lipgloss.NewStyle().Bold(true)
	buyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	venueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	blockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// blockNotional marks prints worth calling out on the tape.
var blockNotional = decimal.New(1, 6) // $1,000,000

// renderTrade draws one print. The list clips and pads the result to the
// row width, so only the column layout matters here.
func renderTrade(t tape.Trade, _ int, _ int) string {
	side := buyStyle
	if t.Side == tape.SideSell {
		side = sellStyle
	}

	line := fmt.Sprintf("%s  %s  %s  %s  %s  %s",
		timeStyle.Render(t.At.Format("15:04:05")),
		symbolStyle.Render(fmt.Sprintf("%-6s", t.Symbol)),
		side.Render(fmt.Sprintf("%-4s", t.Side)),
		side.Render(fmt.Sprintf("%10s", t.Price.StringFixed(2))),
		fmt.Sprintf("%7s", t.Size),
		venueStyle.Render(t.Venue),
	)
	if t.Notional().GreaterThanOrEqual(blockNotional) {
		line += blockStyle.Render("  ◆ block")
	}
	return line
}
