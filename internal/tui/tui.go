// Package tui is the tapeview terminal UI: a header, the windowed tape
// list, and a status bar, fed by a live trade stream on one side and
// paged history on the other.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/sahilm/fuzzy"

	"github.com/tapeview/tapeview/internal/config"
	"github.com/tapeview/tapeview/internal/notify"
	"github.com/tapeview/tapeview/internal/pubsub"
	"github.com/tapeview/tapeview/internal/tape"
	"github.com/tapeview/tapeview/internal/tui/components/core/layout"
	"github.com/tapeview/tapeview/internal/tui/components/vlist"
	"github.com/tapeview/tapeview/internal/tui/util"
	"github.com/tapeview/tapeview/internal/version"
)

// The tape list is the screen's resizable, focusable centerpiece.
var (
	_ layout.Sizeable       = (*vlist.List[tape.Trade])(nil)
	_ layout.Focusable      = (*vlist.List[tape.Trade])(nil)
	_ layout.KeyMapProvider = (*vlist.List[tape.Trade])(nil)
)

const historyTimeout = 30 * time.Second

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("57")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// ConfigReloadedMsg carries a freshly loaded configuration into the UI.
// The config watcher sends it from outside the program loop.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type liveTradeMsg tape.Trade

type feedClosedMsg struct{}

type historyMsg struct {
	trades  []tape.Trade
	hasMore bool
	err     error
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx      context.Context
	cfg      *config.Config
	src      tape.Source
	events   <-chan pubsub.Event[tape.Trade]
	notifier *notify.Notifier

	list   *vlist.List[tape.Trade]
	filter textinput.Model
	spin   spinner.Model
	help   help.Model
	keys   KeyMap

	width  int
	height int

	// master is the whole loaded tape, newest first; the list shows
	// either all of it or the filtered view. byKey resolves visibility
	// events back to trades.
	master        []tape.Trade
	byKey         map[string]tape.Trade
	sourceHasMore bool

	filtering bool
	query     string
	matched   map[string]bool

	scrollTop   int
	status      string
	statusIsErr bool
}

// New builds the UI over a history source and an optional live feed.
// hasMore marks whether the source has a first page to offer at all.
func New(ctx context.Context, cfg *config.Config, src tape.Source, feed pubsub.Subscriber[tape.Trade], hasMore bool) (*Model, error) {
	opts := []vlist.Option[tape.Trade]{
		vlist.WithRenderFunc[tape.Trade](renderTrade),
		vlist.WithRowHeight[tape.Trade](cfg.RowHeight()),
		vlist.WithBuffer[tape.Trade](cfg.Buffer()),
		vlist.WithLoadThreshold[tape.Trade](cfg.LoadThreshold()),
		vlist.WithEmptyMessage[tape.Trade]("waiting for prints"),
	}
	if cfg.Scrollbar() {
		opts = append(opts, vlist.WithScrollbar[tape.Trade]())
	}
	if cfg.Mouse() {
		opts = append(opts, vlist.WithMouse[tape.Trade]())
	}
	if hasMore {
		opts = append(opts, vlist.WithHasMore[tape.Trade]())
	}
	list, err := vlist.New(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "symbol"
	filter.CharLimit = 12

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &Model{
		ctx:           ctx,
		cfg:           cfg,
		src:           src,
		notifier:      notify.New(len(cfg.Alerts) > 0),
		list:          list,
		filter:        filter,
		spin:          spin,
		help:          help.New(),
		keys:          DefaultKeyMap(),
		byKey:         make(map[string]tape.Trade),
		sourceHasMore: hasMore,
	}
	if feed != nil {
		m.events = feed.Subscribe(ctx)
	}
	return m, nil
}

// Init implements tea.Model. The list's first frame requests the opening
// history page on its own.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.list.Init()}
	if m.events != nil {
		cmds = append(cmds, m.nextTrade())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, m.resize()

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.list.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case liveTradeMsg:
		return m, m.handleLiveTrade(tape.Trade(msg))

	case feedClosedMsg:
		m.setStatus("live feed ended", false)
		return m, nil

	case vlist.LoadMoreMsg:
		return m, tea.Batch(m.spin.Tick, m.fetchHistory())

	case historyMsg:
		return m, m.handleHistory(msg)

	case vlist.ScrollMsg:
		m.scrollTop = msg.Top
		return m, nil

	case vlist.ItemVisibleMsg:
		m.checkAlert(msg)
		return m, nil

	case vlist.ItemHiddenMsg:
		slog.Debug("row hidden", "key", msg.Key, "index", msg.Index)
		return m, nil

	case ConfigReloadedMsg:
		return m, m.applyConfig(msg.Config)

	case util.InfoMsg:
		m.setStatus(string(msg), false)
		return m, nil

	case util.ErrorMsg:
		m.setStatus(msg.Error(), true)
		return m, nil
	}

	// Everything else, frame ticks and mouse wheel included, drives the
	// list.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch {
		case key.Matches(msg, m.keys.CloseFilter):
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			return m, tea.Batch(m.applyFilter(""), m.resize())
		case msg.String() == "enter":
			// Keep the filter, hand the keyboard back to the list.
			m.filtering = false
			m.filter.Blur()
			return m, m.resize()
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			if q := m.filter.Value(); q != m.query {
				return m, tea.Batch(cmd, m.applyFilter(q))
			}
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.list.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, tea.Batch(m.filter.Focus(), m.resize())
	case key.Matches(msg, m.keys.CloseFilter):
		if m.query == "" {
			return m, nil
		}
		m.filter.SetValue("")
		return m, m.applyFilter("")
	case key.Matches(msg, m.keys.Scrollbar):
		show := !m.list.Scrollbar()
		if err := m.cfg.SetScrollbar(show); err != nil {
			slog.Warn("failed to persist scrollbar setting", "error", err)
		}
		return m, m.list.SetScrollbar(show)
	case key.Matches(msg, m.keys.Latest):
		// Newest first: the latest print is the top of the tape.
		return m, m.list.GoToTop()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, m.resize()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleLiveTrade(t tape.Trade) tea.Cmd {
	m.master = slices.Insert(m.master, 0, t)
	m.byKey[t.Key()] = t

	cmds := []tea.Cmd{m.nextTrade()}
	if m.query == "" || m.matched[t.Symbol] {
		cmds = append(cmds, m.list.PrependItem(t))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleHistory(msg historyMsg) tea.Cmd {
	// Re-arms load-more either way; a failed page is retried on the next
	// threshold crossing.
	m.list.SetLoading(false)
	if msg.err != nil {
		return util.ReportError(msg.err)
	}

	m.sourceHasMore = msg.hasMore
	m.master = append(m.master, msg.trades...)
	for _, t := range msg.trades {
		m.byKey[t.Key()] = t
	}

	if m.query != "" {
		// Paging stays silenced while filtered; the page is folded into
		// the filtered view if anything matches.
		var matching []tape.Trade
		for _, t := range msg.trades {
			if m.matched[t.Symbol] {
				matching = append(matching, t)
			}
		}
		return m.list.AppendItems(matching...)
	}
	return tea.Batch(
		m.list.AppendItems(msg.trades...),
		m.list.SetHasMore(msg.hasMore),
	)
}

// applyFilter swaps the list's collection between the full tape and the
// trades of fuzzy-matched symbols. Identity-keyed diffing means rows
// that survive the swap emit no visibility events.
func (m *Model) applyFilter(query string) tea.Cmd {
	m.query = query
	if query == "" {
		m.matched = nil
		return tea.Batch(
			m.list.SetHasMore(m.sourceHasMore),
			m.list.SetItems(slices.Clone(m.master)),
		)
	}

	m.matched = m.matchSymbols(query)
	filtered := make([]tape.Trade, 0, len(m.master))
	for _, t := range m.master {
		if m.matched[t.Symbol] {
			filtered = append(filtered, t)
		}
	}
	// No paging through a filtered view: a fetched page might contain no
	// matching rows at all, which would re-trigger load-more forever.
	return tea.Batch(
		m.list.SetHasMore(false),
		m.list.SetItems(filtered),
	)
}

func (m *Model) matchSymbols(query string) map[string]bool {
	seen := make(map[string]bool)
	var symbols []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	for _, s := range m.cfg.Symbols {
		add(s)
	}
	for _, t := range m.master {
		add(t.Symbol)
	}

	matched := make(map[string]bool)
	for _, hit := range fuzzy.Find(strings.ToUpper(query), symbols) {
		matched[symbols[hit.Index]] = true
	}
	return matched
}

func (m *Model) fetchHistory() tea.Cmd {
	var before int64
	if n := len(m.master); n > 0 {
		before = m.master[n-1].Seq
	}
	src, limit, ctx := m.src, m.cfg.PageSize(), m.ctx
	return func() tea.Msg {
		fctx, cancel := context.WithTimeout(ctx, historyTimeout)
		defer cancel()
		trades, hasMore, err := src.History(fctx, before, limit)
		return historyMsg{trades: trades, hasMore: hasMore, err: err}
	}
}

// checkAlert fires a desktop notification when a row entering the
// viewport crosses a configured threshold. The notifier dedupes per
// symbol and direction.
func (m *Model) checkAlert(msg vlist.ItemVisibleMsg) {
	t, ok := m.byKey[msg.Key]
	if !ok {
		return
	}
	alert, ok := m.cfg.Alerts[t.Symbol]
	if !ok {
		return
	}
	if !alert.Above.IsZero() && t.Price.GreaterThanOrEqual(alert.Above) {
		m.notifier.Alert(m.ctx, t.Symbol+":above", "tapeview: "+t.Symbol,
			fmt.Sprintf("%s printed %s, above %s", t.Symbol, t.Price.StringFixed(2), alert.Above.StringFixed(2)))
	}
	if !alert.Below.IsZero() && t.Price.LessThanOrEqual(alert.Below) {
		m.notifier.Alert(m.ctx, t.Symbol+":below", "tapeview: "+t.Symbol,
			fmt.Sprintf("%s printed %s, below %s", t.Symbol, t.Price.StringFixed(2), alert.Below.StringFixed(2)))
	}
}

func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	m.cfg = cfg
	cmd, err := m.list.Reconfigure(cfg.RowHeight(), cfg.Buffer(), cfg.LoadThreshold())
	if err != nil {
		return util.ReportError(err)
	}
	m.notifier.Reset()
	return tea.Batch(
		cmd,
		m.list.SetScrollbar(cfg.Scrollbar()),
		util.ReportInfo("settings reloaded"),
	)
}

func (m *Model) nextTrade() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return feedClosedMsg{}
		}
		return liveTradeMsg(ev.Payload)
	}
}

func (m *Model) setStatus(status string, isErr bool) {
	m.status = status
	m.statusIsErr = isErr
}

// resize gives the list every line the chrome does not need. The
// recompute lands on the list's next frame.
func (m *Model) resize() tea.Cmd {
	reserved := 2 // header + status bar
	if m.filtering {
		reserved++
	}
	if m.help.ShowAll {
		reserved += lipgloss.Height(m.help.View(m.keys))
	}
	return m.list.SetSize(m.width, max(0, m.height-reserved))
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	sections := []string{
		m.headerView(),
		m.list.View(),
	}
	if m.filtering {
		sections = append(sections, m.filter.View())
	}
	sections = append(sections, m.statusView())
	if m.help.ShowAll {
		sections = append(sections, m.help.View(m.keys))
	}

	return tea.NewView(strings.Join(sections, "\n"))
}

func (m *Model) headerView() string {
	total := fmt.Sprintf("%d prints", len(m.master))
	if m.sourceHasMore {
		total += "+"
	}
	left := titleStyle.Render("tapeview") + headerStyle.Render(
		fmt.Sprintf(" %s · %d symbols · %s", version.Version, len(m.cfg.Symbols), total))

	pad := m.width - lipgloss.Width(left)
	if pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	return left
}

func (m *Model) statusView() string {
	var parts []string
	if m.list.Loading() {
		parts = append(parts, m.spin.View()+"loading")
	}

	start, end := m.list.VisibleRange()
	parts = append(parts, fmt.Sprintf("rows %d–%d / %d", start, end, m.list.Len()))
	parts = append(parts, fmt.Sprintf("%d%%", m.scrollPercent()))

	if m.query != "" {
		parts = append(parts, fmt.Sprintf("filter:%s (%d)", m.query, m.list.Len()))
	}
	if m.status != "" {
		if m.statusIsErr {
			parts = append(parts, errStyle.Render(m.status))
		} else {
			parts = append(parts, m.status)
		}
	}
	if !m.help.ShowAll {
		parts = append(parts, m.help.View(m.keys))
	}
	return statusStyle.Render(truncateLine(strings.Join(parts, " · "), m.width))
}

// scrollPercent reports how deep into the loaded tape the viewport sits.
func (m *Model) scrollPercent() int {
	_, h := m.list.GetSize()
	denom := m.list.ContentHeight() - h
	if denom <= 0 {
		return 100
	}
	return min(100, m.scrollTop*100/denom)
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
