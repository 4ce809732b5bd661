package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeview/tapeview/internal/config"
	"github.com/tapeview/tapeview/internal/tape"
	"github.com/tapeview/tapeview/internal/tui/util"
)

func testTrade(seq int64, symbol string, price float64) tape.Trade {
	return tape.Trade{
		Seq:    seq,
		ID:     string(rune('A'+seq%26)) + "-" + symbol + "-" + decimal.NewFromInt(seq).String(),
		Symbol: symbol,
		Side:   tape.Side(seq % 2),
		Price:  decimal.NewFromFloat(price),
		Size:   decimal.NewFromInt(100),
		Venue:  "IEX",
		At:     time.Unix(1700000000+seq, 0),
	}
}

func testModel(t *testing.T, hasMore bool) *Model {
	t.Helper()
	cfg := &config.Config{Symbols: []string{"AAPL", "MSFT", "NVDA"}}
	m, err := New(context.Background(), cfg, tape.EmptySource{}, nil, hasMore)
	require.NoError(t, err)
	m.width, m.height = 80, 24
	return m
}

// drain runs a command tree and collects every message it produces.
func drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			msgs = append(msgs, drain(t, c)...)
		}
	default:
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestLiveTradePrepends(t *testing.T) {
	t.Parallel()
	m := testModel(t, false)

	m.handleLiveTrade(testTrade(1, "AAPL", 190))
	m.handleLiveTrade(testTrade(2, "MSFT", 410))

	require.Equal(t, 2, m.list.Len())
	assert.Equal(t, "MSFT", m.master[0].Symbol, "newest print first")
	assert.Equal(t, "AAPL", m.master[1].Symbol)
}

func TestHistoryAppendsAndRearmsLoading(t *testing.T) {
	t.Parallel()
	m := testModel(t, true)

	m.list.SetLoading(true)
	m.handleHistory(historyMsg{
		trades:  []tape.Trade{testTrade(5, "AAPL", 190), testTrade(4, "NVDA", 880)},
		hasMore: true,
	})

	assert.False(t, m.list.Loading(), "a settled page re-arms load-more")
	assert.True(t, m.sourceHasMore)
	assert.Equal(t, 2, m.list.Len())
	assert.Equal(t, int64(4), m.master[len(m.master)-1].Seq, "oldest loaded print is last")
}

func TestHistoryErrorReportsAndRearms(t *testing.T) {
	t.Parallel()
	m := testModel(t, true)

	m.list.SetLoading(true)
	cmd := m.handleHistory(historyMsg{err: errors.New("backend down")})

	assert.False(t, m.list.Loading(), "a failed page must allow a retry")
	msgs := drain(t, cmd)
	require.Len(t, msgs, 1)
	require.IsType(t, util.ErrorMsg{}, msgs[0])
}

func TestFilterSwapsCollection(t *testing.T) {
	t.Parallel()
	m := testModel(t, true)
	m.sourceHasMore = true

	m.handleHistory(historyMsg{trades: []tape.Trade{
		testTrade(3, "AAPL", 190),
		testTrade(2, "MSFT", 410),
		testTrade(1, "AAPL", 189),
	}, hasMore: true})

	m.applyFilter("aapl")
	assert.Equal(t, 2, m.list.Len())
	assert.False(t, m.list.HasMore(), "paging is silenced while filtered")

	// Live prints respect the active filter.
	m.handleLiveTrade(testTrade(10, "MSFT", 411))
	assert.Equal(t, 2, m.list.Len())
	m.handleLiveTrade(testTrade(11, "AAPL", 191))
	assert.Equal(t, 3, m.list.Len())

	m.applyFilter("")
	assert.Equal(t, 5, m.list.Len(), "clearing the filter restores the whole tape")
	assert.True(t, m.list.HasMore(), "hasMore restored from the source")
}

func TestFilterMatchesFuzzily(t *testing.T) {
	t.Parallel()
	m := testModel(t, false)

	matched := m.matchSymbols("apl")
	assert.True(t, matched["AAPL"])
	assert.False(t, matched["MSFT"])
}

func TestHistoryWhileFilteredOnlyAddsMatches(t *testing.T) {
	t.Parallel()
	m := testModel(t, true)

	m.handleHistory(historyMsg{trades: []tape.Trade{testTrade(9, "AAPL", 190)}, hasMore: true})
	m.applyFilter("nvda")
	require.Equal(t, 0, m.list.Len())

	m.handleHistory(historyMsg{trades: []tape.Trade{
		testTrade(8, "NVDA", 880),
		testTrade(7, "MSFT", 410),
	}, hasMore: false})

	assert.Equal(t, 1, m.list.Len(), "only matching rows join the filtered view")
	assert.Len(t, m.master, 3, "the master tape keeps everything")
	assert.False(t, m.sourceHasMore)
}

func TestViewBuilds(t *testing.T) {
	t.Parallel()
	m := testModel(t, false)
	m.resize()
	m.handleLiveTrade(testTrade(1, "AAPL", 190))

	v := m.View()
	assert.NotNil(t, v.Layer)
}

func TestScrollPercent(t *testing.T) {
	t.Parallel()
	m := testModel(t, false)

	assert.Equal(t, 100, m.scrollPercent(), "an empty tape is fully scrolled")
}

func TestHeaderView(t *testing.T) {
	t.Parallel()
	m := testModel(t, true)
	m.handleLiveTrade(testTrade(1, "AAPL", 190))

	header := m.headerView()
	assert.Contains(t, header, "tapeview")
	assert.Contains(t, header, "1 prints+", "hasMore marks the count as partial")
}

func TestStatusViewShowsRangeAndFilter(t *testing.T) {
	t.Parallel()
	m := testModel(t, false)
	m.handleHistory(historyMsg{trades: []tape.Trade{
		testTrade(2, "AAPL", 190),
		testTrade(1, "MSFT", 410),
	}})
	m.applyFilter("aapl")

	status := m.statusView()
	assert.Contains(t, status, "filter:aapl")
	assert.Contains(t, status, "/ 1")
}
