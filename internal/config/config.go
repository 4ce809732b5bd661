package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/sjson"
)

const (
	appName = "tapeview"

	defaultRowHeight     = 1
	defaultBuffer        = 5
	defaultLoadThreshold = 8
	defaultInterval      = 400 * time.Millisecond
	defaultHistoryDepth  = 50000
	defaultPageSize      = 200
)

var defaultSymbols = []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN"}

// TUIOptions tune the tape list. Zero values mean "use the default";
// Buffer and LoadThreshold are pointers because zero is a legal setting
// for both.
type TUIOptions struct {
	RowHeight     int  `json:"row_height,omitempty"`
	Buffer        *int `json:"buffer,omitempty"`
	LoadThreshold *int `json:"load_threshold,omitempty"`
	HideScrollbar bool `json:"hide_scrollbar,omitempty"`
	DisableMouse  bool `json:"disable_mouse,omitempty"`
}

// FeedOptions tune the synthetic exchange feed.
type FeedOptions struct {
	IntervalMS   int64  `json:"interval_ms,omitempty"`
	Seed         uint64 `json:"seed,omitempty"`
	HistoryDepth int    `json:"history_depth,omitempty"`
	PageSize     int    `json:"page_size,omitempty"`
}

// Alert holds price thresholds for one symbol. A zero threshold is
// disarmed.
type Alert struct {
	Above decimal.Decimal `json:"above,omitempty"`
	Below decimal.Decimal `json:"below,omitempty"`
}

type Alerts map[string]Alert

type SymbolAlert struct {
	Symbol string `json:"symbol"`
	Alert  Alert  `json:"alert"`
}

func (a Alerts) Sorted() []SymbolAlert {
	sorted := make([]SymbolAlert, 0, len(a))
	for k, v := range a {
		sorted = append(sorted, SymbolAlert{
			Symbol: k,
			Alert:  v,
		})
	}
	slices.SortFunc(sorted, func(x, y SymbolAlert) int {
		return strings.Compare(x.Symbol, y.Symbol)
	})
	return sorted
}

type Options struct {
	Debug         bool   `json:"debug,omitempty"`
	DataDirectory string `json:"data_directory,omitempty"` // Relative paths resolve against the cwd
}

// Config holds the configuration for tapeview.
type Config struct {
	// Symbols on the tape.
	Symbols []string `json:"symbols,omitempty"`

	TUI *TUIOptions `json:"tui,omitempty"`

	Feed *FeedOptions `json:"feed,omitempty"`

	// Alerts keyed by symbol.
	Alerts Alerts `json:"alerts,omitempty"`

	Options *Options `json:"options,omitempty"`

	// Internal
	workingDir    string `json:"-"`
	dataConfigDir string `json:"-"`
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

// DataDirectory resolves where the trade database and logs live.
func (c *Config) DataDirectory() string {
	if c.Options != nil && c.Options.DataDirectory != "" {
		if filepath.IsAbs(c.Options.DataDirectory) {
			return c.Options.DataDirectory
		}
		return filepath.Join(c.workingDir, c.Options.DataDirectory)
	}
	return filepath.Dir(GlobalConfigData())
}

func (c *Config) Debug() bool {
	return c.Options != nil && c.Options.Debug
}

func (c *Config) RowHeight() int {
	if c.TUI == nil || c.TUI.RowHeight == 0 {
		return defaultRowHeight
	}
	return c.TUI.RowHeight
}

func (c *Config) Buffer() int {
	if c.TUI == nil || c.TUI.Buffer == nil {
		return defaultBuffer
	}
	return *c.TUI.Buffer
}

func (c *Config) LoadThreshold() int {
	if c.TUI == nil || c.TUI.LoadThreshold == nil {
		return defaultLoadThreshold
	}
	return *c.TUI.LoadThreshold
}

func (c *Config) Scrollbar() bool {
	return c.TUI == nil || !c.TUI.HideScrollbar
}

func (c *Config) Mouse() bool {
	return c.TUI == nil || !c.TUI.DisableMouse
}

func (c *Config) FeedInterval() time.Duration {
	if c.Feed == nil || c.Feed.IntervalMS == 0 {
		return defaultInterval
	}
	return time.Duration(c.Feed.IntervalMS) * time.Millisecond
}

func (c *Config) FeedSeed() uint64 {
	if c.Feed == nil {
		return 0
	}
	return c.Feed.Seed
}

func (c *Config) HistoryDepth() int {
	if c.Feed == nil || c.Feed.HistoryDepth == 0 {
		return defaultHistoryDepth
	}
	return c.Feed.HistoryDepth
}

func (c *Config) PageSize() int {
	if c.Feed == nil || c.Feed.PageSize == 0 {
		return defaultPageSize
	}
	return c.Feed.PageSize
}

// Validate surfaces configuration errors at startup instead of letting
// the list component fail later.
func (c *Config) Validate() error {
	if c.TUI != nil {
		if c.TUI.RowHeight < 0 {
			return fmt.Errorf("config: tui.row_height must be positive, got %d", c.TUI.RowHeight)
		}
		if c.TUI.Buffer != nil && *c.TUI.Buffer < 0 {
			return fmt.Errorf("config: tui.buffer must not be negative, got %d", *c.TUI.Buffer)
		}
		if c.TUI.LoadThreshold != nil && *c.TUI.LoadThreshold < 0 {
			return fmt.Errorf("config: tui.load_threshold must not be negative, got %d", *c.TUI.LoadThreshold)
		}
	}
	if c.Feed != nil {
		if c.Feed.IntervalMS < 0 {
			return fmt.Errorf("config: feed.interval_ms must be positive, got %d", c.Feed.IntervalMS)
		}
		if c.Feed.HistoryDepth < 0 {
			return fmt.Errorf("config: feed.history_depth must not be negative, got %d", c.Feed.HistoryDepth)
		}
		if c.Feed.PageSize < 0 {
			return fmt.Errorf("config: feed.page_size must be positive, got %d", c.Feed.PageSize)
		}
	}
	for _, symbol := range c.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("config: symbols must not be blank")
		}
	}
	for symbol, alert := range c.Alerts {
		if alert.Above.IsNegative() || alert.Below.IsNegative() {
			return fmt.Errorf("config: alert thresholds for %s must not be negative", symbol)
		}
	}
	return nil
}

// SetScrollbar toggles the scrollbar gutter and persists the choice.
func (c *Config) SetScrollbar(visible bool) error {
	if c.TUI == nil {
		c.TUI = &TUIOptions{}
	}
	c.TUI.HideScrollbar = !visible
	return c.SetConfigField("tui.hide_scrollbar", !visible)
}

func (c *Config) SetConfigField(key string, value any) error {
	data, err := os.ReadFile(c.dataConfigDir)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.dataConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.dataConfigDir, []byte(newValue), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
