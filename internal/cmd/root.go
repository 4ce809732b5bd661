// Package cmd wires the tapeview CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/tapeview/tapeview/internal/config"
	"github.com/tapeview/tapeview/internal/db"
	"github.com/tapeview/tapeview/internal/log"
	"github.com/tapeview/tapeview/internal/pubsub"
	"github.com/tapeview/tapeview/internal/tape"
	"github.com/tapeview/tapeview/internal/tui"
	"github.com/tapeview/tapeview/internal/tui/util"
	"github.com/tapeview/tapeview/internal/update"
	"github.com/tapeview/tapeview/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tapeview",
	Short: "A terminal time-and-sales viewer",
	Long: `Tapeview renders a live trade tape in the terminal: a windowed list
over an unbounded trade history, with incremental paging into the past,
fuzzy symbol filtering and price alerts.`,
	Example: `
# Watch a synthetic tape
tapeview

# Record the tape into the local database while watching
tapeview --db

# Replay a recorded session
tapeview --replay

# Watch specific symbols
tapeview --symbols AAPL,TSLA
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		useDB, _ := cmd.Flags().GetBool("db")
		replay, _ := cmd.Flags().GetBool("replay")
		symbols, _ := cmd.Flags().GetStringSlice("symbols")

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg, err := config.Init(cwd, debug)
		if err != nil {
			return err
		}
		if len(symbols) > 0 {
			cfg.Symbols = normalizeSymbols(symbols)
		}

		logPath, err := log.Setup(cfg.DataDirectory(), cfg.Debug())
		if err != nil {
			return err
		}
		slog.Info("tapeview starting", "version", version.Version, "log", logPath)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		src, feed, hasMore, err := buildFeed(ctx, cfg, useDB, replay)
		if err != nil {
			return err
		}

		model, err := tui.New(ctx, cfg, src, feed, hasMore)
		if err != nil {
			return err
		}
		program := tea.NewProgram(model, programOptions(ctx, cfg)...)

		go watchConfig(ctx, cwd, debug, program)
		go notifyUpdates(ctx, cfg.DataDirectory(), program)

		if _, err := program.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

// programOptions sets up the terminal for the tape: alt screen always,
// cell-motion mouse reporting only when the config wants wheel
// scrolling.
func programOptions(ctx context.Context, cfg *config.Config) []tea.ProgramOption {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	}
	if cfg.Mouse() {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return opts
}

// buildFeed assembles the history source and live feed for the chosen
// mode: synthetic feed only, synthetic feed recorded into the database,
// or a replay of a recorded session.
func buildFeed(ctx context.Context, cfg *config.Config, useDB, replay bool) (tape.Source, pubsub.Subscriber[tape.Trade], bool, error) {
	switch {
	case replay:
		store, err := openStore(ctx, cfg)
		if err != nil {
			return nil, nil, false, err
		}
		count, err := store.Count(ctx)
		if err != nil {
			return nil, nil, false, err
		}
		if count == 0 {
			return nil, nil, false, fmt.Errorf("nothing to replay: the tape database is empty, run `tapeview seed` or `tapeview --db` first")
		}
		rp := tape.NewReplayer(store, cfg.FeedInterval())
		go func() {
			if err := rp.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("replay failed", "error", err)
			}
		}()
		return tape.EmptySource{}, rp, false, nil

	case useDB:
		store, err := openStore(ctx, cfg)
		if err != nil {
			return nil, nil, false, err
		}
		latest, err := store.LatestSeq(ctx)
		if err != nil {
			return nil, nil, false, err
		}
		gen := newGenerator(cfg)
		go gen.Run(ctx)
		go recordFeed(ctx, store, gen)
		return store, gen, latest > 0, nil

	default:
		gen := newGenerator(cfg)
		go gen.Run(ctx)
		return gen, gen, cfg.HistoryDepth() > 0, nil
	}
}

func newGenerator(cfg *config.Config) *tape.Generator {
	opts := []tape.GenOption{
		tape.WithSymbols(cfg.Symbols),
		tape.WithInterval(cfg.FeedInterval()),
		tape.WithDepth(int64(cfg.HistoryDepth())),
	}
	if seed := cfg.FeedSeed(); seed != 0 {
		opts = append(opts, tape.WithSeed(seed))
	}
	return tape.NewGenerator(opts...)
}

func openStore(ctx context.Context, cfg *config.Config) (*db.TradeStore, error) {
	conn, err := db.Connect(ctx, cfg.DataDirectory())
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return db.NewTradeStore(conn), nil
}

// recordFeed persists every live print so the session can be replayed.
func recordFeed(ctx context.Context, store *db.TradeStore, feed pubsub.Subscriber[tape.Trade]) {
	for ev := range feed.Subscribe(ctx) {
		if _, err := store.Insert(ctx, ev.Payload); err != nil && ctx.Err() == nil {
			slog.Error("failed to record trade", "id", ev.Payload.ID, "error", err)
		}
	}
}

// watchConfig pushes settings changes into the running UI.
func watchConfig(ctx context.Context, cwd string, debug bool, program *tea.Program) {
	err := config.Watch(ctx, config.GlobalConfig(), func() {
		fresh, err := config.Load(cwd, debug)
		if err != nil {
			slog.Warn("config reload rejected", "error", err)
			return
		}
		program.Send(tui.ConfigReloadedMsg{Config: fresh})
	})
	if err != nil {
		slog.Warn("config watcher stopped", "error", err)
	}
}

func notifyUpdates(ctx context.Context, dataDir string, program *tea.Program) {
	if info := <-update.CheckAsync(ctx, dataDir); info != nil {
		program.Send(util.InfoMsg(fmt.Sprintf("tapeview %s is available (%s)", info.LatestVersion, info.ReleaseURL)))
	}
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	rootCmd.Flags().Bool("db", false, "Record the live tape into the local database and page history out of it")
	rootCmd.Flags().Bool("replay", false, "Replay the recorded tape instead of generating one")
	rootCmd.Flags().StringSliceP("symbols", "s", nil, "Symbols to put on the tape (overrides config)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug logging")
}

// Execute runs the CLI.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
	); err != nil {
		os.Exit(1)
	}
}
