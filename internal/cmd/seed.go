package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tapeview/tapeview/internal/config"
	"github.com/tapeview/tapeview/internal/db"
	"github.com/tapeview/tapeview/internal/tape"
)

const seedBatchSize = 500

var seedCmd = &cobra.Command{
	Use:   "seed [count]",
	Short: "Fill the tape database with synthetic prints",
	Long: `Generate synthetic trades into the local tape database so history
paging and replay have something to work with. Appends after any prints
already recorded.`,
	Example: `
# Seed the default 10000 prints
tapeview seed

# Seed a deep tape
tapeview seed 100000
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 10000
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("count must be a positive integer, got %q", args[0])
			}
			count = n
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err := config.Init(cwd, false)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		conn, err := db.Connect(ctx, cfg.DataDirectory())
		if err != nil {
			return err
		}
		defer conn.Close()
		store := db.NewTradeStore(conn)

		latest, err := store.LatestSeq(ctx)
		if err != nil {
			return err
		}

		if err := seedTape(ctx, cfg, store, latest, count); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\rseeded %d/%d prints\n", count, count)
		return nil
	},
}

// seedTape walks the generator's deterministic history oldest-first and
// inserts it in batches, offsetting sequence numbers past whatever the
// database already holds.
func seedTape(ctx context.Context, cfg *config.Config, store *db.TradeStore, latest int64, count int) error {
	opts := []tape.GenOption{
		tape.WithSymbols(cfg.Symbols),
		tape.WithDepth(int64(count)),
	}
	if seed := cfg.FeedSeed(); seed != 0 {
		opts = append(opts, tape.WithSeed(seed))
	}
	gen := tape.NewGenerator(opts...)

	done := 0
	for seq := int64(1); seq <= int64(count); seq += seedBatchSize {
		top := min(seq+seedBatchSize, int64(count)+1)

		// History pages are newest-first; ask for exactly this chunk and
		// flip it back into tape order.
		page, _, err := gen.History(ctx, top, int(top-seq))
		if err != nil {
			return err
		}
		batch := make([]tape.Trade, 0, len(page))
		for i := len(page) - 1; i >= 0; i-- {
			t := page[i]
			t.Seq += latest
			t.ID = fmt.Sprintf("S-%012d", t.Seq)
			batch = append(batch, t)
		}
		if err := store.InsertBatch(ctx, batch); err != nil {
			return err
		}

		done += len(batch)
		fmt.Fprintf(os.Stderr, "\rseeded %d/%d prints", done, count)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
