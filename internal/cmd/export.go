package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tapeview/tapeview/internal/config"
	"github.com/tapeview/tapeview/internal/db"
	"github.com/tapeview/tapeview/internal/tape"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded prints",
	Long:  `Dump the trades recorded in the tape database to stdout, newest first.`,
	Example: `
# Everything as JSON
tapeview export

# The last thousand AAPL prints as CSV
tapeview export --format csv --limit 1000 --symbol AAPL
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")
		symbol, _ := cmd.Flags().GetString("symbol")

		trades, err := loadExport(cmd.Context(), limit, symbol)
		if err != nil {
			return err
		}
		return writeExport(trades, format)
	},
}

func loadExport(ctx context.Context, limit int, symbol string) ([]tape.Trade, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Init(cwd, false)
	if err != nil {
		return nil, err
	}

	conn, err := db.Connect(ctx, cfg.DataDirectory())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	store := db.NewTradeStore(conn)

	if limit <= 0 {
		count, err := store.Count(ctx)
		if err != nil {
			return nil, err
		}
		limit = int(count)
	}
	if limit == 0 {
		return nil, nil
	}

	trades, _, err := store.History(ctx, 0, limit)
	if err != nil {
		return nil, err
	}
	if symbol == "" {
		return trades, nil
	}

	symbol = strings.ToUpper(symbol)
	filtered := trades[:0]
	for _, t := range trades {
		if t.Symbol == symbol {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func writeExport(trades []tape.Trade, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(trades, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(trades)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(data))
		return nil
	case "csv":
		w := csv.NewWriter(os.Stdout)
		if err := w.Write([]string{"seq", "id", "symbol", "side", "price", "size", "venue", "at"}); err != nil {
			return err
		}
		for _, t := range trades {
			record := []string{
				strconv.FormatInt(t.Seq, 10),
				t.ID,
				t.Symbol,
				t.Side.String(),
				t.Price.String(),
				t.Size.String(),
				t.Venue,
				t.At.Format("2006-01-02T15:04:05.000Z07:00"),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "json", "Export format (json, yaml, csv)")
	exportCmd.Flags().IntP("limit", "n", 0, "Number of newest prints to export (0 = all)")
	exportCmd.Flags().String("symbol", "", "Only export prints for this symbol")
}
