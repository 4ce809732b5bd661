package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tapeview/tapeview/internal/tape"
)

// Compile-time interface check.
var _ tape.Source = (*TradeStore)(nil)

// TradeStore reads and writes prints in the trades table.
type TradeStore struct {
	db *sql.DB
}

// NewTradeStore wraps an open database.
func NewTradeStore(db *sql.DB) *TradeStore {
	return &TradeStore{db: db}
}

const tradeColumns = "seq, id, symbol, side, price, size, venue, at_ns"

// Insert stores one print. A zero Seq lets the database assign the next
// sequence number; the stored trade is returned either way.
func (s *TradeStore) Insert(ctx context.Context, t tape.Trade) (tape.Trade, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (seq, id, symbol, side, price, size, venue, at_ns)
		VALUES (nullif(?, 0), ?, ?, ?, ?, ?, ?, ?)`,
		t.Seq, t.ID, t.Symbol, int64(t.Side), t.Price.String(), t.Size.String(), t.Venue, t.At.UnixNano(),
	)
	if err != nil {
		return tape.Trade{}, fmt.Errorf("db: insert trade %s: %w", t.ID, err)
	}
	if t.Seq == 0 {
		seq, err := res.LastInsertId()
		if err != nil {
			return tape.Trade{}, fmt.Errorf("db: trade seq: %w", err)
		}
		t.Seq = seq
	}
	return t, nil
}

// InsertBatch stores prints in one transaction, oldest first.
func (s *TradeStore) InsertBatch(ctx context.Context, trades []tape.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (seq, id, symbol, side, price, size, venue, at_ns)
		VALUES (nullif(?, 0), ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("db: prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			t.Seq, t.ID, t.Symbol, int64(t.Side), t.Price.String(), t.Size.String(), t.Venue, t.At.UnixNano(),
		); err != nil {
			return fmt.Errorf("db: insert trade %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// History implements tape.Source with keyset pagination: one extra row
// is fetched to learn whether an older page exists.
func (s *TradeStore) History(ctx context.Context, beforeSeq int64, limit int) ([]tape.Trade, bool, error) {
	if limit <= 0 {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE ?1 <= 0 OR seq < ?1
		ORDER BY seq DESC
		LIMIT ?2`,
		beforeSeq, limit+1,
	)
	if err != nil {
		return nil, false, fmt.Errorf("db: history before %d: %w", beforeSeq, err)
	}
	defer rows.Close()

	trades := make([]tape.Trade, 0, limit)
	hasMore := false
	for rows.Next() {
		if len(trades) == limit {
			hasMore = true
			break
		}
		t, err := scanTrade(rows)
		if err != nil {
			return nil, false, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("db: history rows: %w", err)
	}
	return trades, hasMore, nil
}

// Count returns the number of stored prints.
func (s *TradeStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&n); err != nil {
		return 0, fmt.Errorf("db: count trades: %w", err)
	}
	return n, nil
}

// LatestSeq returns the newest sequence number, zero for an empty tape.
func (s *TradeStore) LatestSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM trades").Scan(&seq); err != nil {
		return 0, fmt.Errorf("db: latest seq: %w", err)
	}
	return seq, nil
}

func scanTrade(rows *sql.Rows) (tape.Trade, error) {
	var (
		t     tape.Trade
		side  int64
		price string
		size  string
		atNS  int64
	)
	if err := rows.Scan(&t.Seq, &t.ID, &t.Symbol, &side, &price, &size, &t.Venue, &atNS); err != nil {
		return tape.Trade{}, fmt.Errorf("db: scan trade: %w", err)
	}

	var err error
	if t.Price, err = decimal.NewFromString(price); err != nil {
		return tape.Trade{}, fmt.Errorf("db: trade %s price: %w", t.ID, err)
	}
	if t.Size, err = decimal.NewFromString(size); err != nil {
		return tape.Trade{}, fmt.Errorf("db: trade %s size: %w", t.ID, err)
	}
	t.Side = tape.Side(side)
	t.At = time.Unix(0, atNS)
	return t, nil
}
