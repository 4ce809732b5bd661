// Package tape models a time-and-sales feed: an append-only stream of
// executed trades, newest first, with keyset paging into the past.
package tape

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the aggressor side of a trade.
type Side int8

const (
	SideBuy Side = iota
	SideSell
)

// String returns the tape notation for the side.
func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// MarshalJSON encodes the side as its tape notation.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes the tape notation.
func (s *Side) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"BUY"`:
		*s = SideBuy
	case `"SELL"`:
		*s = SideSell
	default:
		return fmt.Errorf("tape: unknown side %s", data)
	}
	return nil
}

// Trade is one print on the tape. Seq is the feed's monotonically
// increasing sequence number and orders the tape; ID is the venue's
// execution identifier and is unique across the feed.
type Trade struct {
	Seq    int64           `json:"seq"`
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"`
	Side   Side            `json:"side"`
	Price  decimal.Decimal `json:"price"`
	Size   decimal.Decimal `json:"size"`
	Venue  string          `json:"venue"`
	At     time.Time       `json:"at"`
}

// Key returns the trade's stable identity.
func (t Trade) Key() string {
	return t.ID
}

// Notional returns price times size.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Size)
}
