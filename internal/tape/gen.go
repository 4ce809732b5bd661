package tape

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"

	"github.com/tapeview/tapeview/internal/pubsub"
)

// Generator defaults.
const (
	DefaultInterval = 400 * time.Millisecond
	DefaultDepth    = 50000
	defaultGap      = 250 * time.Millisecond
)

var defaultSymbols = []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN"}

var venues = []string{"NSDQ", "NYSE", "ARCA", "IEX", "BATS"}

// GenOption configures a Generator.
type GenOption func(*Generator)

// WithSymbols sets the symbols printed on the tape.
func WithSymbols(symbols []string) GenOption {
	return func(g *Generator) {
		if len(symbols) > 0 {
			g.symbols = symbols
		}
	}
}

// WithInterval sets the pace of live prints.
func WithInterval(d time.Duration) GenOption {
	return func(g *Generator) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithSeed fixes the feed's randomness. Two generators with the same
// seed, symbols and depth produce identical history.
func WithSeed(seed uint64) GenOption {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithDepth sets how many historical prints exist before the live
// stream starts.
func WithDepth(n int64) GenOption {
	return func(g *Generator) {
		if n >= 0 {
			g.depth = n
		}
	}
}

// Generator is a synthetic tape feed. Historical prints are derived
// purely from the seed and sequence number, so any page can be
// regenerated on demand without storing it; live prints continue the
// same sequence in real time and are published to subscribers.
type Generator struct {
	*pubsub.Broker[Trade]

	symbols  []string
	interval time.Duration
	seed     uint64
	depth    int64

	mu      sync.Mutex
	nextSeq int64
	epoch   time.Time
}

// NewGenerator builds a feed with depth historical prints ending now.
func NewGenerator(opts ...GenOption) *Generator {
	g := &Generator{
		Broker:   pubsub.NewBroker[Trade](),
		symbols:  defaultSymbols,
		interval: DefaultInterval,
		seed:     uint64(time.Now().UnixNano()),
		depth:    DefaultDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.nextSeq = g.depth + 1
	g.epoch = time.Now()
	return g
}

// Run prints live trades until the context is cancelled.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	slog.Info("tape generator running", "symbols", len(g.symbols), "depth", g.depth, "interval", g.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tape generator stopped")
			return
		case <-ticker.C:
			t := g.nextLive()
			g.Publish(pubsub.CreatedEvent, t)
		}
	}
}

func (g *Generator) nextLive() Trade {
	g.mu.Lock()
	seq := g.nextSeq
	g.nextSeq++
	g.mu.Unlock()

	t := g.print(seq)
	t.ID = uuid.NewString()
	t.At = time.Now()
	return t
}

// History implements Source. Pages are deterministic: the same page can
// be requested any number of times and compares equal.
func (g *Generator) History(ctx context.Context, beforeSeq int64, limit int) ([]Trade, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if limit <= 0 {
		return nil, false, nil
	}

	if beforeSeq <= 0 {
		g.mu.Lock()
		beforeSeq = g.nextSeq
		g.mu.Unlock()
	}

	trades := make([]Trade, 0, limit)
	for seq := beforeSeq - 1; seq >= 1 && len(trades) < limit; seq-- {
		trades = append(trades, g.print(seq))
	}
	hasMore := beforeSeq-int64(limit) > 1
	return trades, hasMore, nil
}

// print derives the trade with the given sequence number. Everything
// but the live ID and timestamp comes from (seed, seq) alone.
func (g *Generator) print(seq int64) Trade {
	r := rand.New(rand.NewPCG(g.seed, uint64(seq)))

	symbol := g.symbols[r.IntN(len(g.symbols))]
	side := Side(r.IntN(2))

	// Price wanders inside a band around a per-symbol base so the tape
	// looks alive without any shared state between prints.
	base := basePrice(symbol)
	drift := (r.Float64()*2 - 1) * 0.004
	price := decimal.NewFromFloat(base * (1 + drift)).Round(2)

	size := decimal.NewFromInt(int64(lotSizes[r.IntN(len(lotSizes))] * (1 + r.IntN(9))))

	return Trade{
		Seq:    seq,
		ID:     fmt.Sprintf("H-%012d", seq),
		Symbol: symbol,
		Side:   side,
		Price:  price,
		Size:   size,
		Venue:  venues[r.IntN(len(venues))],
		At:     g.epoch.Add(-time.Duration(g.depth-seq+1) * defaultGap),
	}
}

var lotSizes = []int{100, 100, 100, 200, 300, 500, 1000}

// basePrice maps a symbol to a stable price between $25 and $500.
func basePrice(symbol string) float64 {
	return 25 + float64(xxh3.HashString(symbol)%47500)/100
}
