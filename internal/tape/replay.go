package tape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tapeview/tapeview/internal/pubsub"
)

const replayPageSize = 500

// Replayer republishes previously recorded prints as a live feed, oldest
// first, one per interval. The tape starts empty and fills up as the
// replay runs, so the viewer sees the session the way it originally
// unfolded.
type Replayer struct {
	*pubsub.Broker[Trade]

	src      Source
	interval time.Duration
}

// NewReplayer builds a replayer over recorded history.
func NewReplayer(src Source, interval time.Duration) *Replayer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Replayer{
		Broker:   pubsub.NewBroker[Trade](),
		src:      src,
		interval: interval,
	}
}

// Run replays every recorded print and returns when the recording is
// exhausted or the context is cancelled.
func (r *Replayer) Run(ctx context.Context) error {
	trades, err := r.load(ctx)
	if err != nil {
		return err
	}
	slog.Info("replay starting", "trades", len(trades), "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for _, t := range trades {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Publish(pubsub.CreatedEvent, t)
		}
	}
	slog.Info("replay finished", "trades", len(trades))
	return nil
}

// load walks the whole history backwards, then reverses it into
// chronological order.
func (r *Replayer) load(ctx context.Context) ([]Trade, error) {
	var pages [][]Trade
	total := 0

	beforeSeq := int64(0)
	for {
		page, hasMore, err := r.src.History(ctx, beforeSeq, replayPageSize)
		if err != nil {
			return nil, fmt.Errorf("tape: load replay page before %d: %w", beforeSeq, err)
		}
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		total += len(page)
		beforeSeq = page[len(page)-1].Seq
		if !hasMore {
			break
		}
	}

	// Pages are newest-first and so are the trades inside each page.
	trades := make([]Trade, 0, total)
	for i := len(pages) - 1; i >= 0; i-- {
		page := pages[i]
		for j := len(page) - 1; j >= 0; j-- {
			trades = append(trades, page[j])
		}
	}
	return trades, nil
}

// EmptySource is a Source with no history at all. Replay sessions use it
// so the tape fills exclusively from the replayed feed.
type EmptySource struct{}

// History implements Source.
func (EmptySource) History(context.Context, int64, int) ([]Trade, bool, error) {
	return nil, false, nil
}
