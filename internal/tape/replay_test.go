package tape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayerPlaysBackInOrder(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(WithSeed(7), WithDepth(25))
	r := NewReplayer(gen, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := r.Subscribe(ctx)
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	var got []Trade
	for ev := range events {
		got = append(got, ev.Payload)
		if len(got) == 25 {
			break
		}
	}
	require.NoError(t, <-done)

	require.Len(t, got, 25)
	for i, tr := range got {
		assert.Equal(t, int64(i+1), tr.Seq, "replay must be chronological")
	}
}

func TestReplayerLoadSpansPages(t *testing.T) {
	t.Parallel()

	// Deeper than one replay page so loading walks multiple pages.
	gen := NewGenerator(WithSeed(3), WithDepth(replayPageSize+50))
	r := NewReplayer(gen, time.Millisecond)

	trades, err := r.load(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, replayPageSize+50)
	assert.Equal(t, int64(1), trades[0].Seq)
	assert.Equal(t, int64(replayPageSize+50), trades[len(trades)-1].Seq)
}

func TestEmptySource(t *testing.T) {
	t.Parallel()

	trades, hasMore, err := EmptySource{}.History(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.False(t, hasMore)
}
