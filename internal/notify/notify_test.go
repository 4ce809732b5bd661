package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotifier(t *testing.T) {
	notifier := New(true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// First crossing per key dispatches, repeats are latched.
	assert.True(t, notifier.Alert(ctx, "NVDA/above", "NVDA above 950.00", "950.55 on NSDQ"))
	assert.False(t, notifier.Alert(ctx, "NVDA/above", "NVDA above 950.00", "951.10 on NYSE"))
	assert.True(t, notifier.Alert(ctx, "NVDA/below", "NVDA below 900.00", "899.90 on ARCA"))

	// Reset rearms every key.
	notifier.Reset()
	assert.True(t, notifier.Alert(ctx, "NVDA/above", "NVDA above 950.00", "952.00 on IEX"))
}

func TestNotifierDisabled(t *testing.T) {
	notifier := New(false)
	ctx := context.Background()

	// Should return immediately without dispatching or latching.
	assert.False(t, notifier.Alert(ctx, "AAPL/below", "AAPL below 170.00", "169.99 on BATS"))
	assert.False(t, notifier.Alert(ctx, "AAPL/below", "AAPL below 170.00", "169.90 on BATS"))
}
