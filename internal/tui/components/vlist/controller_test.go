package vlist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, geo Geometry, threshold int) *Controller[keyedRow] {
	t.Helper()
	c, err := NewController[keyedRow](geo, nil, threshold)
	require.NoError(t, err)
	return c
}

func TestNewController(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid geometry", func(t *testing.T) {
		t.Parallel()
		_, err := NewController[int](Geometry{RowHeight: 0, ViewportHeight: 10}, nil, 0)
		assert.ErrorIs(t, err, ErrRowHeight)
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		t.Parallel()
		_, err := NewController[int](Geometry{RowHeight: 1, ViewportHeight: 10}, nil, -1)
		assert.ErrorIs(t, err, ErrLoadThreshold)
	})

	t.Run("starts idle with an empty window", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}, 0)
		assert.True(t, c.Idle())
		assert.Equal(t, Window{}, c.Window())
		assert.Equal(t, 0, c.ScrollTop())
	})
}

func TestControllerSampleGating(t *testing.T) {
	t.Parallel()

	geo := Geometry{RowHeight: 40, ViewportHeight: 400, Buffer: 5}
	rows := Rows(keyedRows(10000))

	t.Run("first sample processes immediately", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		f, schedule := c.Sample(4000, rows)
		assert.True(t, schedule)
		assert.Equal(t, Window{Start: 95, End: 115, Offset: 3800}, f.Window)
		assert.Equal(t, 4000, f.ScrollTop)
		assert.True(t, f.Scrolled)
		assert.False(t, c.Idle())
	})

	t.Run("samples within a frame keep only the latest", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		first, schedule := c.Sample(40, rows)
		require.True(t, schedule)
		require.Equal(t, 40, first.ScrollTop)

		// A burst lands before the next frame; none of these process.
		for _, top := range []int{80, 120, 160, 2000} {
			f, again := c.Sample(top, rows)
			assert.False(t, again)
			assert.Equal(t, 40, f.ScrollTop) // committed state unchanged
		}
		assert.True(t, c.Pending())

		// The step jumps straight to the last sample.
		f, again := c.Step(rows)
		assert.True(t, again)
		assert.Equal(t, 2000, f.ScrollTop)
		assert.True(t, f.Scrolled)
		assert.False(t, c.Pending())

		// Nothing pending: the next step goes idle.
		f, again = c.Step(rows)
		assert.False(t, again)
		assert.False(t, f.Scrolled)
		assert.True(t, c.Idle())
	})

	t.Run("same position twice still runs the pipeline once", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		_, _ = c.Sample(400, rows)
		f, again := c.Sample(400, rows)
		assert.False(t, again)
		assert.True(t, c.Pending())

		f, again = c.Step(rows)
		assert.True(t, again)
		assert.False(t, f.Scrolled) // position did not change
		assert.False(t, f.WindowChanged)
	})

	t.Run("sample clamps out of range positions", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		f, _ := c.Sample(1<<30, rows)
		assert.Equal(t, 399600, f.ScrollTop)

		c2 := newTestController(t, geo, 0)
		f, _ = c2.Sample(-100, rows)
		assert.Equal(t, 0, f.ScrollTop)
		assert.False(t, f.Scrolled)
	})
}

func TestControllerInvalidate(t *testing.T) {
	t.Parallel()

	geo := Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}

	t.Run("recompute happens on the step not inline", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		rows := Rows(keyedRows(50))

		schedule := c.Invalidate()
		assert.True(t, schedule)
		assert.Equal(t, Window{}, c.Window()) // nothing committed yet

		f, again := c.Step(rows)
		assert.True(t, again)
		assert.Equal(t, 0, f.Window.Start)
		assert.Equal(t, 14, f.Window.End) // ceil(10/1)+2*2, clamped by 50
		assert.True(t, f.WindowChanged)
		assert.NotEmpty(t, f.Entered)
	})

	t.Run("bursts of invalidations coalesce into one frame", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		rows := Rows(keyedRows(50))

		assert.True(t, c.Invalidate())
		for i := 0; i < 10; i++ {
			assert.False(t, c.Invalidate()) // already scheduled
		}

		f, again := c.Step(rows)
		assert.True(t, again)
		assert.True(t, f.WindowChanged)

		_, again = c.Step(rows)
		assert.False(t, again)
		assert.True(t, c.Idle())
	})

	t.Run("pending sample wins over a dirty flag", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		rows := Rows(keyedRows(50))

		_, _ = c.Sample(5, rows)
		_, _ = c.Sample(20, rows)
		c.Invalidate()

		f, again := c.Step(rows)
		assert.True(t, again)
		assert.Equal(t, 20, f.ScrollTop) // the sample carries the fresher target
	})

	t.Run("shrink reclamps the scroll position", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		long := Rows(keyedRows(100))
		_, _ = c.Sample(80, long)
		_, again := c.Step(long)
		require.False(t, again)
		require.Equal(t, 80, c.ScrollTop())

		short := Rows(keyedRows(20))
		require.True(t, c.Invalidate())
		f, _ := c.Step(short)
		assert.Equal(t, 10, f.ScrollTop) // maxScroll of 20 rows
		assert.True(t, f.Scrolled)
		assert.Equal(t, 20, f.Window.End)
	})
}

func TestControllerLoadMore(t *testing.T) {
	t.Parallel()

	// 100 rows of height 1, viewport 10, threshold 5: the latch line sits
	// at scrollTop 85 (85+10 >= 100-5).
	geo := Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}

	t.Run("fires once per crossing and latches", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 5)
		c.SetHasMore(true)
		rows := Rows(keyedRows(100))

		f, _ := c.Sample(84, rows)
		assert.False(t, f.LoadMore)
		_, _ = c.Step(rows)

		f, _ = c.Sample(85, rows)
		assert.True(t, f.LoadMore)
		assert.True(t, c.Loading())
		_, _ = c.Step(rows)

		// Still past the line, still loading: no second event.
		f, _ = c.Sample(90, rows)
		assert.False(t, f.LoadMore)
		_, _ = c.Step(rows)

		// Data arriving does not re-arm the latch by itself.
		more := Rows(keyedRows(200))
		c.Invalidate()
		f, _ = c.Step(more)
		assert.False(t, f.LoadMore)
		_, _ = c.Step(more)

		// Only the owner's loading=false re-arms it.
		c.SetLoading(false)
		f, _ = c.Sample(185, more)
		assert.True(t, f.LoadMore)
	})

	t.Run("hasMore false never fires", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 5)
		rows := Rows(keyedRows(100))
		f, _ := c.Sample(95, rows)
		assert.False(t, f.LoadMore)
		assert.False(t, c.Loading())
	})

	t.Run("content shorter than the viewport fires immediately", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 5)
		c.SetHasMore(true)
		rows := Rows(keyedRows(3))

		require.True(t, c.Invalidate())
		f, _ := c.Step(rows)
		assert.True(t, f.LoadMore) // 0+10 >= 3-5
		assert.True(t, c.Loading())
	})

	t.Run("empty collection with more fires on the first frame", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 5)
		c.SetHasMore(true)
		rows := Rows(keyedRows(0))

		require.True(t, c.Invalidate())
		f, _ := c.Step(rows)
		assert.True(t, f.LoadMore)
	})

	t.Run("zero threshold fires only at the exact bottom", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		c.SetHasMore(true)
		rows := Rows(keyedRows(100))

		f, _ := c.Sample(89, rows)
		assert.False(t, f.LoadMore)
		_, _ = c.Step(rows)

		f, _ = c.Sample(90, rows)
		assert.True(t, f.LoadMore)
	})
}

func TestControllerPanicRecovery(t *testing.T) {
	t.Parallel()

	geo := Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}

	t.Run("keeps the previous window across a bad frame", func(t *testing.T) {
		t.Parallel()
		calls := 0
		keyFn := func(r keyedRow, index int) string {
			calls++
			if calls > 20 {
				panic("bad key func")
			}
			return fmt.Sprintf("k-%d", index)
		}
		c, err := NewController(geo, keyFn, 0)
		require.NoError(t, err)
		rows := Rows(keyedRows(100))

		f, _ := c.Sample(0, rows)
		require.Equal(t, 14, f.Window.End)
		committed := c.Window()
		_, _ = c.Step(rows)

		// This recompute panics partway through the window.
		f, schedule := c.Sample(50, rows)
		assert.True(t, schedule)
		assert.Equal(t, committed, f.Window) // previous window survives
		assert.Equal(t, committed, c.Window())
		assert.Equal(t, 0, c.ScrollTop())
		assert.False(t, f.Scrolled)
		assert.Empty(t, f.Entered)
		assert.Empty(t, f.Exited)
	})

	t.Run("a later good frame recovers", func(t *testing.T) {
		t.Parallel()
		arm := false
		keyFn := func(r keyedRow, index int) string {
			if arm {
				panic("armed")
			}
			return r.id
		}
		c, err := NewController(geo, keyFn, 0)
		require.NoError(t, err)
		rows := Rows(keyedRows(100))

		_, _ = c.Sample(0, rows)
		_, _ = c.Step(rows)

		arm = true
		_, _ = c.Sample(50, rows)
		assert.Equal(t, 0, c.ScrollTop())
		_, _ = c.Step(rows)

		arm = false
		f, _ := c.Sample(50, rows)
		assert.Equal(t, 50, f.ScrollTop)
		assert.Equal(t, 48, f.Window.Start)
	})
}

func TestControllerShiftScroll(t *testing.T) {
	t.Parallel()

	geo := Geometry{RowHeight: 2, ViewportHeight: 10, Buffer: 1}
	rows := Rows(keyedRows(100))

	t.Run("moves the committed position silently", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		_, _ = c.Sample(20, rows)
		_, _ = c.Step(rows)
		require.Equal(t, 20, c.ScrollTop())

		c.ShiftScroll(2)
		assert.Equal(t, 22, c.ScrollTop())

		// The next recompute from the shifted position reports no scroll.
		require.True(t, c.Invalidate())
		f, _ := c.Step(rows)
		assert.False(t, f.Scrolled)
		assert.Equal(t, 22, f.ScrollTop)
	})

	t.Run("shifts a pending sample too", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		_, _ = c.Sample(20, rows)
		_, _ = c.Sample(40, rows) // pending
		c.ShiftScroll(2)

		f, _ := c.Step(rows)
		assert.Equal(t, 42, f.ScrollTop)
	})

	t.Run("never goes negative", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, geo, 0)
		c.ShiftScroll(-5)
		assert.Equal(t, 0, c.ScrollTop())
	})
}

func TestControllerReconfigure(t *testing.T) {
	t.Parallel()

	t.Run("geometry swap keeps committed state until the next frame", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}, 0)
		rows := Rows(keyedRows(100))
		_, _ = c.Sample(50, rows)
		_, _ = c.Step(rows)
		before := c.Window()

		require.NoError(t, c.SetGeometry(Geometry{RowHeight: 2, ViewportHeight: 10, Buffer: 2}))
		assert.Equal(t, before, c.Window())

		require.True(t, c.Invalidate())
		f, _ := c.Step(rows)
		assert.Equal(t, 23, f.Window.Start) // 50/2 - 2
		assert.Equal(t, 32, f.Window.End)   // +ceil(10/2)+4
	})

	t.Run("invalid geometry is rejected and kept out", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}, 0)
		err := c.SetGeometry(Geometry{RowHeight: 0, ViewportHeight: 10})
		assert.ErrorIs(t, err, ErrRowHeight)
		assert.Equal(t, 1, c.Geometry().RowHeight)
	})

	t.Run("threshold setter validates", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, Geometry{RowHeight: 1, ViewportHeight: 10, Buffer: 2}, 5)
		assert.ErrorIs(t, c.SetLoadThreshold(-1), ErrLoadThreshold)
		assert.NoError(t, c.SetLoadThreshold(0))
	})
}
