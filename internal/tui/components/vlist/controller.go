package vlist

import (
	"errors"
	"log/slog"
)

// ErrLoadThreshold is returned for a negative load-more threshold.
var ErrLoadThreshold = errors.New("vlist: load threshold must not be negative")

// Collection is the controller's read-only view of the caller-owned
// rows. It is satisfied by csync.Slice.
type Collection[T any] interface {
	Len() int
	Get(index int) (T, bool)
}

// Rows adapts a plain slice into a Collection.
func Rows[T any](s []T) Collection[T] {
	return sliceRows[T](s)
}

type sliceRows[T any] []T

func (s sliceRows[T]) Len() int {
	return len(s)
}

func (s sliceRows[T]) Get(index int) (T, bool) {
	if index < 0 || index >= len(s) {
		var zero T
		return zero, false
	}
	return s[index], true
}

type phase int

const (
	phaseIdle phase = iota
	phaseScrolling
)

// Frame is the outcome of one committed recomputation.
type Frame struct {
	Window        Window
	ScrollTop     int
	Scrolled      bool         // scroll position changed this frame
	WindowChanged bool         // materialized range changed this frame
	Entered       []Transition // rows that became visible
	Exited        []Transition // rows that stopped being visible
	LoadMore      bool         // the owner should fetch the next page
}

// Controller owns the scroll position and decides, one frame at a time,
// which rows are materialized. Scroll samples are frame-gated: the first
// sample after idle is processed immediately, further samples within the
// same frame replace a single pending value, and the next Step processes
// only the latest one. Intermediate positions are dropped, never queued.
//
// The controller is not safe for concurrent use; like the rest of a
// Bubble Tea model it lives on the update loop.
type Controller[T any] struct {
	geo           Geometry
	keyFn         KeyFunc[T]
	loadThreshold int

	scrollTop int
	window    Window
	visible   VisibleSet

	phase      phase
	pending    int
	hasPending bool
	dirty      bool

	loading bool
	hasMore bool
}

// NewController validates the configuration and returns an idle
// controller. keyFn may be nil, in which case rows identify themselves
// via Keyer or fall back to their index.
func NewController[T any](geo Geometry, keyFn KeyFunc[T], loadThreshold int) (*Controller[T], error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if loadThreshold < 0 {
		return nil, ErrLoadThreshold
	}
	return &Controller[T]{
		geo:           geo,
		keyFn:         keyFn,
		loadThreshold: loadThreshold,
	}, nil
}

// Sample feeds one raw scroll position into the controller. The returned
// bool asks the caller to schedule a frame step.
func (c *Controller[T]) Sample(scrollTop int, rows Collection[T]) (Frame, bool) {
	if c.phase == phaseScrolling {
		c.pending = scrollTop
		c.hasPending = true
		return c.idleFrame(), false
	}
	f := c.process(scrollTop, rows)
	c.phase = phaseScrolling
	return f, true
}

// Step runs one frame: it processes the pending sample or a pending
// invalidation. The returned bool asks the caller to schedule another
// step; when it is false the controller has gone idle and no further
// steps are needed until the next sample.
func (c *Controller[T]) Step(rows Collection[T]) (Frame, bool) {
	switch {
	case c.hasPending:
		target := c.pending
		c.hasPending = false
		c.dirty = false
		return c.process(target, rows), true
	case c.dirty:
		c.dirty = false
		return c.process(c.scrollTop, rows), true
	default:
		c.phase = phaseIdle
		return c.idleFrame(), false
	}
}

// Invalidate marks the committed window stale after a collection or
// geometry change. The recompute happens on the next step, never inline,
// so bursts of changes coalesce into one frame. The returned bool asks
// the caller to schedule that step.
func (c *Controller[T]) Invalidate() bool {
	c.dirty = true
	if c.phase == phaseScrolling {
		return false
	}
	c.phase = phaseScrolling
	return true
}

// ShiftScroll moves the committed scroll position by delta lines without
// emitting scroll events. Used to keep the viewport visually stable when
// rows are inserted above it.
func (c *Controller[T]) ShiftScroll(delta int) {
	c.scrollTop = max(0, c.scrollTop+delta)
	if c.hasPending {
		c.pending = max(0, c.pending+delta)
	}
}

// process runs the recompute pipeline for one scroll sample: clamp,
// window calculation, visibility diff, load-more check, commit. A panic
// inside the pipeline (a misbehaving KeyFunc, typically) is contained:
// the previous committed window stays in place and the frame reports no
// changes, so one bad frame never breaks scrolling permanently.
func (c *Controller[T]) process(scrollTop int, rows Collection[T]) (f Frame) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("vlist: recompute failed, keeping previous window", "panic", r)
			f = c.idleFrame()
		}
	}()

	count := rows.Len()
	clamped := c.geo.ClampScroll(scrollTop, count)
	window := c.geo.WindowAt(clamped, count)
	visible := visibleSetOf(c.keyFn, rows, window)
	entered, exited := diffVisible(c.visible, visible)

	f = Frame{
		Window:        window,
		ScrollTop:     clamped,
		Scrolled:      clamped != c.scrollTop,
		WindowChanged: window != c.window,
		Entered:       entered,
		Exited:        exited,
	}

	if c.hasMore && !c.loading &&
		clamped+c.geo.ViewportHeight >= c.geo.ContentHeight(count)-c.loadThreshold {
		f.LoadMore = true
		// Latched until the owner reports SetLoading(false). The engine
		// never infers completion from data arriving.
		c.loading = true
	}

	c.scrollTop = clamped
	c.window = window
	c.visible = visible
	return f
}

func (c *Controller[T]) idleFrame() Frame {
	return Frame{Window: c.window, ScrollTop: c.scrollTop}
}

// SetGeometry replaces the geometry. The caller is expected to follow up
// with Invalidate.
func (c *Controller[T]) SetGeometry(geo Geometry) error {
	if err := geo.Validate(); err != nil {
		return err
	}
	c.geo = geo
	return nil
}

// Geometry returns the current geometry.
func (c *Controller[T]) Geometry() Geometry {
	return c.geo
}

// SetLoading records the owner's loading flag. The flag belongs to the
// owner: load-more stays suppressed until it reports false here.
func (c *Controller[T]) SetLoading(loading bool) {
	c.loading = loading
}

// Loading returns the current loading flag.
func (c *Controller[T]) Loading() bool {
	return c.loading
}

// SetLoadThreshold changes how close to the loaded bottom, in lines,
// load-more fires.
func (c *Controller[T]) SetLoadThreshold(n int) error {
	if n < 0 {
		return ErrLoadThreshold
	}
	c.loadThreshold = n
	return nil
}

// SetHasMore records whether more rows can be fetched.
func (c *Controller[T]) SetHasMore(hasMore bool) {
	c.hasMore = hasMore
}

// HasMore reports whether more rows can be fetched.
func (c *Controller[T]) HasMore() bool {
	return c.hasMore
}

// Window returns the committed window.
func (c *Controller[T]) Window() Window {
	return c.window
}

// ScrollTop returns the committed scroll position.
func (c *Controller[T]) ScrollTop() int {
	return c.scrollTop
}

// VisibleRange returns the committed materialized row range.
func (c *Controller[T]) VisibleRange() (start, end int) {
	return c.window.Start, c.window.End
}

// IsVisible reports whether the row at index is materialized in the
// committed window.
func (c *Controller[T]) IsVisible(index int) bool {
	return c.window.Contains(index)
}

// Pending reports whether a sample is waiting for the next step.
func (c *Controller[T]) Pending() bool {
	return c.hasPending
}

// Idle reports whether the controller has no frame work scheduled.
func (c *Controller[T]) Idle() bool {
	return c.phase == phaseIdle
}
