package vlist

import "errors"

// Configuration errors, reported at construction time. A broken geometry
// is a programmer mistake and is never silently clamped.
var (
	ErrRowHeight      = errors.New("vlist: row height must be positive")
	ErrBuffer         = errors.New("vlist: buffer must not be negative")
	ErrViewportHeight = errors.New("vlist: viewport height must not be negative")
)

// Geometry is the fixed-row coordinate system of a list. Every row spans
// exactly RowHeight lines, the viewport shows ViewportHeight lines, and
// Buffer extra rows are materialized on each side of the viewport to
// absorb fast scrolling. A zero ViewportHeight (collapsed pane) is legal;
// zero or negative RowHeight is not.
type Geometry struct {
	RowHeight      int
	ViewportHeight int
	Buffer         int
}

// Validate returns the first configuration error, if any.
func (g Geometry) Validate() error {
	if g.RowHeight <= 0 {
		return ErrRowHeight
	}
	if g.Buffer < 0 {
		return ErrBuffer
	}
	if g.ViewportHeight < 0 {
		return ErrViewportHeight
	}
	return nil
}

// VisibleCount is the number of rows a window materializes: enough rows
// to cover the viewport, plus Buffer rows on both sides. With a zero
// viewport it degrades to 2*Buffer.
func (g Geometry) VisibleCount() int {
	return (g.ViewportHeight+g.RowHeight-1)/g.RowHeight + 2*g.Buffer
}

// ContentHeight is the total virtual height of count rows. It plays the
// role of scrollHeight: nothing of that height is ever rendered, it only
// bounds the scroll range and feeds the scrollbar.
func (g Geometry) ContentHeight(count int) int {
	return count * g.RowHeight
}

// MaxScroll is the largest valid scroll position for count rows.
func (g Geometry) MaxScroll(count int) int {
	return max(0, g.ContentHeight(count)-g.ViewportHeight)
}

// ClampScroll clamps a raw scroll position into [0, MaxScroll].
func (g Geometry) ClampScroll(scrollTop, count int) int {
	return min(max(scrollTop, 0), g.MaxScroll(count))
}

// WindowAt computes the materialized row range for a scroll position.
// The window always covers the viewport and is clamped to the
// collection, so it never indexes out of bounds for any input.
func (g Geometry) WindowAt(scrollTop, count int) Window {
	if count <= 0 {
		return Window{}
	}
	scrollTop = g.ClampScroll(scrollTop, count)
	start := max(0, scrollTop/g.RowHeight-g.Buffer)
	end := min(count, start+g.VisibleCount())
	return Window{Start: start, End: end, Offset: start * g.RowHeight}
}

// Window is a half-open row range [Start, End) positioned Offset lines
// from the top of the virtual content. Offset is always Start*RowHeight:
// the materialized slice is translated, never re-laid-out.
type Window struct {
	Start  int
	End    int
	Offset int
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Contains reports whether the row at index is materialized.
func (w Window) Contains(index int) bool {
	return index >= w.Start && index < w.End
}
