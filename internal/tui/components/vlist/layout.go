package vlist

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	scrollbarThumb = "█"
	scrollbarTrack = "░"
)

// padLine clips a line to width terminal cells and pads the remainder
// with spaces. Clipping is ANSI-aware so styled rows never bleed into
// the gutter.
func padLine(line string, width int) string {
	line = ansi.Truncate(line, width, "")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	return line
}

// normalizeRow forces a rendered row to exactly height lines of exactly
// width cells. The fixed row height is what keeps the window arithmetic
// exact: rows that render short are padded, rows that render tall are
// cut.
func normalizeRow(view string, height, width int) []string {
	lines := strings.Split(view, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i := range lines {
		lines[i] = padLine(lines[i], width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return lines
}

// renderScrollbar returns one gutter cell per viewport line. Thumb size
// and position are proportional to the viewport/content ratio, drawn
// against the full virtual content height rather than the handful of
// materialized rows. That proportionality is what makes a windowed list
// read as a complete one.
func renderScrollbar(viewportHeight, contentHeight, scrollTop int) []string {
	cells := make([]string, viewportHeight)
	if contentHeight <= viewportHeight {
		for i := range cells {
			cells[i] = " "
		}
		return cells
	}

	thumb := max(1, viewportHeight*viewportHeight/contentHeight)
	scrollable := contentHeight - viewportHeight
	top := 0
	if scrollable > 0 {
		top = scrollTop * (viewportHeight - thumb) / scrollable
	}

	for i := range cells {
		if i >= top && i < top+thumb {
			cells[i] = scrollbarThumb
		} else {
			cells[i] = scrollbarTrack
		}
	}
	return cells
}

// contentWidth is the width available to rows; one column is reserved
// for the gutter when the scrollbar is enabled.
func (l *List[T]) contentWidth() int {
	if l.scrollbar {
		return max(0, l.width-1)
	}
	return l.width
}

// rowLines materializes one row through the render cache.
func (l *List[T]) rowLines(item T, index int, g Geometry, width int) []string {
	key := resolveKey(l.keyFn, item, index)
	if cached, ok := l.viewCache.Get(key); ok {
		return strings.Split(cached, "\n")
	}
	lines := normalizeRow(l.renderFn(item, index, width), g.RowHeight, width)
	l.viewCache.Set(key, strings.Join(lines, "\n"))
	return lines
}

// viewportLines assembles the committed window into exactly
// ViewportHeight lines: materialize the window's rows, drop the lines
// above the scroll position, cut or pad to the viewport, and attach the
// gutter.
func (l *List[T]) viewportLines() []string {
	g := l.ctrl.Geometry()
	width := l.contentWidth()
	count := l.items.Len()
	lines := make([]string, 0, g.ViewportHeight)

	if count == 0 {
		lines = append(lines, padLine(l.emptyMessage, width))
		for len(lines) < g.ViewportHeight {
			lines = append(lines, strings.Repeat(" ", width))
		}
		return l.attachGutter(lines[:g.ViewportHeight], g, 0, 0)
	}

	// The window was committed on an earlier frame; the collection may
	// have shrunk since. Clamp instead of trusting it, the controller
	// corrects the window on the next step.
	w := l.ctrl.Window()
	scrollTop := min(l.ctrl.ScrollTop(), g.MaxScroll(count))
	start := min(w.Start, count)
	end := min(w.End, count)

	block := make([]string, 0, (end-start)*g.RowHeight)
	for i := start; i < end; i++ {
		item, ok := l.items.Get(i)
		if !ok {
			continue
		}
		block = append(block, l.rowLines(item, i, g, width)...)
	}

	skip := max(0, scrollTop-start*g.RowHeight)
	for i := skip; i < len(block) && len(lines) < g.ViewportHeight; i++ {
		lines = append(lines, block[i])
	}
	for len(lines) < g.ViewportHeight {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return l.attachGutter(lines, g, g.ContentHeight(count), scrollTop)
}

func (l *List[T]) attachGutter(lines []string, g Geometry, contentHeight, scrollTop int) []string {
	if !l.scrollbar {
		return lines
	}
	gutter := renderScrollbar(g.ViewportHeight, contentHeight, scrollTop)
	for i := range lines {
		if i < len(gutter) {
			lines[i] += gutter[i]
		}
	}
	return lines
}
