// Package vlist implements a windowed (virtualized) list for Bubble Tea:
// out of an arbitrarily large collection only the rows overlapping the
// viewport, plus a small buffer, are ever rendered. Scroll input is
// frame-gated so bursts collapse to one recompute per frame, visibility
// changes are reported as per-row messages keyed by stable identity, and
// nearing the end of the loaded rows asks the owner for another page.
package vlist

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/tapeview/tapeview/internal/csync"
	"github.com/tapeview/tapeview/internal/tui/util"
)

const (
	DefaultRowHeight     = 1
	DefaultBuffer        = 5
	DefaultLoadThreshold = 8
	DefaultFrameInterval = time.Second / 60

	wheelScrollLines = 2
)

// Renderer is implemented by rows that draw themselves.
type Renderer interface {
	Render(width int) string
}

// RenderFunc draws one row at the given width. The result is normalized
// to exactly RowHeight lines.
type RenderFunc[T any] func(item T, index int, width int) string

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

type options[T any] struct {
	geo           Geometry
	width         int
	keyFn         KeyFunc[T]
	renderFn      RenderFunc[T]
	keyMap        KeyMap
	frameInterval time.Duration
	loadThreshold int
	hasMore       bool
	focused       bool
	mouse         bool
	scrollbar     bool
	emptyMessage  string
}

// Option configures a List.
type Option[T any] func(*options[T])

// WithKeyFunc overrides how row identity is resolved.
func WithKeyFunc[T any](fn KeyFunc[T]) Option[T] {
	return func(o *options[T]) {
		o.keyFn = fn
	}
}

// WithRenderFunc sets how rows are drawn. Without it, rows implementing
// Renderer draw themselves and everything else goes through fmt.
func WithRenderFunc[T any](fn RenderFunc[T]) Option[T] {
	return func(o *options[T]) {
		o.renderFn = fn
	}
}

// WithRowHeight sets the fixed number of lines every row occupies.
func WithRowHeight[T any](h int) Option[T] {
	return func(o *options[T]) {
		o.geo.RowHeight = h
	}
}

// WithBuffer sets how many rows are materialized beyond each viewport
// edge.
func WithBuffer[T any](b int) Option[T] {
	return func(o *options[T]) {
		o.geo.Buffer = b
	}
}

// WithSize sets the initial viewport size in cells.
func WithSize[T any](width, height int) Option[T] {
	return func(o *options[T]) {
		o.width = width
		o.geo.ViewportHeight = height
	}
}

// WithLoadThreshold sets how close to the loaded bottom, in lines,
// load-more fires.
func WithLoadThreshold[T any](n int) Option[T] {
	return func(o *options[T]) {
		o.loadThreshold = n
	}
}

// WithHasMore marks the collection as extendable from construction, so
// the first frame can already request a page.
func WithHasMore[T any]() Option[T] {
	return func(o *options[T]) {
		o.hasMore = true
	}
}

// WithKeyMap overrides the default bindings.
func WithKeyMap[T any](km KeyMap) Option[T] {
	return func(o *options[T]) {
		o.keyMap = km
	}
}

// WithFrameInterval overrides the scroll sampling interval.
func WithFrameInterval[T any](d time.Duration) Option[T] {
	return func(o *options[T]) {
		o.frameInterval = d
	}
}

// WithMouse enables wheel scrolling.
func WithMouse[T any]() Option[T] {
	return func(o *options[T]) {
		o.mouse = true
	}
}

// WithScrollbar reserves the rightmost column for a proportional
// scrollbar gutter.
func WithScrollbar[T any]() Option[T] {
	return func(o *options[T]) {
		o.scrollbar = true
	}
}

// WithEmptyMessage sets the line shown when the collection is empty.
func WithEmptyMessage[T any](msg string) Option[T] {
	return func(o *options[T]) {
		o.emptyMessage = msg
	}
}

// WithBlurred starts the list without keyboard focus.
func WithBlurred[T any]() Option[T] {
	return func(o *options[T]) {
		o.focused = false
	}
}

// List is the windowed list component.
type List[T any] struct {
	*options[T]

	id         int
	ctrl       *Controller[T]
	items      *csync.Slice[T]
	indexByKey *csync.Map[string, int]
	indexDirty bool
	viewCache  *csync.Map[string, string]

	// target is the latest requested scroll position, which can run
	// ahead of the committed one while samples are pending. Relative
	// scrolls accumulate against it so a burst of wheel events is not
	// flattened by the frame gate.
	target int
	closed bool
}

// New builds a List over the given rows. Invalid configuration is
// rejected here rather than clamped quietly.
func New[T any](items []T, opts ...Option[T]) (*List[T], error) {
	o := &options[T]{
		geo:           Geometry{RowHeight: DefaultRowHeight, Buffer: DefaultBuffer},
		keyMap:        DefaultKeyMap(),
		frameInterval: DefaultFrameInterval,
		loadThreshold: DefaultLoadThreshold,
		focused:       true,
		emptyMessage:  "no rows",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.renderFn == nil {
		o.renderFn = renderDefault[T]
	}

	ctrl, err := NewController(o.geo, o.keyFn, o.loadThreshold)
	if err != nil {
		return nil, err
	}
	ctrl.SetHasMore(o.hasMore)

	return &List[T]{
		options:    o,
		id:         nextID(),
		ctrl:       ctrl,
		items:      csync.NewSliceFrom(items),
		indexByKey: csync.NewMap[string, int](),
		indexDirty: true,
		viewCache:  csync.NewMap[string, string](),
	}, nil
}

func renderDefault[T any](item T, _ int, width int) string {
	if r, ok := any(item).(Renderer); ok {
		return r.Render(width)
	}
	return fmt.Sprintf("%v", item)
}

// Init schedules the first frame, which commits the initial window and,
// for an empty extendable list, requests the opening page without any
// user input.
func (l *List[T]) Init() tea.Cmd {
	return l.invalidate()
}

// Update handles frame ticks, mouse wheel and keyboard scrolling. The
// owner forwards messages here and keeps the returned list.
func (l *List[T]) Update(msg tea.Msg) (*List[T], tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.id != l.id || l.closed {
			return l, nil
		}
		f, again := l.ctrl.Step(l.items)
		if !l.ctrl.Pending() {
			l.target = l.ctrl.ScrollTop()
		}
		cmd := l.emit(f)
		if again {
			return l, tea.Batch(cmd, l.frameTick())
		}
		return l, cmd

	case tea.MouseWheelMsg:
		if !l.mouse {
			return l, nil
		}
		switch msg.Button {
		case tea.MouseWheelDown:
			return l, l.ScrollBy(wheelScrollLines)
		case tea.MouseWheelUp:
			return l, l.ScrollBy(-wheelScrollLines)
		}
		return l, nil

	case tea.KeyPressMsg:
		if !l.focused {
			return l, nil
		}
		g := l.ctrl.Geometry()
		switch {
		case key.Matches(msg, l.keyMap.Down):
			return l, l.ScrollBy(1)
		case key.Matches(msg, l.keyMap.Up):
			return l, l.ScrollBy(-1)
		case key.Matches(msg, l.keyMap.DownOneItem):
			return l, l.ScrollBy(g.RowHeight)
		case key.Matches(msg, l.keyMap.UpOneItem):
			return l, l.ScrollBy(-g.RowHeight)
		case key.Matches(msg, l.keyMap.HalfPageDown):
			return l, l.ScrollBy(g.ViewportHeight / 2)
		case key.Matches(msg, l.keyMap.HalfPageUp):
			return l, l.ScrollBy(-g.ViewportHeight / 2)
		case key.Matches(msg, l.keyMap.PageDown):
			return l, l.ScrollBy(g.ViewportHeight)
		case key.Matches(msg, l.keyMap.PageUp):
			return l, l.ScrollBy(-g.ViewportHeight)
		case key.Matches(msg, l.keyMap.Home):
			return l, l.GoToTop()
		case key.Matches(msg, l.keyMap.End):
			return l, l.GoToBottom()
		}
	}
	return l, nil
}

// View renders the committed window as viewport-height lines.
func (l *List[T]) View() string {
	g := l.ctrl.Geometry()
	if g.ViewportHeight <= 0 || l.width <= 0 {
		return ""
	}
	return strings.Join(l.viewportLines(), "\n")
}

// ScrollTo scrolls to an absolute position in lines.
func (l *List[T]) ScrollTo(top int) tea.Cmd {
	return l.sample(top)
}

// ScrollBy scrolls by a delta in lines, relative to the latest requested
// position rather than the committed one.
func (l *List[T]) ScrollBy(delta int) tea.Cmd {
	return l.sample(l.ctrl.Geometry().ClampScroll(l.target+delta, l.items.Len()))
}

// GoToTop scrolls to the first row.
func (l *List[T]) GoToTop() tea.Cmd {
	return l.ScrollTo(0)
}

// GoToBottom scrolls to the last loaded row.
func (l *List[T]) GoToBottom() tea.Cmd {
	return l.ScrollTo(l.ctrl.Geometry().MaxScroll(l.items.Len()))
}

// Align picks where a targeted row lands in the viewport.
type Align int

const (
	// AlignAuto scrolls the minimal distance that reveals the row, and
	// not at all when it is already fully on screen.
	AlignAuto Align = iota
	AlignTop
	AlignCenter
	AlignBottom
)

// ScrollToIndex scrolls so the row at index is visible, placed per
// align. Out-of-range indexes are ignored.
func (l *List[T]) ScrollToIndex(index int, align Align) tea.Cmd {
	count := l.items.Len()
	if index < 0 || index >= count {
		return nil
	}
	g := l.ctrl.Geometry()
	rowTop := index * g.RowHeight
	rowBottom := rowTop + g.RowHeight

	top := l.target
	switch align {
	case AlignTop:
		top = rowTop
	case AlignCenter:
		top = rowTop - (g.ViewportHeight-g.RowHeight)/2
	case AlignBottom:
		top = rowBottom - g.ViewportHeight
	default:
		if rowTop >= top && rowBottom <= top+g.ViewportHeight {
			return nil
		}
		if rowTop < top {
			top = rowTop
		} else {
			top = rowBottom - g.ViewportHeight
		}
	}
	return l.ScrollTo(g.ClampScroll(top, count))
}

// ScrollToItem resolves the row's identity and scrolls to its current
// index. It needs index-independent identity (a KeyFunc or Keyer); under
// positional fallback there is nothing stable to look up and the call is
// a no-op.
func (l *List[T]) ScrollToItem(item T, align Align) tea.Cmd {
	key, ok := l.stableKey(item)
	if !ok {
		return nil
	}
	index, ok := l.lookupIndex(key)
	if !ok {
		return nil
	}
	return l.ScrollToIndex(index, align)
}

// SetItems replaces the whole collection. The scroll position is kept
// and re-clamped against the new length on the next frame.
func (l *List[T]) SetItems(items []T) tea.Cmd {
	l.items.SetSlice(items)
	l.indexDirty = true
	l.viewCache.Reset()
	return l.invalidate()
}

// AppendItems adds rows at the end.
func (l *List[T]) AppendItems(items ...T) tea.Cmd {
	if len(items) == 0 {
		return nil
	}
	l.items.Append(items...)
	l.indexDirty = true
	return l.invalidate()
}

// PrependItem inserts a row at the top. Unless the list is pinned to the
// very top, the scroll position shifts with the content so the rows on
// screen stay put.
func (l *List[T]) PrependItem(item T) tea.Cmd {
	l.items.Prepend(item)
	l.indexDirty = true
	if l.target > 0 {
		h := l.ctrl.Geometry().RowHeight
		l.ctrl.ShiftScroll(h)
		l.target += h
	}
	return l.invalidate()
}

// UpdateItem replaces the row identified by key in place.
func (l *List[T]) UpdateItem(key string, item T) tea.Cmd {
	index, ok := l.lookupIndex(key)
	if !ok {
		return nil
	}
	l.items.Set(index, item)
	l.viewCache.Del(key)
	return l.invalidate()
}

// DeleteItem removes the row identified by key.
func (l *List[T]) DeleteItem(key string) tea.Cmd {
	index, ok := l.lookupIndex(key)
	if !ok {
		return nil
	}
	l.items.Delete(index)
	l.indexDirty = true
	l.viewCache.Del(key)
	return l.invalidate()
}

// Items returns a copy of the rows.
func (l *List[T]) Items() []T {
	return l.items.Slice()
}

// Len returns the number of loaded rows.
func (l *List[T]) Len() int {
	return l.items.Len()
}

// SetLoading records the owner's fetch state. Reporting false is what
// re-arms load-more; the list never infers completion from data
// arriving.
func (l *List[T]) SetLoading(v bool) {
	l.ctrl.SetLoading(v)
}

// Loading reports whether a fetch is in flight.
func (l *List[T]) Loading() bool {
	return l.ctrl.Loading()
}

// SetHasMore records whether another page exists past the loaded rows.
// Setting it while the bottom is already on screen is picked up on the
// next frame.
func (l *List[T]) SetHasMore(v bool) tea.Cmd {
	l.ctrl.SetHasMore(v)
	if v {
		return l.invalidate()
	}
	return nil
}

// HasMore reports whether another page exists past the loaded rows.
func (l *List[T]) HasMore() bool {
	return l.ctrl.HasMore()
}

// VisibleRange returns the committed materialized row range, end
// exclusive.
func (l *List[T]) VisibleRange() (start, end int) {
	return l.ctrl.VisibleRange()
}

// IsItemVisible reports whether the row at index is materialized.
func (l *List[T]) IsItemVisible(index int) bool {
	return l.ctrl.IsVisible(index)
}

// ScrollTop returns the committed scroll position.
func (l *List[T]) ScrollTop() int {
	return l.ctrl.ScrollTop()
}

// ContentHeight returns the virtual height of the whole collection in
// lines.
func (l *List[T]) ContentHeight() int {
	return l.ctrl.Geometry().ContentHeight(l.items.Len())
}

// SetSize implements layout.Sizeable. The resize takes effect on the
// next frame; until then the committed window keeps rendering.
func (l *List[T]) SetSize(width, height int) tea.Cmd {
	g := l.ctrl.Geometry()
	if width == l.width && height == g.ViewportHeight {
		return nil
	}
	if width != l.width {
		l.width = width
		l.viewCache.Reset()
	}
	g.ViewportHeight = max(0, height)
	if err := l.ctrl.SetGeometry(g); err != nil {
		return util.ReportError(err)
	}
	return l.invalidate()
}

// GetSize implements layout.Sizeable.
func (l *List[T]) GetSize() (int, int) {
	return l.width, l.ctrl.Geometry().ViewportHeight
}

// SetScrollbar shows or hides the scrollbar gutter. The render cache is
// dropped because the gutter changes the content width.
func (l *List[T]) SetScrollbar(show bool) tea.Cmd {
	if l.scrollbar == show {
		return nil
	}
	l.scrollbar = show
	l.viewCache.Reset()
	return l.invalidate()
}

// Scrollbar reports whether the scrollbar gutter is shown.
func (l *List[T]) Scrollbar() bool {
	return l.scrollbar
}

// Reconfigure swaps row geometry and the load threshold at runtime, for
// settings reloads. Invalid values are rejected and the old ones kept.
func (l *List[T]) Reconfigure(rowHeight, buffer, loadThreshold int) (tea.Cmd, error) {
	if err := l.ctrl.SetLoadThreshold(loadThreshold); err != nil {
		return nil, err
	}
	g := l.ctrl.Geometry()
	g.RowHeight = rowHeight
	g.Buffer = buffer
	if err := l.ctrl.SetGeometry(g); err != nil {
		return nil, err
	}
	l.viewCache.Reset()
	return l.invalidate(), nil
}

// Focus implements layout.Focusable.
func (l *List[T]) Focus() tea.Cmd {
	l.focused = true
	return nil
}

// Blur implements layout.Focusable.
func (l *List[T]) Blur() tea.Cmd {
	l.focused = false
	return nil
}

// IsFocused implements layout.Focusable.
func (l *List[T]) IsFocused() bool {
	return l.focused
}

// KeyBindings implements layout.KeyMapProvider.
func (l *List[T]) KeyBindings() []key.Binding {
	return l.keyMap.KeyBindings()
}

// Close releases the list: in-flight frames are ignored and no new ones
// are scheduled. Idempotent.
func (l *List[T]) Close() {
	l.closed = true
}

// sample feeds one raw scroll target into the controller and turns the
// resulting frame into commands.
func (l *List[T]) sample(top int) tea.Cmd {
	if l.closed {
		return nil
	}
	l.target = top
	f, schedule := l.ctrl.Sample(top, l.items)
	cmd := l.emit(f)
	if schedule {
		return tea.Batch(cmd, l.frameTick())
	}
	return cmd
}

// invalidate coalesces a data or geometry change into the next frame.
func (l *List[T]) invalidate() tea.Cmd {
	if l.closed {
		return nil
	}
	if l.ctrl.Invalidate() {
		return l.frameTick()
	}
	return nil
}

func (l *List[T]) frameTick() tea.Cmd {
	return tea.Tick(l.frameInterval, func(time.Time) tea.Msg {
		return frameMsg{id: l.id}
	})
}

// emit turns a committed frame into Bubble Tea messages.
func (l *List[T]) emit(f Frame) tea.Cmd {
	var cmds []tea.Cmd
	if f.Scrolled {
		cmds = append(cmds, util.CmdHandler(ScrollMsg{Top: f.ScrollTop}))
	}
	for _, t := range f.Entered {
		cmds = append(cmds, util.CmdHandler(ItemVisibleMsg{Key: t.Key, Index: t.Index}))
	}
	for _, t := range f.Exited {
		cmds = append(cmds, util.CmdHandler(ItemHiddenMsg{Key: t.Key, Index: t.Index}))
	}
	if f.LoadMore {
		cmds = append(cmds, util.CmdHandler(LoadMoreMsg{}))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// stableKey resolves identity without an index, for lookups that start
// from the item itself.
func (l *List[T]) stableKey(item T) (string, bool) {
	if l.keyFn != nil {
		return l.keyFn(item, -1), true
	}
	if k, ok := any(item).(Keyer); ok {
		return k.Key(), true
	}
	return "", false
}

// lookupIndex maps a key to its current index, rebuilding the index
// lazily after collection changes.
func (l *List[T]) lookupIndex(key string) (int, bool) {
	if l.indexDirty {
		l.indexByKey.Reset()
		for i, item := range l.items.Seq2() {
			l.indexByKey.Set(resolveKey(l.keyFn, item, i), i)
		}
		l.indexDirty = false
	}
	return l.indexByKey.Get(key)
}
