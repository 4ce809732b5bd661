package vlist

// LoadMoreMsg asks the owner to fetch the next page of rows. At most one
// is sent per threshold crossing; the owner re-arms it by calling
// SetLoading(false) once the fetch settles.
type LoadMoreMsg struct{}

// ScrollMsg reports a committed scroll position in lines.
type ScrollMsg struct {
	Top int
}

// ItemVisibleMsg reports a row that entered the materialized window.
type ItemVisibleMsg struct {
	Key   string
	Index int
}

// ItemHiddenMsg reports a row that left the materialized window.
type ItemHiddenMsg struct {
	Key   string
	Index int
}

// frameMsg drives one controller step for the list that scheduled it.
type frameMsg struct {
	id int
}
