package vlist

import (
	"log/slog"
	"slices"
)

// Transition is one row entering or leaving the materialized window.
type Transition struct {
	Key   string
	Index int
}

// VisibleSet records the identity of every materialized row of one
// committed window, in row order.
type VisibleSet struct {
	keys  []string
	index map[string]int
}

// Len returns the number of distinct keys in the set.
func (s VisibleSet) Len() int {
	return len(s.keys)
}

// Has reports whether key is in the set.
func (s VisibleSet) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// IndexOf returns the row index recorded for key.
func (s VisibleSet) IndexOf(key string) (int, bool) {
	i, ok := s.index[key]
	return i, ok
}

// Keys returns the keys in row order.
func (s VisibleSet) Keys() []string {
	return slices.Clone(s.keys)
}

// visibleSetOf resolves the key of every row in the window. O(window),
// never O(collection). Duplicate keys are the caller breaking the key
// contract; the last index wins and the collision is logged rather than
// failing the frame.
func visibleSetOf[T any](fn KeyFunc[T], rows Collection[T], w Window) VisibleSet {
	set := VisibleSet{
		keys:  make([]string, 0, w.Len()),
		index: make(map[string]int, w.Len()),
	}
	for i := w.Start; i < w.End; i++ {
		item, ok := rows.Get(i)
		if !ok {
			continue
		}
		key := resolveKey(fn, item, i)
		if _, dup := set.index[key]; dup {
			slog.Debug("vlist: duplicate row key in window", "key", key, "index", i)
		} else {
			set.keys = append(set.keys, key)
		}
		set.index[key] = i
	}
	return set
}

// diffVisible compares two committed windows by key: entered rows are in
// cur but not prev, exited rows are in prev but not cur. Key identity
// keeps the diff stable under index shifts, so prepending rows above the
// viewport produces no transitions for rows that stayed on screen. The
// two lists are disjoint for any single frame.
func diffVisible(prev, cur VisibleSet) (entered, exited []Transition) {
	for _, key := range cur.keys {
		if !prev.Has(key) {
			entered = append(entered, Transition{Key: key, Index: cur.index[key]})
		}
	}
	for _, key := range prev.keys {
		if !cur.Has(key) {
			exited = append(exited, Transition{Key: key, Index: prev.index[key]})
		}
	}
	return entered, exited
}
