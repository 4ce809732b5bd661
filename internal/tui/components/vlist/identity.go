package vlist

import "strconv"

// KeyFunc derives a stable identity for a row. When set it takes
// precedence over every other identity source.
type KeyFunc[T any] func(item T, index int) string

// Keyer is implemented by rows that carry their own stable identity.
type Keyer interface {
	Key() string
}

// resolveKey returns the identity of the row at index from the first
// available source: the configured KeyFunc, the row's own Key, or the
// index itself. The positional fallback is only sound for append-only
// collections; once rows are reordered or prepended it mis-tracks
// identity, so callers with mutable order must provide real keys.
func resolveKey[T any](fn KeyFunc[T], item T, index int) string {
	if fn != nil {
		return fn(item, index)
	}
	if k, ok := any(item).(Keyer); ok {
		return k.Key()
	}
	return strconv.Itoa(index)
}
