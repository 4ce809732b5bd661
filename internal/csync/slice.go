package csync

import (
	"iter"
	"slices"
	"sync"
)

// Slice is a thread-safe slice.
type Slice[T any] struct {
	mu    sync.RWMutex
	inner []T
}

// NewSlice creates a new thread-safe slice.
func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{}
}

// NewSliceFrom creates a new thread-safe slice that takes ownership of the
// given slice.
func NewSliceFrom[T any](s []T) *Slice[T] {
	return &Slice[T]{
		inner: s,
	}
}

// Append adds items to the end of the slice.
func (s *Slice[T]) Append(items ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = append(s.inner, items...)
}

// Prepend adds an item to the beginning of the slice.
func (s *Slice[T]) Prepend(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = append([]T{item}, s.inner...)
}

// Delete removes the item at the given index and reports whether the index
// was valid.
func (s *Slice[T]) Delete(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.inner) {
		return false
	}
	s.inner = slices.Delete(s.inner, index, index+1)
	return true
}

// Get returns the item at the given index and whether the index was valid.
func (s *Slice[T]) Get(index int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.inner) {
		var zero T
		return zero, false
	}
	return s.inner[index], true
}

// Set replaces the item at the given index and reports whether the index
// was valid.
func (s *Slice[T]) Set(index int, item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.inner) {
		return false
	}
	s.inner[index] = item
	return true
}

// SetSlice replaces the contents with the given slice, taking ownership
// of it.
func (s *Slice[T]) SetSlice(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = items
}

// Len returns the number of items in the slice.
func (s *Slice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inner)
}

// Slice returns a copy of the underlying slice.
func (s *Slice[T]) Slice() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.inner)
}

// Seq returns an iterator over a snapshot of the slice.
func (s *Slice[T]) Seq() iter.Seq[T] {
	snapshot := s.Slice()
	return func(yield func(T) bool) {
		for _, v := range snapshot {
			if !yield(v) {
				return
			}
		}
	}
}

// Seq2 returns an iterator over index-value pairs of a snapshot of the
// slice.
func (s *Slice[T]) Seq2() iter.Seq2[int, T] {
	snapshot := s.Slice()
	return func(yield func(int, T) bool) {
		for i, v := range snapshot {
			if !yield(i, v) {
				return
			}
		}
	}
}
