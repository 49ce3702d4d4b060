// Package taskshare provides the two primitives that tasks use to pass data to each other:
// a single-slot Share and a bounded FIFO Queue.  Neither ever blocks the caller.
//
// Values that are also written from the edge capture goroutine (our stand-in for an
// interrupt handler) must use the guarded variants.
package taskshare

import "sync/atomic"

// Share holds the latest value of some quantity.  Readers always see the most recent Put.
type Share[T any] struct {
	name    string
	guarded bool

	// Used when guarded: each Put swaps in a fresh pointer so a reader can never see half
	// of a value.
	p atomic.Pointer[T]

	// Used when not guarded.
	v T
}

func NewShare[T any](name string, guarded bool, initial T) *Share[T] {
	s := &Share[T]{
		name:    name,
		guarded: guarded,
	}
	s.Put(initial)
	return s
}

func (s *Share[T]) Name() string {
	return s.name
}

// Put replaces the current value.
func (s *Share[T]) Put(v T) {
	if s.guarded {
		s.p.Store(&v)
		return
	}
	s.v = v
}

// Get returns the value from the most recent Put.
func (s *Share[T]) Get() T {
	if s.guarded {
		return *s.p.Load()
	}
	return s.v
}
