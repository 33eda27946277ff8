// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

// StateHolder owns one persistent record and publishes it only when it
// changes. It is the single writer of its record and is not safe for
// concurrent use; the owning unit serializes access.
type StateHolder[T any] struct {
	publisher Publisher[T]
	current   T
	same      func(a, b T) bool
}

// NewStateHolder stores initial, publishes it once, and returns the
// holder. same decides whether a candidate differs from the current
// value; fields it ignores (timestamps) never trigger a publish.
func NewStateHolder[T any](publisher Publisher[T], initial T, same func(a, b T) bool) *StateHolder[T] {
	holder := &StateHolder[T]{
		publisher: publisher,
		current:   initial,
		same:      same,
	}
	publisher.Publish(initial)
	return holder
}

// Current returns the last committed value.
func (h *StateHolder[T]) Current() T { return h.current }

// CommitIfChanged stores and publishes candidate if it differs from
// the current value. Returns whether it published.
func (h *StateHolder[T]) CommitIfChanged(candidate T) bool {
	if h.same(h.current, candidate) {
		return false
	}
	h.current = candidate
	h.publisher.Publish(candidate)
	return true
}
