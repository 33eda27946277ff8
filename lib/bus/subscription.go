// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

// Subscription delivers publications on C. Close detaches it; C is
// not closed so a consumer selecting on it alongside a context does not
// see spurious zero values.
type Subscription[T any] struct {
	C <-chan T

	bus  *Bus
	sub  *subscriber
	stop func()
}

// Dropped returns how many records were discarded because C was full.
func (s *Subscription[T]) Dropped() uint64 { return s.sub.dropped.Load() }

// Close detaches the subscription from the bus. Safe to call more
// than once.
func (s *Subscription[T]) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.stop()
}

// Subscribe attaches a subscription for records of type T on topic.
// depth is the channel capacity (minimum 1). Values of other types
// published on the topic are skipped.
func Subscribe[T any](b *Bus, topic Topic, depth int) *Subscription[T] {
	channel := make(chan T, max(depth, 1))
	sub := &subscriber{}
	sub.deliver = func(message Message) {
		value, ok := message.Value.(T)
		if !ok {
			return
		}
		offer(channel, value, sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	state := b.topicLocked(topic)
	state.subscribers = append(state.subscribers, sub)

	return &Subscription[T]{
		C:   channel,
		bus: b,
		sub: sub,
		stop: func() {
			state.subscribers = without(state.subscribers, sub)
		},
	}
}

// SubscribeAll attaches a subscription that receives every publication
// on every topic.
func (b *Bus) SubscribeAll(depth int) *Subscription[Message] {
	channel := make(chan Message, max(depth, 1))
	sub := &subscriber{}
	sub.deliver = func(message Message) {
		offer(channel, message, sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, sub)

	return &Subscription[Message]{
		C:   channel,
		bus: b,
		sub: sub,
		stop: func() {
			b.wildcard = without(b.wildcard, sub)
		},
	}
}

// offer sends value without blocking, evicting the oldest buffered
// value when the channel is full. Callers hold the bus lock, so there
// is exactly one sender per channel at a time.
func offer[T any](channel chan T, value T, sub *subscriber) {
	select {
	case channel <- value:
		return
	default:
	}
	select {
	case <-channel:
		sub.dropped.Add(1)
	default:
	}
	select {
	case channel <- value:
	default:
		sub.dropped.Add(1)
	}
}

func without(subscribers []*subscriber, target *subscriber) []*subscriber {
	kept := subscribers[:0]
	for _, sub := range subscribers {
		if sub != target {
			kept = append(kept, sub)
		}
	}
	return kept
}
