// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"sync"
	"sync/atomic"
)

// Message is one publication as seen by an untyped consumer.
type Message struct {
	Topic      Topic
	Generation uint64
	Value      any
}

// Bus is a set of topics. The zero value is not usable; call New.
// Bus is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	topics map[Topic]*topicState

	// wildcard subscribers receive every topic.
	wildcard []*subscriber
}

type topicState struct {
	latest      any
	generation  uint64
	subscribers []*subscriber
}

type subscriber struct {
	deliver func(Message)
	dropped atomic.Uint64
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{topics: make(map[Topic]*topicState)}
}

func (b *Bus) topicLocked(topic Topic) *topicState {
	state, ok := b.topics[topic]
	if !ok {
		state = &topicState{}
		b.topics[topic] = state
	}
	return state
}

func (b *Bus) publish(topic Topic, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.topicLocked(topic)
	state.latest = value
	state.generation++

	message := Message{Topic: topic, Generation: state.generation, Value: value}
	for _, sub := range state.subscribers {
		sub.deliver(message)
	}
	for _, sub := range b.wildcard {
		sub.deliver(message)
	}
}

// Generation returns how many times topic has been published.
func (b *Bus) Generation(topic Topic) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.topics[topic]; ok {
		return state.generation
	}
	return 0
}

// Publisher is anything that accepts records of type T. Publication
// implements it; tests substitute recorders.
type Publisher[T any] interface {
	Publish(value T)
}

// Publication is a typed publish handle for one topic.
type Publication[T any] struct {
	bus   *Bus
	topic Topic
}

// NewPublication returns a handle that publishes T on topic.
func NewPublication[T any](b *Bus, topic Topic) *Publication[T] {
	return &Publication[T]{bus: b, topic: topic}
}

// Publish stores value as the topic's latest and delivers it to every
// subscriber. Never blocks on consumers.
func (p *Publication[T]) Publish(value T) {
	p.bus.publish(p.topic, value)
}

// Topic returns the topic this handle publishes on.
func (p *Publication[T]) Topic() Topic { return p.topic }

// Latest returns the last value published on topic and its generation.
// ok is false if nothing of type T has been published yet.
func Latest[T any](b *Bus, topic Topic) (value T, generation uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, exists := b.topics[topic]
	if !exists || state.generation == 0 {
		return value, 0, false
	}
	value, ok = state.latest.(T)
	return value, state.generation, ok
}
