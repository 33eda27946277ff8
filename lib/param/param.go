// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package param holds the bridge's named integer registers.
//
// Port identifiers are not compiled in: each subscriber looks up a
// register named uavcan.sub.<subject>.<instance>.id (see [SubjectID])
// and subscribes to whatever it holds. The store is seeded from the
// config file and may be changed at runtime; subscribers compare the
// store's [Store.Generation] to notice changes cheaply.
package param

import (
	"fmt"
	"sort"
	"sync"
)

// PortUnset is the register value meaning "no subject assigned".
const PortUnset = 65535

// SubjectID returns the register name holding the subject ID for the
// given subscriber name and instance, e.g. "uavcan.sub.esc.0.id".
func SubjectID(name string, instance uint8) string {
	return fmt.Sprintf("uavcan.sub.%s.%d.id", name, instance)
}

// Store is a set of named integer registers. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	values     map[string]int64
	generation uint64
}

// NewStore returns a store holding a copy of initial.
func NewStore(initial map[string]int64) *Store {
	values := make(map[string]int64, len(initial))
	for name, value := range initial {
		values[name] = value
	}
	return &Store{values: values}
}

// Get returns the value of name and whether it is set.
func (s *Store) Get(name string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return value, ok
}

// Set assigns name. Returns whether the value changed.
func (s *Store) Set(name string, value int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.values[name]; ok && current == value {
		return false
	}
	s.values[name] = value
	s.generation++
	return true
}

// Delete removes name. Returns whether it was set.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[name]; !ok {
		return false
	}
	delete(s.values, name)
	s.generation++
	return true
}

// Generation counts changes made through Set and Delete.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Names returns the set register names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
