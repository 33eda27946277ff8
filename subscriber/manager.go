// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/cyphal-bridge/lib/param"
	"github.com/bureau-foundation/cyphal-bridge/transport"
)

// Subscriber is one logical unit that owns a set of subjects.
type Subscriber interface {
	transport.Handler

	// Name is the subject name used in parameter registers.
	Name() string
	Instance() uint8

	// Subscribe claims the unit's subjects, deriving them from
	// primary. Unsubscribe releases them.
	Subscribe(registrar transport.Registrar, primary transport.PortID) error
	Unsubscribe(registrar transport.Registrar)

	HandlesPort(port transport.PortID) bool
}

type managed struct {
	subscriber Subscriber
	port       transport.PortID
}

// Manager keeps a set of subscribers subscribed to the subjects named
// by their parameter registers and routes transfers to them. Safe for
// concurrent use: UpdateParams may run while the transport delivers.
type Manager struct {
	registrar transport.Registrar
	params    *param.Store
	logger    *slog.Logger

	mu          sync.Mutex
	subscribers []*managed
	generation  uint64
	synced      bool
}

// Compile-time interface check.
var _ transport.Handler = (*Manager)(nil)

// NewManager returns a manager with no subscribers. A nil logger
// discards.
func NewManager(registrar transport.Registrar, params *param.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		registrar: registrar,
		params:    params,
		logger:    logger,
	}
}

// Add registers a subscriber. It is not subscribed until the next
// UpdateParams.
func (m *Manager) Add(subscriber Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, &managed{
		subscriber: subscriber,
		port:       transport.PortIDUnset,
	})
	m.synced = false
}

// UpdateParams re-reads every subscriber's subject register and
// re-subscribes those whose value changed. A missing register, the
// PortUnset value, or an out-of-range value leaves the subscriber
// unsubscribed. Returns every subscription error joined; after an
// error the next call retries the failed subscribers even if no
// register changed.
func (m *Manager) UpdateParams() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	generation := m.params.Generation()
	if m.synced && generation == m.generation {
		return nil
	}

	var errs []error
	for _, entry := range m.subscribers {
		name := param.SubjectID(entry.subscriber.Name(), entry.subscriber.Instance())
		port := m.lookup(name)
		if port == entry.port {
			continue
		}

		entry.subscriber.Unsubscribe(m.registrar)
		entry.port = transport.PortIDUnset
		if port == transport.PortIDUnset {
			m.logger.Info("subscriber disabled", "param", name)
			continue
		}
		if err := entry.subscriber.Subscribe(m.registrar, port); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		entry.port = port
	}

	m.generation = generation
	m.synced = len(errs) == 0
	return errors.Join(errs...)
}

func (m *Manager) lookup(name string) transport.PortID {
	value, ok := m.params.Get(name)
	if !ok || value == param.PortUnset {
		return transport.PortIDUnset
	}
	if value < 0 || value > int64(transport.PortIDMax) {
		m.logger.Warn("subject id out of range", "param", name, "value", value)
		return transport.PortIDUnset
	}
	return transport.PortID(value)
}

// OnTransfer hands transfer to the first subscriber owning its port.
func (m *Manager) OnTransfer(transfer transport.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.subscribers {
		if entry.subscriber.HandlesPort(transfer.PortID) {
			entry.subscriber.OnTransfer(transfer)
			return
		}
	}
}

// Close unsubscribes every subscriber.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.subscribers {
		entry.subscriber.Unsubscribe(m.registrar)
		entry.port = transport.PortIDUnset
	}
	m.synced = false
}
