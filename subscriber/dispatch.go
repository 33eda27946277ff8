// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"log/slog"

	"github.com/bureau-foundation/cyphal-bridge/transport"
)

// Outcome classifies what happened to one transfer.
type Outcome string

const (
	OutcomeDelivered    Outcome = "delivered"
	OutcomeDecodeFailed Outcome = "decode_failed"
	OutcomeUnmatched    Outcome = "unmatched"
)

// Observer is told the outcome of every dispatched transfer.
// lib/metrics provides the Prometheus implementation.
type Observer interface {
	Observe(route string, outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) Observe(string, Outcome) {}

// Route binds a port predicate to a decoder and a translation.
type Route struct {
	Name   string
	Match  func(port transport.PortID) bool
	handle func(transfer transport.Transfer) error
}

// NewRoute builds a route for message type T. decode receives the
// payload and its declared size; translate runs only if decode
// succeeded.
func NewRoute[T any](name string, match func(transport.PortID) bool,
	decode func(payload []byte, size int) (T, error), translate func(T)) Route {
	return Route{
		Name:  name,
		Match: match,
		handle: func(transfer transport.Transfer) error {
			value, err := decode(transfer.Payload, transfer.PayloadSize)
			if err != nil {
				return err
			}
			translate(value)
			return nil
		},
	}
}

// Dispatcher sends each transfer to the first route that matches its
// port. Not safe for concurrent use; the transport delivers transfers
// one at a time.
type Dispatcher struct {
	routes   []Route
	logger   *slog.Logger
	observer Observer
}

// Compile-time interface check.
var _ transport.Handler = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher with no routes. A nil logger
// discards; observer may be nil.
func NewDispatcher(logger *slog.Logger, observer Observer) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Dispatcher{logger: logger, observer: observer}
}

// Register appends a route. Routes are tried in registration order.
func (d *Dispatcher) Register(route Route) {
	d.routes = append(d.routes, route)
}

// OnTransfer decodes and translates transfer. Decode failures and
// unmatched ports are absorbed.
func (d *Dispatcher) OnTransfer(transfer transport.Transfer) {
	for _, route := range d.routes {
		if !route.Match(transfer.PortID) {
			continue
		}
		if err := route.handle(transfer); err != nil {
			d.logger.Debug("dropping transfer",
				"route", route.Name,
				"port", transfer.PortID,
				"source", transfer.SourceNodeID,
				"transfer_id", transfer.TransferID,
				"error", err,
			)
			d.observer.Observe(route.Name, OutcomeDecodeFailed)
			return
		}
		d.observer.Observe(route.Name, OutcomeDelivered)
		return
	}
	d.observer.Observe("", OutcomeUnmatched)
}
