// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/clock"
	"github.com/bureau-foundation/cyphal-bridge/lib/dsdl"
	"github.com/bureau-foundation/cyphal-bridge/transport"
)

// ESCName is the subscriber name used in parameter registers.
const ESCName = "esc"

// ESC bridges one ESC group: setpoints on the primary subject and
// readiness on the secondary.
type ESC struct {
	registry   *PortRegistry
	dispatcher *Dispatcher
	outputs    bus.Publisher[bus.OutputControl]
	armed      *bus.StateHolder[bus.ActuatorArmed]
	clock      clock.Clock
	logger     *slog.Logger
}

// Compile-time interface check.
var _ Subscriber = (*ESC)(nil)

// ESCConfig holds the dependencies of an ESC unit. Outputs and Armed
// are required; a nil Clock means clock.Real() and a nil Logger
// discards.
type ESCConfig struct {
	Instance uint8
	Outputs  bus.Publisher[bus.OutputControl]
	Armed    bus.Publisher[bus.ActuatorArmed]
	Clock    clock.Clock
	Logger   *slog.Logger
	Observer Observer
}

// NewESC builds an inactive ESC unit and publishes its initial
// disarmed state.
func NewESC(config ESCConfig) *ESC {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	logger := config.Logger.With("subscriber", ESCName, "instance", config.Instance)

	esc := &ESC{
		registry: NewPortRegistry(config.Instance, OffsetSecondary(1)),
		outputs:  config.Outputs,
		clock:    config.Clock,
		logger:   logger,
	}
	esc.armed = bus.NewStateHolder(config.Armed,
		bus.ActuatorArmed{Timestamp: config.Clock.Now()},
		bus.ActuatorArmed.SameState)

	prefix := fmt.Sprintf("%s.%d", ESCName, config.Instance)
	esc.dispatcher = NewDispatcher(logger, config.Observer)
	esc.dispatcher.Register(NewRoute(prefix+".setpoint",
		esc.registry.IsPrimary, dsdl.DecodeSetpointVector8, esc.onSetpoint))
	esc.dispatcher.Register(NewRoute(prefix+".readiness",
		esc.registry.IsSecondary, dsdl.DecodeReadiness, esc.onReadiness))
	return esc
}

// Name returns ESCName.
func (e *ESC) Name() string { return ESCName }

// Instance returns the ESC group index.
func (e *ESC) Instance() uint8 { return e.registry.Instance() }

// Registry exposes the unit's port pair.
func (e *ESC) Registry() *PortRegistry { return e.registry }

// Armed returns the last committed armed state.
func (e *ESC) Armed() bus.ActuatorArmed { return e.armed.Current() }

// HandlesPort reports whether port is one of the unit's subjects.
func (e *ESC) HandlesPort(port transport.PortID) bool {
	return e.registry.BelongsTo(port)
}

// Subscribe activates the registry with primary and subscribes both
// subjects. If the secondary subscription fails the primary is
// released again.
func (e *ESC) Subscribe(registrar transport.Registrar, primary transport.PortID) error {
	e.registry.Activate(primary)
	if !e.registry.Active() {
		return fmt.Errorf("esc %d: %w", e.Instance(), transport.ErrPortUnset)
	}
	timeout := transport.DefaultTransferIDTimeout
	if err := registrar.Subscribe(e.registry.Primary(), dsdl.SetpointVector8ExtentBytes, timeout); err != nil {
		e.registry.Deactivate()
		return fmt.Errorf("esc %d: subscribing setpoints: %w", e.Instance(), err)
	}
	if err := registrar.Subscribe(e.registry.Secondary(), dsdl.ReadinessExtentBytes, timeout); err != nil {
		registrar.Unsubscribe(e.registry.Primary())
		e.registry.Deactivate()
		return fmt.Errorf("esc %d: subscribing readiness: %w", e.Instance(), err)
	}
	e.logger.Info("subscribed",
		"setpoint_port", e.registry.Primary(),
		"readiness_port", e.registry.Secondary(),
	)
	return nil
}

// Unsubscribe releases both subjects and deactivates the registry.
func (e *ESC) Unsubscribe(registrar transport.Registrar) {
	if !e.registry.Active() {
		return
	}
	registrar.Unsubscribe(e.registry.Primary())
	registrar.Unsubscribe(e.registry.Secondary())
	e.logger.Info("unsubscribed",
		"setpoint_port", e.registry.Primary(),
		"readiness_port", e.registry.Secondary(),
	)
	e.registry.Deactivate()
}

// OnTransfer dispatches a transfer received on one of the unit's
// subjects. Transfers on other ports are ignored.
func (e *ESC) OnTransfer(transfer transport.Transfer) {
	if !e.registry.BelongsTo(transfer.PortID) {
		return
	}
	e.dispatcher.OnTransfer(transfer)
}

func (e *ESC) onSetpoint(setpoint dsdl.SetpointVector8) {
	record := bus.OutputControl{Timestamp: e.clock.Now()}
	for i, raw := range setpoint.Value {
		record.Value[i] = NormalizeSetpoint(raw)
	}
	e.outputs.Publish(record)
}

func (e *ESC) onReadiness(readiness dsdl.Readiness) {
	armed, prearmed, ok := ArmedFromReadiness(readiness)
	if !ok {
		e.logger.Debug("ignoring unassigned readiness code", "readiness", uint8(readiness))
		return
	}
	if e.armed.CommitIfChanged(bus.ActuatorArmed{
		Timestamp: e.clock.Now(),
		Armed:     armed,
		Prearmed:  prearmed,
	}) {
		e.logger.Info("armed state changed", "readiness", readiness, "armed", armed, "prearmed", prearmed)
	}
}
