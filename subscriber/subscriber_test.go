// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/clock"
	"github.com/bureau-foundation/cyphal-bridge/lib/dsdl"
	"github.com/bureau-foundation/cyphal-bridge/transport"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingPublisher[T any] struct {
	published []T
}

func (p *recordingPublisher[T]) Publish(value T) {
	p.published = append(p.published, value)
}

type subscription struct {
	extent  int
	timeout time.Duration
}

// fakeRegistrar records subscriptions and can be told to reject a port.
type fakeRegistrar struct {
	ports  map[transport.PortID]subscription
	reject map[transport.PortID]bool
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{
		ports:  make(map[transport.PortID]subscription),
		reject: make(map[transport.PortID]bool),
	}
}

var errRejected = errors.New("rejected")

func (r *fakeRegistrar) Subscribe(port transport.PortID, extent int, timeout time.Duration) error {
	if r.reject[port] {
		return errRejected
	}
	r.ports[port] = subscription{extent: extent, timeout: timeout}
	return nil
}

func (r *fakeRegistrar) Unsubscribe(port transport.PortID) bool {
	_, ok := r.ports[port]
	delete(r.ports, port)
	return ok
}

// countingObserver tallies outcomes per route.
type countingObserver struct {
	counts map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{counts: make(map[string]int)}
}

func (o *countingObserver) Observe(route string, outcome Outcome) {
	o.counts[route+"/"+string(outcome)]++
}

type escFixture struct {
	esc      *ESC
	outputs  *recordingPublisher[bus.OutputControl]
	armed    *recordingPublisher[bus.ActuatorArmed]
	clock    *clock.FakeClock
	observer *countingObserver
}

func newESCFixture(t *testing.T, instance uint8) *escFixture {
	t.Helper()
	fixture := &escFixture{
		outputs:  &recordingPublisher[bus.OutputControl]{},
		armed:    &recordingPublisher[bus.ActuatorArmed]{},
		clock:    clock.Fake(epoch),
		observer: newCountingObserver(),
	}
	fixture.esc = NewESC(ESCConfig{
		Instance: instance,
		Outputs:  fixture.outputs,
		Armed:    fixture.armed,
		Clock:    fixture.clock,
		Logger:   slog.New(slog.DiscardHandler),
		Observer: fixture.observer,
	})
	return fixture
}

func setpointTransfer(port transport.PortID, values [8]uint16) transport.Transfer {
	payload := dsdl.SetpointVector8{Value: values}.Encode()
	return transport.Transfer{PortID: port, Payload: payload, PayloadSize: len(payload)}
}

func readinessTransfer(port transport.PortID, readiness dsdl.Readiness) transport.Transfer {
	payload := readiness.Encode()
	return transport.Transfer{PortID: port, Payload: payload, PayloadSize: len(payload)}
}

func approxEqual(a, b float32, tolerance float64) bool {
	return math.Abs(float64(a)-float64(b)) <= tolerance
}
