// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/dsdl"
	"github.com/bureau-foundation/cyphal-bridge/lib/testutil"
	"github.com/bureau-foundation/cyphal-bridge/transport"
)

func TestESCPublishesDisarmedAtConstruction(t *testing.T) {
	fixture := newESCFixture(t, 0)

	if len(fixture.armed.published) != 1 {
		t.Fatalf("armed publishes at construction = %d, want 1", len(fixture.armed.published))
	}
	initial := fixture.armed.published[0]
	if initial.Armed || initial.Prearmed {
		t.Errorf("initial armed state = %+v, want disarmed", initial)
	}
	if !initial.Timestamp.Equal(epoch) {
		t.Errorf("initial timestamp = %v, want %v", initial.Timestamp, epoch)
	}
	if len(fixture.outputs.published) != 0 {
		t.Errorf("outputs published at construction: %d", len(fixture.outputs.published))
	}
}

func TestESCSubscribeClaimsBothPorts(t *testing.T) {
	fixture := newESCFixture(t, 0)
	registrar := newFakeRegistrar()

	if err := fixture.esc.Subscribe(registrar, 22); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	setpoint, ok := registrar.ports[22]
	if !ok || setpoint.extent != dsdl.SetpointVector8ExtentBytes {
		t.Errorf("port 22 subscription = %+v (present %v), want extent %d",
			setpoint, ok, dsdl.SetpointVector8ExtentBytes)
	}
	readiness, ok := registrar.ports[23]
	if !ok || readiness.extent != dsdl.ReadinessExtentBytes {
		t.Errorf("port 23 subscription = %+v (present %v), want extent %d",
			readiness, ok, dsdl.ReadinessExtentBytes)
	}
	if setpoint.timeout != transport.DefaultTransferIDTimeout {
		t.Errorf("timeout = %v, want %v", setpoint.timeout, transport.DefaultTransferIDTimeout)
	}
	if !fixture.esc.HandlesPort(22) || !fixture.esc.HandlesPort(23) || fixture.esc.HandlesPort(24) {
		t.Error("HandlesPort does not match the subscribed pair")
	}

	fixture.esc.Unsubscribe(registrar)
	if len(registrar.ports) != 0 {
		t.Errorf("ports after Unsubscribe = %v, want none", registrar.ports)
	}
	if fixture.esc.HandlesPort(22) {
		t.Error("unsubscribed ESC still handles its old port")
	}
}

func TestESCSubscribeUnsetPort(t *testing.T) {
	fixture := newESCFixture(t, 0)
	err := fixture.esc.Subscribe(newFakeRegistrar(), transport.PortIDUnset)
	if !errors.Is(err, transport.ErrPortUnset) {
		t.Fatalf("Subscribe(unset) error = %v, want ErrPortUnset", err)
	}
}

func TestESCSubscribeRollsBackOnSecondaryFailure(t *testing.T) {
	fixture := newESCFixture(t, 0)
	registrar := newFakeRegistrar()
	registrar.reject[23] = true

	err := fixture.esc.Subscribe(registrar, 22)
	if !errors.Is(err, errRejected) {
		t.Fatalf("Subscribe error = %v, want wrapped errRejected", err)
	}
	if _, ok := registrar.ports[22]; ok {
		t.Error("primary left subscribed after secondary failure")
	}
	if fixture.esc.Registry().Active() {
		t.Error("registry left active after failure")
	}
}

func TestESCIgnoresTransfersBeforeSubscribe(t *testing.T) {
	fixture := newESCFixture(t, 0)
	fixture.esc.OnTransfer(setpointTransfer(22, [8]uint16{}))
	fixture.esc.OnTransfer(readinessTransfer(23, dsdl.ReadinessEngaged))

	if len(fixture.outputs.published) != 0 {
		t.Errorf("outputs published before subscribe: %d", len(fixture.outputs.published))
	}
	if len(fixture.armed.published) != 1 {
		t.Errorf("armed publishes = %d, want only the initial one", len(fixture.armed.published))
	}
}

func TestESCIgnoresForeignPorts(t *testing.T) {
	fixture := newESCFixture(t, 0)
	if err := fixture.esc.Subscribe(newFakeRegistrar(), 22); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	fixture.esc.OnTransfer(setpointTransfer(24, [8]uint16{}))
	fixture.esc.OnTransfer(readinessTransfer(21, dsdl.ReadinessEngaged))

	if len(fixture.outputs.published) != 0 || len(fixture.armed.published) != 1 {
		t.Errorf("foreign ports produced publishes: outputs=%d armed=%d",
			len(fixture.outputs.published), len(fixture.armed.published))
	}
	if len(fixture.observer.counts) != 0 {
		t.Errorf("observer saw foreign transfers: %v", fixture.observer.counts)
	}
}

func TestESCSetpointEveryTransferPublishes(t *testing.T) {
	fixture := newESCFixture(t, 0)
	if err := fixture.esc.Subscribe(newFakeRegistrar(), 22); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	values := [8]uint16{1000, 2000, 3000, 4000, 0, 0, 0, 0}
	fixture.clock.Advance(5 * time.Millisecond)
	fixture.esc.OnTransfer(setpointTransfer(22, values))
	fixture.clock.Advance(5 * time.Millisecond)
	fixture.esc.OnTransfer(setpointTransfer(22, values))

	if len(fixture.outputs.published) != 2 {
		t.Fatalf("output publishes = %d, want 2 (identical values still publish)", len(fixture.outputs.published))
	}
	want := [8]float32{-0.756, -0.512, -0.268, -0.024, -1, -1, -1, -1}
	record := fixture.outputs.published[0]
	for i := range want {
		if !approxEqual(record.Value[i], want[i], 1e-3) {
			t.Errorf("value[%d] = %v, want %v", i, record.Value[i], want[i])
		}
	}
	if !record.Timestamp.Equal(epoch.Add(5 * time.Millisecond)) {
		t.Errorf("first timestamp = %v, want clock time", record.Timestamp)
	}
	if !fixture.outputs.published[1].Timestamp.Equal(epoch.Add(10 * time.Millisecond)) {
		t.Errorf("second timestamp = %v, want clock time", fixture.outputs.published[1].Timestamp)
	}
	if fixture.observer.counts["esc.0.setpoint/delivered"] != 2 {
		t.Errorf("observer counts = %v", fixture.observer.counts)
	}
}

func TestESCMalformedSetpointDropped(t *testing.T) {
	fixture := newESCFixture(t, 0)
	if err := fixture.esc.Subscribe(newFakeRegistrar(), 22); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	fixture.esc.OnTransfer(transport.Transfer{PortID: 22, Payload: []byte{1, 2, 3}, PayloadSize: 3})

	if len(fixture.outputs.published) != 0 {
		t.Errorf("malformed setpoint published %d records", len(fixture.outputs.published))
	}
	if len(fixture.armed.published) != 1 || fixture.esc.Armed().Armed || fixture.esc.Armed().Prearmed {
		t.Errorf("armed state disturbed by malformed setpoint: %+v", fixture.esc.Armed())
	}
	if fixture.observer.counts["esc.0.setpoint/decode_failed"] != 1 {
		t.Errorf("observer counts = %v", fixture.observer.counts)
	}

	// The next well-formed transfer is handled normally.
	fixture.esc.OnTransfer(setpointTransfer(22, [8]uint16{8191}))
	if len(fixture.outputs.published) != 1 {
		t.Fatalf("publishes after recovery = %d, want 1", len(fixture.outputs.published))
	}
	if fixture.outputs.published[0].Value[0] != 1 {
		t.Errorf("value[0] = %v, want 1", fixture.outputs.published[0].Value[0])
	}
}

func TestESCReadinessPublishesOnlyOnChange(t *testing.T) {
	fixture := newESCFixture(t, 0)
	if err := fixture.esc.Subscribe(newFakeRegistrar(), 22); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	steps := []struct {
		readiness dsdl.Readiness
		armed     bool
		prearmed  bool
		publishes int
	}{
		{dsdl.ReadinessSleep, false, false, 1},
		{dsdl.ReadinessStandby, false, true, 2},
		{dsdl.ReadinessStandby, false, true, 2},
		{dsdl.Readiness(1), false, true, 2},
		{dsdl.ReadinessEngaged, true, true, 3},
		{dsdl.ReadinessEngaged, true, true, 3},
		{dsdl.ReadinessSleep, false, false, 4},
	}
	for i, step := range steps {
		fixture.clock.Advance(time.Second)
		fixture.esc.OnTransfer(readinessTransfer(23, step.readiness))

		state := fixture.esc.Armed()
		if state.Armed != step.armed || state.Prearmed != step.prearmed {
			t.Errorf("step %d (%v): state = %+v, want armed=%v prearmed=%v",
				i, step.readiness, state, step.armed, step.prearmed)
		}
		if got := len(fixture.armed.published); got != step.publishes {
			t.Errorf("step %d (%v): total publishes = %d, want %d", i, step.readiness, got, step.publishes)
		}
	}

	// The timestamp moves only when the state changes.
	last := fixture.armed.published[len(fixture.armed.published)-1]
	if !last.Timestamp.Equal(epoch.Add(7 * time.Second)) {
		t.Errorf("last publish timestamp = %v, want %v", last.Timestamp, epoch.Add(7*time.Second))
	}
	engaged := fixture.armed.published[2]
	if !engaged.Timestamp.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("engaged timestamp = %v, want %v", engaged.Timestamp, epoch.Add(5*time.Second))
	}
}

func TestESCMalformedReadinessDropped(t *testing.T) {
	fixture := newESCFixture(t, 0)
	if err := fixture.esc.Subscribe(newFakeRegistrar(), 22); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	fixture.esc.OnTransfer(transport.Transfer{PortID: 23, Payload: nil, PayloadSize: 0})

	if len(fixture.armed.published) != 1 {
		t.Errorf("armed publishes = %d, want only the initial one", len(fixture.armed.published))
	}
	if fixture.observer.counts["esc.0.readiness/decode_failed"] != 1 {
		t.Errorf("observer counts = %v", fixture.observer.counts)
	}
}

func TestESCUnitsAreIndependent(t *testing.T) {
	first := newESCFixture(t, 0)
	second := newESCFixture(t, 1)
	registrar := newFakeRegistrar()
	if err := first.esc.Subscribe(registrar, 22); err != nil {
		t.Fatalf("Subscribe first: %v", err)
	}
	if err := second.esc.Subscribe(registrar, 40); err != nil {
		t.Fatalf("Subscribe second: %v", err)
	}

	first.esc.OnTransfer(readinessTransfer(23, dsdl.ReadinessEngaged))
	second.esc.OnTransfer(readinessTransfer(23, dsdl.ReadinessEngaged))

	if !first.esc.Armed().Armed {
		t.Error("first unit not armed")
	}
	if second.esc.Armed().Armed || len(second.armed.published) != 1 {
		t.Errorf("second unit affected by first unit's port: %+v", second.esc.Armed())
	}
}

func TestESCPublishesToBus(t *testing.T) {
	b := bus.New()
	outputs := bus.Subscribe[bus.OutputControl](b, bus.TopicOutputControlMC, 4)
	defer outputs.Close()

	esc := NewESC(ESCConfig{
		Outputs: bus.NewPublication[bus.OutputControl](b, bus.TopicOutputControlMC),
		Armed:   bus.NewPublication[bus.ActuatorArmed](b, bus.TopicActuatorArmed),
	})
	if _, _, ok := bus.Latest[bus.ActuatorArmed](b, bus.TopicActuatorArmed); !ok {
		t.Fatal("no armed state on the bus after construction")
	}
	if err := esc.Subscribe(newFakeRegistrar(), 100); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	esc.OnTransfer(setpointTransfer(100, [8]uint16{8191, 0}))

	record := testutil.RequireReceive(t, outputs.C, 5*time.Second, "waiting for output record")
	if record.Value[0] != 1 || record.Value[1] != -1 {
		t.Errorf("record = %v", record.Value)
	}
}
