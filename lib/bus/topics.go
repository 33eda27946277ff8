// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import "time"

// Topic names a channel on the bus.
type Topic string

const (
	// TopicOutputControlMC carries normalized multicopter actuator
	// outputs. Whatever output driver is mapped to the motor functions
	// consumes it.
	TopicOutputControlMC Topic = "output_control_mc"

	// TopicActuatorArmed carries the vehicle arming state.
	TopicActuatorArmed Topic = "actuator_armed"
)

// OutputChannels is the number of values in an OutputControl record.
const OutputChannels = 8

// OutputControl is one frame of normalized actuator outputs, each
// nominally in [-1, 1].
type OutputControl struct {
	Timestamp time.Time               `cbor:"timestamp"`
	Value     [OutputChannels]float32 `cbor:"value"`
}

// ActuatorArmed is the vehicle's actuation permission.
type ActuatorArmed struct {
	Timestamp time.Time `cbor:"timestamp"`
	Armed     bool      `cbor:"armed"`
	Prearmed  bool      `cbor:"prearmed"`
}

// SameState reports whether both records carry the same flags. The
// timestamp is not compared.
func (a ActuatorArmed) SameState(other ActuatorArmed) bool {
	return a.Armed == other.Armed && a.Prearmed == other.Prearmed
}
