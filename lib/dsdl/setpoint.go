// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dsdl

const (
	// SetpointCount is the number of actuator setpoints in a vector.
	SetpointCount = 8

	// SetpointWidth is the bit width of one setpoint.
	SetpointWidth = 13

	// SetpointMax is the full-scale setpoint value.
	SetpointMax = 1<<SetpointWidth - 1

	// SetpointVector8ExtentBytes is the serialized size of
	// SetpointVector8. The type is sealed, so extent equals size.
	SetpointVector8ExtentBytes = (SetpointCount*SetpointWidth + 7) / 8
)

// SetpointVector8 is reg.drone.service.actuator.common.sp.Vector8.0.1
// with fixed-point magnitudes.
type SetpointVector8 struct {
	Value [SetpointCount]uint16
}

// DecodeSetpointVector8 deserializes a setpoint vector from the first
// size bytes of payload.
func DecodeSetpointVector8(payload []byte, size int) (SetpointVector8, error) {
	var vector SetpointVector8
	reader, err := NewReader(payload, size)
	if err != nil {
		return vector, err
	}
	for i := range vector.Value {
		raw, err := reader.Unsigned(SetpointWidth)
		if err != nil {
			return SetpointVector8{}, err
		}
		vector.Value[i] = uint16(raw)
	}
	return vector, nil
}

// Encode serializes the vector. Values above SetpointMax saturate.
func (v SetpointVector8) Encode() []byte {
	writer := NewWriter(SetpointVector8ExtentBytes)
	for _, value := range v.Value {
		if value > SetpointMax {
			value = SetpointMax
		}
		writer.Unsigned(uint64(value), SetpointWidth)
	}
	return writer.Bytes()
}
