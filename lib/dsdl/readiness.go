// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dsdl

import "fmt"

// ReadinessExtentBytes is the extent of reg.drone.service.common.Readiness.0.1.
const ReadinessExtentBytes = 1

const readinessWidth = 2

// Readiness is reg.drone.service.common.Readiness.0.1. Value 1 is not
// assigned by the current revision; it decodes successfully and is left
// to the consumer to ignore.
type Readiness uint8

const (
	// ReadinessSleep is the idle state: actuators unpowered.
	ReadinessSleep Readiness = 0
	// ReadinessStandby means actuators are powered but not driving.
	ReadinessStandby Readiness = 2
	// ReadinessEngaged means actuators follow setpoints.
	ReadinessEngaged Readiness = 3
)

func (r Readiness) String() string {
	switch r {
	case ReadinessSleep:
		return "sleep"
	case ReadinessStandby:
		return "standby"
	case ReadinessEngaged:
		return "engaged"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// ParseReadiness parses the name returned by String.
func ParseReadiness(name string) (Readiness, error) {
	switch name {
	case "sleep":
		return ReadinessSleep, nil
	case "standby":
		return ReadinessStandby, nil
	case "engaged":
		return ReadinessEngaged, nil
	default:
		return 0, fmt.Errorf("unknown readiness %q (want sleep, standby, or engaged)", name)
	}
}

// DecodeReadiness deserializes a readiness code from the first size
// bytes of payload.
func DecodeReadiness(payload []byte, size int) (Readiness, error) {
	reader, err := NewReader(payload, size)
	if err != nil {
		return 0, err
	}
	raw, err := reader.Unsigned(readinessWidth)
	if err != nil {
		return 0, err
	}
	return Readiness(raw), nil
}

// Encode serializes the readiness code.
func (r Readiness) Encode() []byte {
	writer := NewWriter(ReadinessExtentBytes)
	writer.Unsigned(uint64(r), readinessWidth)
	return writer.Bytes()
}
