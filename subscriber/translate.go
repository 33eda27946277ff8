// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"github.com/bureau-foundation/cyphal-bridge/lib/dsdl"
)

// NormalizeSetpoint maps a raw setpoint onto [-1, 1] as
// 2*(raw/8191) - 1. Values above the encoder's full scale are not
// clamped and map above 1.
func NormalizeSetpoint(raw uint16) float32 {
	return 2*(float32(raw)/dsdl.SetpointMax) - 1
}

// ArmedFromReadiness maps a readiness code onto the armed and prearmed
// flags. ok is false for codes the mapping does not assign.
func ArmedFromReadiness(readiness dsdl.Readiness) (armed, prearmed, ok bool) {
	switch readiness {
	case dsdl.ReadinessSleep:
		return false, false, true
	case dsdl.ReadinessStandby:
		return false, true, true
	case dsdl.ReadinessEngaged:
		return true, true, true
	default:
		return false, false, false
	}
}
