// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"testing"

	"github.com/bureau-foundation/cyphal-bridge/lib/dsdl"
)

func TestNormalizeSetpoint(t *testing.T) {
	cases := []struct {
		raw  uint16
		want float32
	}{
		{0, -1},
		{8191, 1},
		{1000, -0.756},
		{2000, -0.512},
		{3000, -0.268},
		{4000, -0.024},
		{4095, 0},
		{4096, 0},
	}
	for _, tc := range cases {
		if got := NormalizeSetpoint(tc.raw); !approxEqual(got, tc.want, 1e-3) {
			t.Errorf("NormalizeSetpoint(%d) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeSetpointIsMonotonic(t *testing.T) {
	previous := NormalizeSetpoint(0)
	for raw := uint16(1); raw <= dsdl.SetpointMax; raw++ {
		current := NormalizeSetpoint(raw)
		if current < previous {
			t.Fatalf("NormalizeSetpoint(%d) = %v < NormalizeSetpoint(%d) = %v", raw, current, raw-1, previous)
		}
		if current < -1 || current > 1 {
			t.Fatalf("NormalizeSetpoint(%d) = %v outside [-1, 1]", raw, current)
		}
		previous = current
	}
}

func TestNormalizeSetpointDoesNotClamp(t *testing.T) {
	if got := NormalizeSetpoint(10000); got <= 1 {
		t.Errorf("NormalizeSetpoint(10000) = %v, want > 1", got)
	}
}

func TestArmedFromReadiness(t *testing.T) {
	cases := []struct {
		readiness dsdl.Readiness
		armed     bool
		prearmed  bool
		ok        bool
	}{
		{dsdl.ReadinessSleep, false, false, true},
		{dsdl.ReadinessStandby, false, true, true},
		{dsdl.ReadinessEngaged, true, true, true},
		{dsdl.Readiness(1), false, false, false},
	}
	for _, tc := range cases {
		armed, prearmed, ok := ArmedFromReadiness(tc.readiness)
		if armed != tc.armed || prearmed != tc.prearmed || ok != tc.ok {
			t.Errorf("ArmedFromReadiness(%v) = (%v, %v, %v), want (%v, %v, %v)",
				tc.readiness, armed, prearmed, ok, tc.armed, tc.prearmed, tc.ok)
		}
	}
}
