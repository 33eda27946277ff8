// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"time"
)

// PortID is a Cyphal subject ID.
type PortID uint16

const (
	// PortIDMax is the largest valid subject ID.
	PortIDMax PortID = 8191

	// PortIDUnset marks a port that has not been configured. It is the
	// value a port parameter holds until an integrator assigns one.
	PortIDUnset PortID = 0xFFFF
)

// Valid reports whether p is an assignable subject ID.
func (p PortID) Valid() bool { return p <= PortIDMax }

// NodeID is a Cyphal node ID.
type NodeID uint8

const (
	// NodeIDMax is the largest valid node ID on CAN.
	NodeIDMax NodeID = 127

	// NodeIDUnset marks an anonymous transfer's source.
	NodeIDUnset NodeID = 0xFF
)

// Priority is a Cyphal transfer priority; lower is more urgent.
type Priority uint8

const (
	PriorityExceptional Priority = iota
	PriorityImmediate
	PriorityFast
	PriorityHigh
	PriorityNominal
	PriorityLow
	PrioritySlow
	PriorityOptional
)

var priorityNames = [...]string{
	"exceptional", "immediate", "fast", "high", "nominal", "low", "slow", "optional",
}

func (p Priority) String() string {
	if int(p) < len(priorityNames) {
		return priorityNames[p]
	}
	return fmt.Sprintf("priority(%d)", uint8(p))
}

// ParsePriority parses the name returned by String.
func ParsePriority(name string) (Priority, error) {
	for i, candidate := range priorityNames {
		if candidate == name {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", name)
}

// TransferID is the 5-bit rolling transfer counter used on CAN.
type TransferID uint8

const transferIDModulo = 32

// DefaultTransferIDTimeout is the session timeout subscribers use
// unless they have reason to pick another.
const DefaultTransferIDTimeout = 2 * time.Second

var (
	// ErrPortUnset means Subscribe was called with PortIDUnset or an
	// out-of-range subject ID.
	ErrPortUnset = errors.New("transport: port ID unset or out of range")

	// ErrPayloadTooLarge means an anonymous transfer does not fit in
	// one frame.
	ErrPayloadTooLarge = errors.New("transport: payload does not fit")
)

// Transfer is one reassembled message.
type Transfer struct {
	// Timestamp is when the first frame of the transfer arrived.
	Timestamp time.Time

	Priority     Priority
	PortID       PortID
	SourceNodeID NodeID
	TransferID   TransferID

	// Payload holds at most the subscription extent. PayloadSize is
	// the number of valid bytes in Payload.
	Payload     []byte
	PayloadSize int
}

// Handler consumes transfers. OnTransfer runs on the transport's
// receive goroutine and must not block.
type Handler interface {
	OnTransfer(transfer Transfer)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(transfer Transfer)

// OnTransfer calls f.
func (f HandlerFunc) OnTransfer(transfer Transfer) { f(transfer) }

// Registrar is the subscribe side of a Transport, split out so
// subscribers can be tested against a fake.
type Registrar interface {
	Subscribe(port PortID, extentBytes int, timeout time.Duration) error
	Unsubscribe(port PortID) bool
}

func validatePort(port PortID) error {
	if !port.Valid() {
		return fmt.Errorf("%w: %d", ErrPortUnset, port)
	}
	return nil
}
