// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
)

const (
	// MTUClassic is the data field size of a classic CAN frame.
	MTUClassic = 8

	// MTUFD is the data field size of a CAN FD frame.
	MTUFD = 64
)

// Frame is one extended-ID CAN frame.
type Frame struct {
	// ID is the 29-bit extended identifier.
	ID   uint32
	Data []byte
}

// FrameSource yields received frames. ReadFrame blocks until a frame
// arrives, ctx is cancelled, or the source fails.
type FrameSource interface {
	ReadFrame(ctx context.Context) (Frame, error)
}

// FrameSink transmits frames.
type FrameSink interface {
	WriteFrame(ctx context.Context, frame Frame) error
}

const (
	offsetPriority  = 26
	offsetSubjectID = 8

	flagService    = 1 << 25
	flagAnonymous  = 1 << 24
	flagReserved23 = 1 << 23
	flagReserved07 = 1 << 7

	// Bits 21 and 22 are reserved and transmitted as ones; receivers
	// ignore them.
	flagsReservedOnes = 1<<21 | 1<<22

	maskSubjectID = 0x1FFF
	maskNodeID    = 0x7F
	maskExtended  = 0x1FFFFFFF

	tailStart      = 0x80
	tailEnd        = 0x40
	tailToggle     = 0x20
	maskTransferID = 0x1F
)

type messageHeader struct {
	priority  Priority
	port      PortID
	source    NodeID
	anonymous bool
}

// parseMessageID decodes the CAN ID of a message frame. ok is false
// for service frames and frames with reserved bits set.
func parseMessageID(id uint32) (header messageHeader, ok bool) {
	id &= maskExtended
	if id&flagService != 0 || id&flagReserved23 != 0 || id&flagReserved07 != 0 {
		return header, false
	}
	header.priority = Priority(id>>offsetPriority&0x7)
	header.port = PortID(id>>offsetSubjectID&maskSubjectID)
	header.anonymous = id&flagAnonymous != 0
	header.source = NodeID(id & maskNodeID)
	if header.anonymous {
		header.source = NodeIDUnset
	}
	return header, true
}

// messageID builds the CAN ID of a message frame. Anonymous frames
// carry a pseudo node ID in the source field.
func messageID(priority Priority, port PortID, source NodeID, anonymous bool, pseudoNodeID NodeID) uint32 {
	id := uint32(priority&0x7)<<offsetPriority |
		uint32(port&maskSubjectID)<<offsetSubjectID |
		flagsReservedOnes
	if anonymous {
		return id | flagAnonymous | uint32(pseudoNodeID&maskNodeID)
	}
	return id | uint32(source&maskNodeID)
}

type tailByte struct {
	start      bool
	end        bool
	toggle     bool
	transferID TransferID
}

func parseTail(b byte) tailByte {
	return tailByte{
		start:      b&tailStart != 0,
		end:        b&tailEnd != 0,
		toggle:     b&tailToggle != 0,
		transferID: TransferID(b & maskTransferID),
	}
}

func (t tailByte) encode() byte {
	b := byte(t.transferID) & maskTransferID
	if t.start {
		b |= tailStart
	}
	if t.end {
		b |= tailEnd
	}
	if t.toggle {
		b |= tailToggle
	}
	return b
}

// fdLengths are the data lengths a CAN FD DLC can express.
var fdLengths = [...]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}

// roundUpFrameLength returns the smallest valid frame data length
// holding n bytes.
func roundUpFrameLength(n int) (int, error) {
	for _, length := range fdLengths {
		if length >= n {
			return length, nil
		}
	}
	return 0, fmt.Errorf("frame length %d exceeds CAN FD maximum", n)
}
