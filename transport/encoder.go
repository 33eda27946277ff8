// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"sync"
)

// Encoder splits message transfers into CAN frames and tracks the
// transfer ID per subject. Safe for concurrent use.
type Encoder struct {
	node NodeID
	mtu  int

	mu          sync.Mutex
	transferIDs map[PortID]TransferID
}

// NewEncoder returns an Encoder publishing as node with the given frame
// MTU (MTUClassic or MTUFD). NodeIDUnset publishes anonymously, which
// limits transfers to a single frame.
func NewEncoder(node NodeID, mtu int) (*Encoder, error) {
	if mtu != MTUClassic && mtu != MTUFD {
		return nil, fmt.Errorf("transport: unsupported MTU %d (want %d or %d)", mtu, MTUClassic, MTUFD)
	}
	if node != NodeIDUnset && node > NodeIDMax {
		return nil, fmt.Errorf("transport: node ID %d out of range", node)
	}
	return &Encoder{node: node, mtu: mtu, transferIDs: make(map[PortID]TransferID)}, nil
}

// Message encodes payload as one message transfer on port.
func (e *Encoder) Message(priority Priority, port PortID, payload []byte) ([]Frame, error) {
	if err := validatePort(port); err != nil {
		return nil, err
	}

	e.mu.Lock()
	transferID := e.transferIDs[port]
	e.transferIDs[port] = (transferID + 1) % transferIDModulo
	e.mu.Unlock()

	anonymous := e.node == NodeIDUnset
	capacity := e.mtu - 1

	if len(payload) <= capacity {
		// Anonymous frames carry a pseudo node ID taken from the
		// payload CRC.
		pseudo := NodeID(uint16(crcInitial.update(payload)) & maskNodeID)
		id := messageID(priority, port, e.node, anonymous, pseudo)
		length, err := roundUpFrameLength(len(payload) + 1)
		if err != nil {
			return nil, err
		}
		data := make([]byte, length)
		copy(data, payload)
		data[length-1] = tailByte{start: true, end: true, toggle: true, transferID: transferID}.encode()
		return []Frame{{ID: id, Data: data}}, nil
	}
	if anonymous {
		return nil, fmt.Errorf("%w: %d bytes in an anonymous transfer", ErrPayloadTooLarge, len(payload))
	}

	id := messageID(priority, port, e.node, false, 0)

	// Pad so the last frame lands on a valid CAN FD length. Padding
	// precedes the CRC and is covered by it.
	stream := append([]byte(nil), payload...)
	if e.mtu == MTUFD {
		lastChunk := (len(stream) + crcSize) % capacity
		if lastChunk != 0 {
			length, err := roundUpFrameLength(lastChunk + 1)
			if err != nil {
				return nil, err
			}
			stream = append(stream, make([]byte, length-1-lastChunk)...)
		}
	}
	crc := crcInitial.update(stream)
	stream = append(stream, byte(crc>>8), byte(crc))

	var frames []Frame
	toggle := true
	for offset := 0; offset < len(stream); offset += capacity {
		end := min(offset+capacity, len(stream))
		data := make([]byte, 0, end-offset+1)
		data = append(data, stream[offset:end]...)
		data = append(data, tailByte{
			start:      offset == 0,
			end:        end == len(stream),
			toggle:     toggle,
			transferID: transferID,
		}.encode())
		frames = append(frames, Frame{ID: id, Data: data})
		toggle = !toggle
	}
	return frames, nil
}
