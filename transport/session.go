// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import "time"

const crcSize = 2

// session reassembles transfers from one source node on one subject.
type session struct {
	// started is the arrival time of the current (or last) transfer's
	// first frame. The transfer-ID timeout is measured from it.
	started time.Time

	priority Priority

	// transferID is the ID the session expects next: the ID of the
	// transfer in progress, or one past the last completed transfer.
	transferID TransferID
	toggle     bool

	payload   []byte
	totalSize int
	crc       crc16
}

func newSession(frameTransferID TransferID) *session {
	return &session{transferID: frameTransferID, toggle: true, crc: crcInitial}
}

// restart abandons any transfer in progress and expects a new one
// starting with transferID.
func (s *session) restart(transferID TransferID) {
	s.transferID = transferID
	s.toggle = true
	s.payload = s.payload[:0]
	s.totalSize = 0
	s.crc = crcInitial
}

// complete advances to the next expected transfer ID.
func (s *session) complete() {
	s.restart((s.transferID + 1) % transferIDModulo)
}

// accept feeds one frame's payload (tail byte removed) into the
// session. It returns a transfer when the frame completes one.
func (s *session) accept(header messageHeader, tail tailByte, data []byte, timestamp time.Time,
	extent int, timeout time.Duration) (Transfer, bool) {

	timedOut := timestamp.Sub(s.started) > timeout
	// Distance from the frame's transfer ID forward to the expected
	// one. 0 is the expected transfer, 1 is a repeat of the transfer
	// just completed; anything else is a new transfer.
	distance := (s.transferID - tail.transferID) % transferIDModulo
	if timedOut || (tail.start && distance > 1) {
		s.restart(tail.transferID)
	}

	if tail.transferID != s.transferID || tail.toggle != s.toggle {
		return Transfer{}, false
	}
	if tail.start {
		if s.totalSize > 0 {
			// A start frame in the middle of a transfer with the same
			// ID and toggle cannot be trusted; drop both.
			s.restart(s.transferID)
			return Transfer{}, false
		}
		s.started = timestamp
		s.priority = header.priority
	} else if s.totalSize == 0 {
		// Continuation of a transfer whose start we never saw.
		return Transfer{}, false
	}

	if tail.start && tail.end {
		payload := data
		if len(payload) > extent {
			payload = payload[:extent]
		}
		transfer := s.transfer(header, append([]byte(nil), payload...), timestamp)
		s.complete()
		return transfer, true
	}

	s.crc = s.crc.update(data)
	s.totalSize += len(data)
	// Keep up to extent payload bytes plus the CRC, which may
	// straddle the extent boundary when the payload is short.
	if room := extent + crcSize - len(s.payload); room > 0 {
		if len(data) > room {
			s.payload = append(s.payload, data[:room]...)
		} else {
			s.payload = append(s.payload, data...)
		}
	}
	s.toggle = !s.toggle

	if !tail.end {
		return Transfer{}, false
	}

	defer s.complete()
	if s.crc != 0 || s.totalSize < crcSize {
		return Transfer{}, false
	}
	size := s.totalSize - crcSize
	if size > extent {
		size = extent
	}
	if size > len(s.payload) {
		size = len(s.payload)
	}
	return s.transfer(header, append([]byte(nil), s.payload[:size]...), s.started), true
}

func (s *session) transfer(header messageHeader, payload []byte, timestamp time.Time) Transfer {
	return Transfer{
		Timestamp:    timestamp,
		Priority:     s.priority,
		PortID:       header.port,
		SourceNodeID: header.source,
		TransferID:   s.transferID,
		Payload:      payload,
		PayloadSize:  len(payload),
	}
}
