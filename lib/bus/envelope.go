// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"fmt"

	"github.com/bureau-foundation/cyphal-bridge/lib/codec"
)

// Envelope is the CBOR form of a Message. The payload stays encoded
// until Open so consumers that only route or store records never
// decode them.
type Envelope struct {
	Topic      Topic            `cbor:"topic"`
	Generation uint64           `cbor:"generation"`
	Payload    codec.RawMessage `cbor:"payload"`
}

// Seal encodes message into an Envelope.
func Seal(message Message) (Envelope, error) {
	payload, err := codec.Marshal(message.Value)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s record: %w", message.Topic, err)
	}
	return Envelope{
		Topic:      message.Topic,
		Generation: message.Generation,
		Payload:    payload,
	}, nil
}

// Open decodes the payload into the record type registered for the
// envelope's topic. Unknown topics decode into a generic map.
func (e Envelope) Open() (Message, error) {
	message := Message{Topic: e.Topic, Generation: e.Generation}

	var err error
	switch e.Topic {
	case TopicOutputControlMC:
		var record OutputControl
		err = codec.Unmarshal(e.Payload, &record)
		message.Value = record
	case TopicActuatorArmed:
		var record ActuatorArmed
		err = codec.Unmarshal(e.Payload, &record)
		message.Value = record
	default:
		var record any
		err = codec.Unmarshal(e.Payload, &record)
		message.Value = record
	}
	if err != nil {
		return Message{}, fmt.Errorf("decoding %s record: %w", e.Topic, err)
	}
	return message, nil
}
