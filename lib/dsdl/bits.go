// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dsdl

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated means the declared payload size cannot hold every
	// field of the schema.
	ErrTruncated = errors.New("dsdl: payload truncated")

	// ErrPayloadSize means the declared payload size is negative or
	// exceeds the bytes actually supplied.
	ErrPayloadSize = errors.New("dsdl: declared payload size exceeds buffer")
)

// Reader consumes fields from a Cyphal bit stream.
type Reader struct {
	buffer []byte
	limit  int // in bits
	offset int // in bits
}

// NewReader returns a Reader over the first size bytes of payload.
func NewReader(payload []byte, size int) (*Reader, error) {
	if size < 0 || size > len(payload) {
		return nil, fmt.Errorf("%w: size %d, buffer %d", ErrPayloadSize, size, len(payload))
	}
	return &Reader{buffer: payload[:size], limit: size * 8}, nil
}

// Unsigned reads an unsigned integer of width bits (1..64).
func (r *Reader) Unsigned(width int) (uint64, error) {
	if width < 1 || width > 64 {
		panic(fmt.Sprintf("dsdl: invalid field width %d", width))
	}
	if r.offset+width > r.limit {
		return 0, fmt.Errorf("%w: need %d bits at offset %d, have %d",
			ErrTruncated, width, r.offset, r.limit)
	}

	var value uint64
	for i := 0; i < width; {
		bit := r.offset + i
		shift := bit % 8
		// Take as many bits as remain in the current byte.
		take := 8 - shift
		if take > width-i {
			take = width - i
		}
		chunk := uint64(r.buffer[bit/8]>>shift) & (1<<take - 1)
		value |= chunk << i
		i += take
	}
	r.offset += width
	return value, nil
}

// Consumed returns the number of bits read so far.
func (r *Reader) Consumed() int { return r.offset }

// Writer produces a Cyphal bit stream.
type Writer struct {
	buffer []byte
	offset int // in bits
}

// NewWriter returns a Writer with room for capacity bytes. The buffer
// grows if more is written.
func NewWriter(capacity int) *Writer {
	return &Writer{buffer: make([]byte, 0, capacity)}
}

// Unsigned appends the low width bits of value.
func (w *Writer) Unsigned(value uint64, width int) {
	if width < 1 || width > 64 {
		panic(fmt.Sprintf("dsdl: invalid field width %d", width))
	}
	for i := 0; i < width; {
		bit := w.offset + i
		if bit/8 >= len(w.buffer) {
			w.buffer = append(w.buffer, 0)
		}
		shift := bit % 8
		take := 8 - shift
		if take > width-i {
			take = width - i
		}
		chunk := byte((value >> i) & (1<<take - 1))
		w.buffer[bit/8] |= chunk << shift
		i += take
	}
	w.offset += width
}

// Bytes returns the serialized stream. The final byte is zero-padded.
func (w *Writer) Bytes() []byte { return w.buffer }
