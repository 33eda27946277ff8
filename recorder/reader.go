// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recorder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/codec"
)

// Reader replays a recording one message at a time.
type Reader struct {
	in     *bufio.Reader
	closer io.Closer

	block     *codec.Decoder
	remaining uint32
	err       error
}

// Open opens the recording at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.closer = file
	return reader, nil
}

// NewReader checks the recording magic and returns a Reader over in.
func NewReader(in io.Reader) (*Reader, error) {
	buffered := bufio.NewReader(in)
	var header [len(magic)]byte
	if _, err := io.ReadFull(buffered, header[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorrupt, err)
	}
	if header != magic {
		return nil, fmt.Errorf("%w: bad magic %x", ErrCorrupt, header)
	}
	return &Reader{in: buffered}, nil
}

// Next returns the next recorded message, io.EOF after the last one,
// or an error wrapping ErrCorrupt if a block fails verification.
// Errors are sticky.
func (r *Reader) Next() (bus.Message, error) {
	if r.err != nil {
		return bus.Message{}, r.err
	}
	for r.remaining == 0 {
		if err := r.loadBlock(); err != nil {
			r.err = err
			return bus.Message{}, err
		}
	}

	var envelope bus.Envelope
	if err := r.block.Decode(&envelope); err != nil {
		r.err = fmt.Errorf("%w: decoding record: %v", ErrCorrupt, err)
		return bus.Message{}, r.err
	}
	r.remaining--
	message, err := envelope.Open()
	if err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		return bus.Message{}, r.err
	}
	return message, nil
}

func (r *Reader) loadBlock() error {
	headerBytes := make([]byte, blockHeaderSize)
	if _, err := io.ReadFull(r.in, headerBytes); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("%w: reading block header: %v", ErrCorrupt, err)
	}
	header, err := parseBlockHeader(headerBytes)
	if err != nil {
		return err
	}

	stored := make([]byte, header.stored)
	if _, err := io.ReadFull(r.in, stored); err != nil {
		return fmt.Errorf("%w: reading block: %v", ErrCorrupt, err)
	}
	data, err := decompressBlock(stored, header.compression, int(header.uncompressed))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if digestBlock(data) != header.digest {
		return fmt.Errorf("%w: block digest mismatch", ErrCorrupt)
	}

	r.block = codec.NewDecoder(bytes.NewReader(data))
	r.remaining = header.records
	return nil
}

// Close closes the file if the Reader was made by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
