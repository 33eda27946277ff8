// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/clock"
	"github.com/bureau-foundation/cyphal-bridge/lib/codec"
)

// Options configures a Writer. Zero fields take defaults.
type Options struct {
	// Compression for each block. Default: CompressionZstd.
	Compression Compression

	// BlockRecords closes a block once it holds this many records.
	// Default: 256.
	BlockRecords int

	// FlushInterval closes a non-empty block on each tick while Run
	// is consuming. Default: one second.
	FlushInterval time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

func (o *Options) setDefaults() {
	if o.BlockRecords <= 0 {
		o.BlockRecords = 256
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = time.Second
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Writer appends records to a recording. Safe for concurrent use.
type Writer struct {
	options Options

	mu      sync.Mutex
	out     io.Writer
	closer  io.Closer
	pending bytes.Buffer
	encoder *codec.Encoder
	count   int
	blocks  int
	records int
	closed  bool
}

// Create truncates path and starts a recording in it.
func Create(path string, options Options) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	writer, err := NewWriter(file, options)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.closer = file
	return writer, nil
}

// NewWriter writes the recording magic to out and returns a Writer.
// Close does not close out.
func NewWriter(out io.Writer, options Options) (*Writer, error) {
	options.setDefaults()
	if _, err := out.Write(magic[:]); err != nil {
		return nil, fmt.Errorf("writing recording header: %w", err)
	}
	writer := &Writer{options: options, out: out}
	writer.encoder = codec.NewEncoder(&writer.pending)
	return writer, nil
}

// Append adds one bus message to the current block, closing the block
// if it is full.
func (w *Writer) Append(message bus.Message) error {
	envelope, err := bus.Seal(message)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("recorder: append to closed writer")
	}
	if err := w.encoder.Encode(envelope); err != nil {
		return fmt.Errorf("encoding %s record: %w", message.Topic, err)
	}
	w.count++
	if w.count >= w.options.BlockRecords {
		return w.flushLocked()
	}
	return nil
}

// Flush writes the pending records as a block. Flushing with nothing
// pending writes nothing.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if w.count == 0 {
		return nil
	}
	data := w.pending.Bytes()
	tag, stored, err := compressBlock(data, w.options.Compression)
	if err != nil {
		return err
	}
	header := blockHeader{
		compression:  tag,
		records:      uint32(w.count),
		uncompressed: uint32(len(data)),
		stored:       uint32(len(stored)),
		digest:       digestBlock(data),
	}
	if _, err := w.out.Write(header.encode()); err != nil {
		return fmt.Errorf("writing block header: %w", err)
	}
	if _, err := w.out.Write(stored); err != nil {
		return fmt.Errorf("writing block: %w", err)
	}

	w.options.Logger.Debug("recorded block",
		"records", w.count,
		"compression", tag,
		"uncompressed", len(data),
		"stored", len(stored),
	)
	w.blocks++
	w.records += w.count
	w.count = 0
	w.pending.Reset()
	return nil
}

// Stats returns how many blocks and records have been written.
func (w *Writer) Stats() (blocks, records int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.blocks, w.records
}

// Close flushes pending records and closes the file if the Writer was
// made by Create.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.flushLocked()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}

// Run appends every message received from messages until ctx is done
// or messages is closed, flushing on each tick of the flush interval.
// Messages already queued when ctx ends are still recorded. Run does
// not close the Writer.
func (w *Writer) Run(ctx context.Context, messages <-chan bus.Message) error {
	ticker := w.options.Clock.NewTicker(w.options.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-messages:
			if !ok {
				return w.Flush()
			}
			if err := w.Append(message); err != nil {
				return err
			}
		case <-ticker.C:
			if err := w.Flush(); err != nil {
				return err
			}
		case <-ctx.Done():
			for {
				select {
				case message, ok := <-messages:
					if !ok {
						return w.Flush()
					}
					if err := w.Append(message); err != nil {
						return err
					}
				default:
					return w.Flush()
				}
			}
		}
	}
}
