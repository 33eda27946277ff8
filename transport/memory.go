// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"sync"
)

// Compile-time interface checks.
var (
	_ FrameSource = (*MemoryBus)(nil)
	_ FrameSink   = (*MemoryBus)(nil)
)

// MemoryBus is an in-process CAN segment for tests. Frames written are
// read back in order. Close makes ReadFrame return io.EOF once the
// queue drains.
type MemoryBus struct {
	frames    chan Frame
	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryBus returns a bus that buffers up to depth frames.
func NewMemoryBus(depth int) *MemoryBus {
	return &MemoryBus{
		frames: make(chan Frame, depth),
		closed: make(chan struct{}),
	}
}

// WriteFrame queues a copy of frame, blocking while the queue is full.
func (m *MemoryBus) WriteFrame(ctx context.Context, frame Frame) error {
	frame.Data = append([]byte(nil), frame.Data...)
	select {
	case <-m.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case m.frames <- frame:
		return nil
	case <-m.closed:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadFrame returns the next queued frame.
func (m *MemoryBus) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case frame := <-m.frames:
		return frame, nil
	default:
	}
	select {
	case frame := <-m.frames:
		return frame, nil
	case <-m.closed:
		// Drain anything queued before Close.
		select {
		case frame := <-m.frames:
			return frame, nil
		default:
			return Frame{}, io.EOF
		}
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close stops the bus. Queued frames remain readable.
func (m *MemoryBus) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}
