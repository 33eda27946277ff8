// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/cyphal-bridge/lib/clock"
)

// Transport reassembles message transfers for subscribed subjects.
// Subscribe and Unsubscribe are safe to call from any goroutine,
// including from within a Handler.
type Transport struct {
	clock  clock.Clock
	logger *slog.Logger

	mu            sync.Mutex
	subscriptions map[PortID]*subscription
}

type subscription struct {
	extent   int
	timeout  time.Duration
	sessions map[NodeID]*session
}

// Compile-time interface check.
var _ Registrar = (*Transport)(nil)

// New returns a Transport with no subscriptions. A nil clock means
// clock.Real() and a nil logger discards.
func New(clk clock.Clock, logger *slog.Logger) *Transport {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{
		clock:         clk,
		logger:        logger,
		subscriptions: make(map[PortID]*subscription),
	}
}

// Subscribe registers interest in port. Payload beyond extentBytes is
// truncated. Subscribing an already subscribed port replaces its
// parameters and discards its sessions.
func (t *Transport) Subscribe(port PortID, extentBytes int, timeout time.Duration) error {
	if err := validatePort(port); err != nil {
		return err
	}
	if extentBytes < 0 {
		return fmt.Errorf("transport: negative extent %d for port %d", extentBytes, port)
	}
	if timeout <= 0 {
		timeout = DefaultTransferIDTimeout
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscriptions[port] = &subscription{
		extent:   extentBytes,
		timeout:  timeout,
		sessions: make(map[NodeID]*session),
	}
	return nil
}

// Unsubscribe removes port. Returns false if it was not subscribed.
func (t *Transport) Unsubscribe(port PortID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subscriptions[port]; !ok {
		return false
	}
	delete(t.subscriptions, port)
	return true
}

// Subscribed reports whether port has a subscription.
func (t *Transport) Subscribed(port PortID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.subscriptions[port]
	return ok
}

// Accept processes one received frame. It returns a transfer when the
// frame completes one on a subscribed subject.
func (t *Transport) Accept(frame Frame, timestamp time.Time) (Transfer, bool) {
	if len(frame.Data) == 0 {
		return Transfer{}, false
	}
	header, ok := parseMessageID(frame.ID)
	if !ok {
		return Transfer{}, false
	}
	tail := parseTail(frame.Data[len(frame.Data)-1])
	data := frame.Data[:len(frame.Data)-1]

	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.subscriptions[header.port]
	if !ok {
		return Transfer{}, false
	}

	if header.anonymous {
		// Anonymous transfers are single-frame and carry no session.
		if !tail.start || !tail.end || !tail.toggle {
			return Transfer{}, false
		}
		if len(data) > sub.extent {
			data = data[:sub.extent]
		}
		payload := append([]byte(nil), data...)
		return Transfer{
			Timestamp:    timestamp,
			Priority:     header.priority,
			PortID:       header.port,
			SourceNodeID: NodeIDUnset,
			TransferID:   tail.transferID,
			Payload:      payload,
			PayloadSize:  len(payload),
		}, true
	}

	state, ok := sub.sessions[header.source]
	if !ok {
		if !tail.start {
			return Transfer{}, false
		}
		state = newSession(tail.transferID)
		sub.sessions[header.source] = state
	}
	return state.accept(header, tail, data, timestamp, sub.extent, sub.timeout)
}

// Run reads frames from source until ctx is cancelled or source
// returns io.EOF, delivering each completed transfer to handler before
// reading the next frame. Returns nil on cancellation or EOF.
func (t *Transport) Run(ctx context.Context, source FrameSource, handler Handler) error {
	for {
		frame, err := source.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				t.logger.Info("frame source closed")
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}
		transfer, ok := t.Accept(frame, t.clock.Now())
		if !ok {
			continue
		}
		handler.OnTransfer(transfer)
	}
}
