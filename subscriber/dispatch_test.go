// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/bureau-foundation/cyphal-bridge/transport"
)

func TestDispatcherRoutesByPort(t *testing.T) {
	observer := newCountingObserver()
	dispatcher := NewDispatcher(slog.New(slog.DiscardHandler), observer)

	var gotA, gotB []int
	decodeLen := func(payload []byte, size int) (int, error) { return size, nil }
	dispatcher.Register(NewRoute("a",
		func(port transport.PortID) bool { return port == 1 },
		decodeLen, func(n int) { gotA = append(gotA, n) }))
	dispatcher.Register(NewRoute("b",
		func(port transport.PortID) bool { return port == 2 },
		decodeLen, func(n int) { gotB = append(gotB, n) }))

	dispatcher.OnTransfer(transport.Transfer{PortID: 1, PayloadSize: 3})
	dispatcher.OnTransfer(transport.Transfer{PortID: 2, PayloadSize: 5})
	dispatcher.OnTransfer(transport.Transfer{PortID: 9, PayloadSize: 7})

	if len(gotA) != 1 || gotA[0] != 3 {
		t.Errorf("route a received %v, want [3]", gotA)
	}
	if len(gotB) != 1 || gotB[0] != 5 {
		t.Errorf("route b received %v, want [5]", gotB)
	}
	if observer.counts["a/delivered"] != 1 || observer.counts["b/delivered"] != 1 {
		t.Errorf("delivered counts = %v", observer.counts)
	}
	if observer.counts["/unmatched"] != 1 {
		t.Errorf("unmatched count = %d, want 1", observer.counts["/unmatched"])
	}
}

func TestDispatcherFirstMatchWins(t *testing.T) {
	dispatcher := NewDispatcher(slog.New(slog.DiscardHandler), nil)
	var order []string
	always := func(transport.PortID) bool { return true }
	decode := func([]byte, int) (struct{}, error) { return struct{}{}, nil }
	dispatcher.Register(NewRoute("first", always, decode, func(struct{}) { order = append(order, "first") }))
	dispatcher.Register(NewRoute("second", always, decode, func(struct{}) { order = append(order, "second") }))

	dispatcher.OnTransfer(transport.Transfer{PortID: 4})

	if len(order) != 1 || order[0] != "first" {
		t.Errorf("handled by %v, want [first]", order)
	}
}

func TestDispatcherAbsorbsDecodeErrors(t *testing.T) {
	observer := newCountingObserver()
	dispatcher := NewDispatcher(slog.New(slog.DiscardHandler), observer)

	translated := 0
	fail := true
	dispatcher.Register(NewRoute("flaky",
		func(transport.PortID) bool { return true },
		func([]byte, int) (int, error) {
			if fail {
				return 0, errors.New("bad payload")
			}
			return 1, nil
		},
		func(int) { translated++ }))

	dispatcher.OnTransfer(transport.Transfer{PortID: 1})
	if translated != 0 {
		t.Fatalf("translate ran after a decode failure")
	}
	if observer.counts["flaky/decode_failed"] != 1 {
		t.Errorf("decode_failed count = %d, want 1", observer.counts["flaky/decode_failed"])
	}

	fail = false
	dispatcher.OnTransfer(transport.Transfer{PortID: 1})
	if translated != 1 {
		t.Errorf("translate count after recovery = %d, want 1", translated)
	}
}

func TestDispatcherNilLoggerDiscards(t *testing.T) {
	observer := newCountingObserver()
	dispatcher := NewDispatcher(nil, observer)
	dispatcher.Register(NewRoute("broken",
		func(transport.PortID) bool { return true },
		func([]byte, int) (int, error) { return 0, errors.New("bad payload") },
		func(int) { t.Error("translate ran after a decode failure") }))

	dispatcher.OnTransfer(transport.Transfer{PortID: 7})

	if observer.counts["broken/decode_failed"] != 1 {
		t.Errorf("decode_failed count = %d, want 1", observer.counts["broken/decode_failed"])
	}
}
