// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cyphal-pub publishes ESC setpoint vectors or readiness codes on a
// Cyphal/CAN interface, for bench testing a bridge without a flight
// controller.
//
// Usage:
//
//	cyphal-pub --subject 22 setpoint 1000 2000 3000 4000
//	cyphal-pub --subject 22 --normalized -- setpoint -0.5 0 0.5 1
//	cyphal-pub --subject 23 --count 10 --period 100ms readiness engaged
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cyphal-bridge/lib/dsdl"
	"github.com/bureau-foundation/cyphal-bridge/lib/version"
	"github.com/bureau-foundation/cyphal-bridge/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	iface      string
	nodeID     int
	mtu        int
	priority   string
	subject    int
	count      int
	period     time.Duration
	normalized bool
}

func run() error {
	var (
		opts        options
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("cyphal-pub", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.iface, "interface", "i", "can0", "SocketCAN interface")
	flagSet.IntVar(&opts.nodeID, "node-id", 127, "local node ID (255 publishes anonymously)")
	flagSet.IntVar(&opts.mtu, "mtu", transport.MTUClassic, "frame MTU: 8 (classic) or 64 (FD)")
	flagSet.StringVar(&opts.priority, "priority", "nominal", "transfer priority")
	flagSet.IntVarP(&opts.subject, "subject", "s", -1, "subject ID to publish on (required)")
	flagSet.IntVarP(&opts.count, "count", "n", 1, "number of transfers to send")
	flagSet.DurationVar(&opts.period, "period", 100*time.Millisecond, "interval between transfers when count > 1")
	flagSet.BoolVar(&opts.normalized, "normalized", false, "setpoint values are in [-1, 1] instead of raw 0..8191")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  cyphal-pub [flags] setpoint V1 [V2 ... V8]\n  cyphal-pub [flags] readiness sleep|standby|engaged\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print("cyphal-pub")
		return nil
	}

	payload, err := buildPayload(flagSet.Args(), opts.normalized)
	if err != nil {
		return err
	}
	if opts.subject < 0 || opts.subject > int(transport.PortIDMax) {
		return fmt.Errorf("--subject must be in [0, %d]", transport.PortIDMax)
	}
	if opts.nodeID < 0 || opts.nodeID > 255 {
		return fmt.Errorf("--node-id must be in [0, 127] or 255")
	}
	priority, err := transport.ParsePriority(opts.priority)
	if err != nil {
		return err
	}
	encoder, err := transport.NewEncoder(transport.NodeID(opts.nodeID), opts.mtu)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	can, err := transport.OpenSocketCAN(opts.iface, opts.mtu)
	if err != nil {
		return err
	}
	defer can.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return publish(ctx, can, encoder, priority, transport.PortID(opts.subject), payload, opts.count, opts.period, logger)
}

// buildPayload serializes the message named by args[0].
func buildPayload(args []string, normalized bool) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("missing message kind: setpoint or readiness")
	}
	switch args[0] {
	case "setpoint":
		vector, err := parseSetpoints(args[1:], normalized)
		if err != nil {
			return nil, err
		}
		return vector.Encode(), nil
	case "readiness":
		if len(args) != 2 {
			return nil, errors.New("readiness takes exactly one value: sleep, standby, or engaged")
		}
		readiness, err := dsdl.ParseReadiness(args[1])
		if err != nil {
			return nil, err
		}
		return readiness.Encode(), nil
	default:
		return nil, fmt.Errorf("unknown message kind %q (want setpoint or readiness)", args[0])
	}
}

// parseSetpoints parses up to eight values. Missing trailing values are
// zero. Normalized values map back through raw = (v+1)/2 * 8191.
func parseSetpoints(values []string, normalized bool) (dsdl.SetpointVector8, error) {
	var vector dsdl.SetpointVector8
	if len(values) == 0 || len(values) > dsdl.SetpointCount {
		return vector, fmt.Errorf("setpoint takes 1 to %d values, got %d", dsdl.SetpointCount, len(values))
	}
	for i, text := range values {
		if normalized {
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return vector, fmt.Errorf("setpoint %d: %w", i, err)
			}
			if value < -1 || value > 1 {
				return vector, fmt.Errorf("setpoint %d: %v outside [-1, 1]", i, value)
			}
			vector.Value[i] = uint16(math.Round((value + 1) / 2 * dsdl.SetpointMax))
			continue
		}
		raw, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return vector, fmt.Errorf("setpoint %d: %w", i, err)
		}
		if raw > dsdl.SetpointMax {
			return vector, fmt.Errorf("setpoint %d: %d exceeds %d", i, raw, dsdl.SetpointMax)
		}
		vector.Value[i] = uint16(raw)
	}
	return vector, nil
}

func publish(ctx context.Context, sink transport.FrameSink, encoder *transport.Encoder, priority transport.Priority,
	subject transport.PortID, payload []byte, count int, period time.Duration, logger *slog.Logger) error {
	for sent := 0; sent < count; sent++ {
		if sent > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(period):
			}
		}
		frames, err := encoder.Message(priority, subject, payload)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			if err := sink.WriteFrame(ctx, frame); err != nil {
				return fmt.Errorf("sending transfer %d: %w", sent, err)
			}
		}
		logger.Debug("published", "subject", subject, "frames", len(frames), "bytes", len(payload))
	}
	logger.Info("done", "subject", subject, "transfers", count)
	return nil
}
