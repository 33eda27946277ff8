// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cyphal-monitor shows the live output of a running cyphal-bridge: the
// arming state and the eight normalized actuator outputs, read from
// the bridge's tap socket.
//
// When stdout is not a terminal (or with --plain) it prints one line
// per record instead of drawing the interactive view.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/codec"
	"github.com/bureau-foundation/cyphal-bridge/lib/netutil"
	"github.com/bureau-foundation/cyphal-bridge/lib/version"
	"github.com/bureau-foundation/cyphal-bridge/tap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		socketPath string
		plain      bool
	)
	flagSet := pflag.NewFlagSet("cyphal-monitor", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", "", "tap socket of the bridge (required)")
	flagSet.BoolVar(&plain, "plain", false, "print records as lines instead of the interactive view")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("cyphal-monitor")
		return nil
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Usage:\n  cyphal-monitor --socket PATH [--plain]\n\nFlags:\n")
		flagSet.SetOutput(os.Stderr)
		flagSet.PrintDefaults()
		return nil
	}
	if socketPath == "" {
		return errors.New("--socket is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := tap.Dial(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		go func() {
			<-ctx.Done()
			client.Close()
		}()
		return printRecords(os.Stdout, client)
	}

	program := tea.NewProgram(NewModel(socketPath, DefaultTheme), tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		for {
			message, err := client.Next()
			if err != nil {
				program.Send(streamClosedMsg{err: err})
				return
			}
			program.Send(recordMsg{message: message})
		}
	}()
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// recordSource is the part of tap.Client printRecords needs.
type recordSource interface {
	Next() (bus.Message, error)
}

// printRecords writes one line per record until the stream ends or
// the connection is closed.
func printRecords(out io.Writer, source recordSource) error {
	for {
		message, err := source.Next()
		if err != nil {
			if netutil.IsExpectedCloseError(err) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, formatRecord(message))
	}
}

func formatRecord(message bus.Message) string {
	switch value := message.Value.(type) {
	case bus.ActuatorArmed:
		return fmt.Sprintf("%s #%d %s armed=%t prearmed=%t",
			message.Topic, message.Generation, value.Timestamp.Format("15:04:05.000"), value.Armed, value.Prearmed)
	case bus.OutputControl:
		return fmt.Sprintf("%s #%d %s %+.3f",
			message.Topic, message.Generation, value.Timestamp.Format("15:04:05.000"), value.Value)
	default:
		encoded, err := codec.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%s #%d %v", message.Topic, message.Generation, value)
		}
		diagnostic, err := codec.Diagnose(encoded)
		if err != nil {
			return fmt.Sprintf("%s #%d %v", message.Topic, message.Generation, value)
		}
		return fmt.Sprintf("%s #%d %s", message.Topic, message.Generation, diagnostic)
	}
}
