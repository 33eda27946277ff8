// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cyphal-bridge subscribes to ESC setpoint and readiness subjects on a
// Cyphal/CAN bus and republishes them as actuator outputs and arming
// state on the internal bus, which is recorded, exposed on the tap
// socket, and counted in Prometheus metrics.
//
// Subject IDs come from the params section of the config file
// (uavcan.sub.esc.<instance>.id). Sending SIGHUP re-reads the file and
// re-subscribes any unit whose subject ID changed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/clock"
	"github.com/bureau-foundation/cyphal-bridge/lib/config"
	"github.com/bureau-foundation/cyphal-bridge/lib/metrics"
	"github.com/bureau-foundation/cyphal-bridge/lib/param"
	"github.com/bureau-foundation/cyphal-bridge/lib/version"
	"github.com/bureau-foundation/cyphal-bridge/recorder"
	"github.com/bureau-foundation/cyphal-bridge/subscriber"
	"github.com/bureau-foundation/cyphal-bridge/tap"
	"github.com/bureau-foundation/cyphal-bridge/transport"
)

// subscriptionDepth is the queue depth for in-process bus consumers.
const subscriptionDepth = 1024

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("cyphal-bridge", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the config file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		version.Print("cyphal-bridge")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runBridge(ctx, cfg, configPath, logger)
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runBridge(ctx context.Context, cfg *config.Config, configPath string, logger *slog.Logger) error {
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	// Everything started below stops when the receive loop ends, for
	// whatever reason.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clk := clock.Real()
	b := bus.New()
	params := param.NewStore(cfg.Params)

	// Consumers attach before any unit exists so the initial armed
	// state reaches them.
	collector := metrics.NewCollector()
	registry := prometheus.NewRegistry()
	if err := collector.Register(registry); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	metricsFeed := b.SubscribeAll(subscriptionDepth)
	defer metricsFeed.Close()
	go collector.Watch(ctx, metricsFeed.C)

	var recordingDone chan error
	if cfg.Recorder.Enabled {
		writer, feed, err := startRecorder(cfg.Recorder, b, clk, logger)
		if err != nil {
			return err
		}
		defer feed.Close()
		recordingDone = make(chan error, 1)
		go func() {
			err := writer.Run(ctx, feed.C)
			recordingDone <- errors.Join(err, writer.Close())
		}()
	}

	var tapDone chan error
	if cfg.Tap.Enabled {
		server := tap.NewServer(cfg.Tap.SocketPath, b, cfg.Tap.QueueDepth, logger)
		tapDone = make(chan error, 1)
		go func() { tapDone <- server.Serve(ctx) }()
	}

	if cfg.Metrics.Listen != "" {
		go serveMetrics(ctx, cfg.Metrics.Listen, registry, logger)
	}

	receiver := transport.New(clk, logger)
	manager := subscriber.NewManager(receiver, params, logger)
	defer manager.Close()
	for _, unit := range cfg.Subscribers {
		manager.Add(subscriber.NewESC(subscriber.ESCConfig{
			Instance: unit.Instance,
			Outputs:  bus.NewPublication[bus.OutputControl](b, bus.TopicOutputControlMC),
			Armed:    bus.NewPublication[bus.ActuatorArmed](b, bus.TopicActuatorArmed),
			Clock:    clk,
			Logger:   logger,
			Observer: collector,
		}))
	}
	if err := manager.UpdateParams(); err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	// An empty configPath reloads from $CYPHAL_BRIDGE_CONFIG, the same
	// place the first load read it from.
	reloadOnHangup(ctx, configPath, params, manager, logger)

	can, err := transport.OpenSocketCAN(cfg.Node.Interface, cfg.Node.MTU)
	if err != nil {
		return err
	}
	defer can.Close()

	logger.Info("cyphal bridge running",
		"version", version.Info(),
		"interface", cfg.Node.Interface,
		"mtu", cfg.Node.MTU,
		"subscribers", len(cfg.Subscribers),
		"recorder", cfg.Recorder.Enabled,
		"tap", cfg.Tap.Enabled,
		"metrics", cfg.Metrics.Listen,
	)

	runErr := receiver.Run(ctx, can, manager)
	logger.Info("shutting down", "error", runErr)
	cancel()

	if recordingDone != nil {
		if err := <-recordingDone; err != nil {
			logger.Error("recorder error", "error", err)
		}
	}
	if tapDone != nil {
		if err := <-tapDone; err != nil {
			logger.Error("tap error", "error", err)
		}
	}
	return runErr
}

func startRecorder(cfg config.RecorderConfig, b *bus.Bus, clk clock.Clock, logger *slog.Logger) (*recorder.Writer, *bus.Subscription[bus.Message], error) {
	compression, err := recorder.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, nil, err
	}
	writer, err := recorder.Create(cfg.Path, recorder.Options{
		Compression:   compression,
		BlockRecords:  cfg.BlockRecords,
		FlushInterval: cfg.FlushInterval,
		Clock:         clk,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("recording", "path", cfg.Path, "compression", compression)
	return writer, b.SubscribeAll(subscriptionDepth), nil
}

func serveMetrics(ctx context.Context, address string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "address", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}
