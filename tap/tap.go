// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tap streams live bus traffic over a Unix socket.
//
// A client connects and receives, without sending anything, a stream
// of CBOR-encoded [bus.Envelope] values: first the latest record of
// each known topic, then every publication as it happens. CBOR is
// self-delimiting, so the stream has no other framing.
//
// Each connection has its own bus subscription. When a client falls
// behind, the subscription drops its oldest records; a client whose
// socket stops accepting writes for longer than the write timeout is
// disconnected.
package tap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/lib/codec"
	"github.com/bureau-foundation/cyphal-bridge/lib/netutil"
)

// writeTimeout bounds a single record write to a client.
const writeTimeout = 2 * time.Second

// snapshotTopics are replayed to each client on connect.
var snapshotTopics = []bus.Topic{bus.TopicActuatorArmed, bus.TopicOutputControlMC}

// Server serves the tap on a Unix socket.
type Server struct {
	socketPath string
	bus        *bus.Bus
	queueDepth int
	logger     *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	activeConnections sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath.
// queueDepth is the per-client subscription depth.
func NewServer(socketPath string, b *bus.Bus, queueDepth int, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		bus:        b,
		queueDepth: queueDepth,
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the socket is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Serve accepts clients until ctx is cancelled, then disconnects them
// and waits for their handlers to return.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("tap listening", "path", s.socketPath)
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Subscribe before taking the snapshot so nothing published in
	// between is missed. The client discards the possible duplicate.
	subscription := s.bus.SubscribeAll(s.queueDepth)
	defer subscription.Close()

	encoder := codec.NewEncoder(conn)
	send := func(message bus.Message) error {
		envelope, err := bus.Seal(message)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return encoder.Encode(envelope)
	}

	for _, topic := range snapshotTopics {
		value, generation, ok := bus.Latest[any](s.bus, topic)
		if !ok {
			continue
		}
		if err := send(bus.Message{Topic: topic, Generation: generation, Value: value}); err != nil {
			s.dropped(err, subscription)
			return
		}
	}

	s.logger.Debug("tap client connected")
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-subscription.C:
			if err := send(message); err != nil {
				s.dropped(err, subscription)
				return
			}
		}
	}
}

// dropped logs a client that could not be written to. Clients that
// disconnect are routine; a stalled client or any other failure is
// worth a warning.
func (s *Server) dropped(err error, subscription *bus.Subscription[bus.Message]) {
	level := slog.LevelWarn
	if netutil.IsExpectedCloseError(err) {
		level = slog.LevelDebug
	}
	s.logger.Log(context.Background(), level, "tap client dropped",
		"error", err,
		"stalled", netutil.IsTimeout(err),
		"records_dropped", subscription.Dropped(),
	)
}

// Client reads the tap stream.
type Client struct {
	conn    net.Conn
	decoder *codec.Decoder
	seen    map[bus.Topic]uint64
}

// Dial connects to the tap at socketPath.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to tap at %s: %w", socketPath, err)
	}
	return &Client{
		conn:    conn,
		decoder: codec.NewDecoder(conn),
		seen:    make(map[bus.Topic]uint64),
	}, nil
}

// Next blocks for the next record. Records already delivered (same or
// older generation on their topic) are skipped. Returns io.EOF when
// the server closes the stream.
func (c *Client) Next() (bus.Message, error) {
	for {
		var envelope bus.Envelope
		if err := c.decoder.Decode(&envelope); err != nil {
			return bus.Message{}, err
		}
		if envelope.Generation <= c.seen[envelope.Topic] {
			continue
		}
		c.seen[envelope.Topic] = envelope.Generation
		return envelope.Open()
	}
}

// Close disconnects from the tap.
func (c *Client) Close() error {
	return c.conn.Close()
}
