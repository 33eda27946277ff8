// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package transport

import (
	"context"
	"errors"
)

// SocketCAN is only available on Linux.
type SocketCAN struct{}

// OpenSocketCAN always fails off Linux.
func OpenSocketCAN(name string, mtu int) (*SocketCAN, error) {
	return nil, errors.New("socketcan: requires Linux")
}

func (s *SocketCAN) ReadFrame(context.Context) (Frame, error) {
	return Frame{}, errors.New("socketcan: requires Linux")
}

func (s *SocketCAN) WriteFrame(context.Context, Frame) error {
	return errors.New("socketcan: requires Linux")
}

func (s *SocketCAN) Close() error { return nil }
