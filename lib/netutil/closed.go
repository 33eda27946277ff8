// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors for the bridge's socket
// servers.
package netutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsExpectedCloseError reports whether err only says the other end of
// the socket is gone. The tap server writes records to clients that
// exit whenever they like; depending on timing that surfaces as EOF,
// net.ErrClosed, EPIPE or ECONNRESET, and none of those is a fault in
// the bridge.
func IsExpectedCloseError(err error) bool {
	for _, target := range peerGone {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var peerGone = []error{io.EOF, net.ErrClosed, syscall.EPIPE, syscall.ECONNRESET}

// IsTimeout reports whether err is a deadline expiry, which for a tap
// client means it stopped reading.
func IsTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
