// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that wait on bus subscriptions, transport handlers,
// or tap clients do not each carry their own time.After. These are the
// only real wall-clock timeouts in the test suite; everything else runs
// on lib/clock's fake clock.
//
// [SocketDir] returns a short directory for Unix sockets. sun_path is
// limited to 108 bytes and t.TempDir() paths routinely exceed it.
//
// Helpers call t.Fatalf on failure rather than returning errors.
package testutil
