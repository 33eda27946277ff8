// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used for record
// timestamps, transfer reception times, and periodic flushes.
//
// Components hold a Clock field instead of calling time.Now or
// time.NewTicker directly. Production wiring passes Real(); tests pass
// Fake(), which only moves when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	unit := subscriber.NewESC(..., c, ...)
//	c.Advance(10 * time.Millisecond)
//
// Timestamps read from Real() carry Go's monotonic clock reading, so
// comparisons and subtractions between them are immune to wall clock
// steps. That is the property the bridge relies on when it stamps
// outgoing records.
package clock
