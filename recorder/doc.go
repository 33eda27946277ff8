// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recorder writes bus traffic to a compact append-only file
// and reads it back.
//
// A recording is a fixed magic followed by blocks. Each block holds a
// run of CBOR-encoded [bus.Envelope] values, compressed as a unit, and
// is laid out as:
//
//	offset  size  field
//	0       1     compression tag (none, lz4, zstd)
//	1       4     record count, little-endian
//	5       4     uncompressed size, little-endian
//	9       4     stored size, little-endian
//	13      32    BLAKE3 keyed digest of the uncompressed bytes
//	45      n     stored bytes
//
// The digest is checked on read; a block that fails it (or is cut
// short) stops the [Reader] with [ErrCorrupt]. Blocks that do not
// shrink under the requested compression are stored uncompressed and
// tagged as such.
//
// [Writer] buffers records and closes a block when it reaches the
// configured record count, when [Writer.Flush] is called, or on each
// tick of the flush interval while [Writer.Run] is consuming a bus
// subscription.
package recorder
