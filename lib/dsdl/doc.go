// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dsdl implements the Cyphal serialization rules for the
// message types the bridge consumes.
//
// Cyphal serializes fields back to back with no alignment, least
// significant bit first, little-endian across byte boundaries. [Reader]
// and [Writer] implement that bit stream. The typed schemas sit on top:
//
//   - [SetpointVector8]: reg.drone.service.actuator.common.sp.Vector8,
//     eight saturated uint13 actuator setpoints (0..8191), sealed,
//     13 bytes.
//   - [Readiness]: reg.drone.service.common.Readiness, a truncated
//     uint2 readiness code, extent 1 byte.
//
// Decoders take the payload and its declared size in bytes. The size is
// an upper bound: trailing bytes after the last field are padding and
// are ignored, but a size too small to hold every field fails with
// [ErrTruncated] instead of zero-extending. A declared size larger than
// the buffer fails with [ErrPayloadSize].
package dsdl
