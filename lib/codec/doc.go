// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the bridge's CBOR encoding configuration.
//
// The Cyphal wire format is handled by lib/dsdl. Everything the bridge
// serializes for itself (recorder blocks, the tap socket stream) is
// CBOR, encoded through this package so every consumer agrees on the
// configuration:
//
//   - Core Deterministic Encoding (RFC 8949 §4.2). The recorder hashes
//     encoded blocks, so the same record must always produce the same
//     bytes.
//   - Timestamps as RFC 3339 strings with nanoseconds. The default
//     integer-seconds encoding would collapse every record inside one
//     second onto the same timestamp.
//   - Unknown fields are ignored on decode, so an older monitor can
//     read a newer bridge's tap stream.
//
// Buffer form:
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
//
// Stream form (sockets, files):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Record types use `cbor` struct tags only.
package codec
