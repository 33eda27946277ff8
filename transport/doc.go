// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport receives Cyphal/CAN message transfers and hands
// them to the bridge's subscribers.
//
// A [Transport] owns the subscription table. Subscribers register a
// subject with [Transport.Subscribe], giving the subject's [PortID],
// the extent (the most payload bytes the subscriber's schema can use)
// and a transfer-ID timeout. [Transport.Run] reads CAN frames from a
// [FrameSource], reassembles them into [Transfer] values per
// (subject, source node) session, and invokes the [Handler]
// synchronously, one transfer at a time, in arrival order. Frames on
// subjects nobody subscribed to are dropped without reassembly.
//
// Frame layout follows Cyphal/CAN v1:
//
//   - 29-bit extended CAN ID: priority in bits 26..28, service flag in
//     bit 25, anonymous flag in bit 24, subject ID in bits 8..20,
//     source node ID in bits 0..6. Bits 23 and 7 must be zero.
//   - The last data byte is the tail byte: start-of-transfer 0x80,
//     end-of-transfer 0x40, toggle 0x20, transfer ID in the low five
//     bits. The toggle starts at 1 and alternates.
//   - Multi-frame transfers append CRC-16/CCITT-FALSE (big-endian) to
//     the payload. A transfer whose CRC does not check is dropped.
//
// Reassembly deduplicates by transfer ID: a session accepts the next
// transfer ID, or any ID other than the one just completed, or any ID
// once the transfer-ID timeout has elapsed since the session's last
// transfer started. Payload beyond the subscription extent is
// truncated, not rejected.
//
// [Encoder] is the transmit side, used by cyphal-pub and tests.
// [SocketCAN] reads and writes a Linux raw CAN socket; [MemoryBus] is an
// in-process frame queue for tests.
package transport
