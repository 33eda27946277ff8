// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus is the process-local publish/subscribe bus that carries
// translated records to the vehicle control software.
//
// A [Bus] holds named topics. Producers publish through a typed
// [Publication] handle; consumers either read the last published value
// with [Latest] or receive every publication through a bounded
// [Subscription]. A subscription that falls behind loses its oldest
// undelivered records, never the newest, and never blocks the
// publisher: the bridge's receive loop must not stall on a slow
// recorder or a disconnected monitor.
//
// [StateHolder] layers publish-on-change semantics over a publication
// for persistent records such as [ActuatorArmed]. It publishes its
// initial value once at construction so consumers never observe the
// topic unset, then publishes again only when a candidate differs.
//
// Topic record types live in topics.go. [Envelope] wraps a record in
// CBOR for the recorder and the tap socket.
package bus
