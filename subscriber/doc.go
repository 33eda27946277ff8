// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package subscriber turns Cyphal transfers into internal bus records.
//
// Each logical unit (one ESC group, say) owns a [PortRegistry] holding
// its primary subject ID and the secondary ID derived from it, and a
// [Dispatcher] holding one [Route] per message family. A route pairs a
// port predicate with a decoder and a translation; adding a message
// family means registering another route, not writing another
// subscriber type.
//
// [ESC] is the unit for actuator setpoints and readiness:
//
//   - On the primary subject, a reg.drone.service.actuator.common.sp.Vector8
//     is decoded and each setpoint r is published as 2*(r/8191) - 1 on
//     output_control_mc. Every valid transfer publishes once.
//   - On the secondary subject (primary + 1), a
//     reg.drone.service.common.Readiness is mapped to the armed and
//     prearmed flags of actuator_armed, which is published only when a
//     flag changes.
//
// Nothing escapes OnTransfer: a payload that fails to decode is
// dropped (logged at debug, counted by the [Observer]) and the next
// transfer is processed normally.
//
// [Manager] is the transport-facing side. It resolves each
// subscriber's primary subject ID from the parameter store
// (uavcan.sub.<name>.<instance>.id), subscribes both ports with the
// transport, re-subscribes when the parameter changes, and routes each
// transfer to the subscriber that owns its port.
package subscriber
