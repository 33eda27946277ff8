// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package subscriber

import "github.com/bureau-foundation/cyphal-bridge/transport"

// SecondaryPolicy derives a unit's secondary subject ID from its
// primary.
type SecondaryPolicy func(primary transport.PortID) transport.PortID

// OffsetSecondary places the secondary subject offset IDs after the
// primary. OffsetSecondary(1) is the conventional ESC layout.
func OffsetSecondary(offset transport.PortID) SecondaryPolicy {
	return func(primary transport.PortID) transport.PortID {
		return primary + offset
	}
}

// FixedSecondary ignores the primary and always uses port.
func FixedSecondary(port transport.PortID) SecondaryPolicy {
	return func(transport.PortID) transport.PortID {
		return port
	}
}

// PortRegistry holds the pair of subject IDs one unit listens on.
// Until Activate is called with a valid primary it claims no port.
type PortRegistry struct {
	instance uint8
	policy   SecondaryPolicy

	active    bool
	primary   transport.PortID
	secondary transport.PortID
}

// NewPortRegistry returns an inactive registry. A nil policy means
// OffsetSecondary(1).
func NewPortRegistry(instance uint8, policy SecondaryPolicy) *PortRegistry {
	if policy == nil {
		policy = OffsetSecondary(1)
	}
	return &PortRegistry{
		instance:  instance,
		policy:    policy,
		primary:   transport.PortIDUnset,
		secondary: transport.PortIDUnset,
	}
}

// Activate assigns the primary subject and derives the secondary.
// Activating with PortIDUnset (or any invalid ID) deactivates.
func (r *PortRegistry) Activate(primary transport.PortID) {
	if !primary.Valid() {
		r.Deactivate()
		return
	}
	r.primary = primary
	r.secondary = r.policy(primary)
	r.active = true
}

// Deactivate forgets both subjects.
func (r *PortRegistry) Deactivate() {
	r.active = false
	r.primary = transport.PortIDUnset
	r.secondary = transport.PortIDUnset
}

// Active reports whether a primary has been assigned.
func (r *PortRegistry) Active() bool { return r.active }

// Instance returns the instance index the registry was built with.
func (r *PortRegistry) Instance() uint8 { return r.instance }

// Primary returns the primary subject, or PortIDUnset.
func (r *PortRegistry) Primary() transport.PortID { return r.primary }

// Secondary returns the secondary subject, or PortIDUnset.
func (r *PortRegistry) Secondary() transport.PortID { return r.secondary }

// IsPrimary reports whether port is the active primary.
func (r *PortRegistry) IsPrimary(port transport.PortID) bool {
	return r.active && port == r.primary
}

// IsSecondary reports whether port is the active secondary.
func (r *PortRegistry) IsSecondary(port transport.PortID) bool {
	return r.active && port == r.secondary
}

// BelongsTo reports whether port is either of the unit's subjects.
func (r *PortRegistry) BelongsTo(port transport.PortID) bool {
	return r.IsPrimary(port) || r.IsSecondary(port)
}
