// Package authz centralizes the ownership/role checks that the handlers
// apply before mutating a resource. Every protected operation resolves to
// one predicate over the caller and the resource's owner chain instead of
// re-implementing the comparison inline.
package authz

import "github.com/krizzk/be-koszhunter/internal/model"

// Caller identifies the authenticated user for an authorization decision.
type Caller struct {
	ID   uint64
	Role string
}

// Capabilities is the set of actions a caller may perform on a booking
// or on a resource owned through a kos.
type Capabilities struct {
	CanRead   bool
	CanWrite  bool
	CanDelete bool
}

// none is the zero decision: everything denied.
var none = Capabilities{}
var all = Capabilities{CanRead: true, CanWrite: true, CanDelete: true}

// ForBooking decides what the caller may do with a booking. A society
// caller must be the renter; an owner caller must own the kos the booked
// room belongs to. Anyone else gets nothing.
func ForBooking(c Caller, renterID, kosOwnerID uint64) Capabilities {
	switch c.Role {
	case model.RoleSociety:
		if c.ID == renterID {
			return all
		}
	case model.RoleOwner:
		if c.ID == kosOwnerID {
			return all
		}
	}
	return none
}

// ForKosResource decides what the caller may do with a kos or anything
// owned through it (rooms, facilities). Only the owning OWNER may mutate;
// reads are open to everyone.
func ForKosResource(c Caller, kosOwnerID uint64) Capabilities {
	if c.Role == model.RoleOwner && c.ID == kosOwnerID {
		return all
	}
	return Capabilities{CanRead: true}
}
