package model

import "time"

// Facility type discriminator stored in facilities.facility_type. Exactly
// one of KosID or RoomID is set, matching the type.
const (
	FacilityKos  = "KOS_FACILITY"
	FacilityRoom = "ROOM_FACILITY"
)

// Facility is an amenity attached to either a kos or a room, discriminated
// by Type. Ownership follows the parent: a facility belongs to whoever
// owns the kos (directly or through the room's kos).
type Facility struct {
	ID          uint64    // facilities.id
	UUID        string    // facilities.uuid
	Name        string    // facilities.name
	Description string    // facilities.description
	Icon        string    // facilities.icon
	Type        string    // facilities.facility_type
	KosID       *uint64   // facilities.kos_id (nullable)
	RoomID      *uint64   // facilities.room_id (nullable)
	CreatedAt   time.Time // facilities.created_at
	UpdatedAt   time.Time // facilities.updated_at
}
