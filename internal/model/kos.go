package model

import "time"

// Gender restriction values stored in kos.gender_type.
const (
	GenderMaleOnly   = "MALE_ONLY"
	GenderFemaleOnly = "FEMALE_ONLY"
	GenderMixed      = "MIXED"
)

// Kos is a boarding-house listing, the top-level rentable property.
// TotalRooms and AvailableRooms are derived counters: TotalRooms equals
// the number of room rows referencing this kos and AvailableRooms the
// number of those rooms whose status is AVAILABLE. They are maintained
// exclusively through atomic relative updates in the repository layer.
//
// Fields:
//  ID             – primary key identifier.
//  UUID           – external identifier exposed to clients.
//  Name           – listing name.
//  Address        – street address (column kept as `alamat`).
//  Description    – free-text description.
//  Rules          – house rules text (column `peraturan_kos`).
//  GenderType     – MALE_ONLY, FEMALE_ONLY or MIXED.
//  TotalRooms     – derived count of rooms in this kos.
//  AvailableRooms – derived count of AVAILABLE rooms.
//  Picture        – stored filename of the listing picture.
//  OwnerID        – owning user (role OWNER).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Kos struct {
	ID             uint64    // kos.id
	UUID           string    // kos.uuid
	Name           string    // kos.name
	Address        string    // kos.alamat
	Description    string    // kos.description
	Rules          string    // kos.peraturan_kos
	GenderType     string    // kos.gender_type
	TotalRooms     int64     // kos.total_rooms
	AvailableRooms int64     // kos.available_rooms
	Picture        string    // kos.kos_picture
	OwnerID        uint64    // kos.owner_id
	CreatedAt      time.Time // kos.created_at
	UpdatedAt      time.Time // kos.updated_at
}
