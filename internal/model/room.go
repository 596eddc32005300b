package model

import "time"

// Room status values stored in rooms.status. Only AVAILABLE rooms count
// toward the parent kos's available_rooms counter and only they accept
// new bookings.
const (
	RoomAvailable   = "AVAILABLE"
	RoomOccupied    = "OCCUPIED"
	RoomMaintenance = "MAINTENANCE"
)

// Room is an individually bookable unit within a kos. RoomNumber is
// unique within its kos. MonthlyRate is a non-negative amount in rupiah
// (column kept as `harga`).
type Room struct {
	ID          uint64    // rooms.id
	UUID        string    // rooms.uuid
	RoomNumber  string    // rooms.room_number
	Type        string    // rooms.tipe
	MonthlyRate int64     // rooms.harga
	Status      string    // rooms.status
	Picture     string    // rooms.room_picture
	KosID       uint64    // rooms.kos_id
	CreatedAt   time.Time // rooms.created_at
	UpdatedAt   time.Time // rooms.updated_at
}
