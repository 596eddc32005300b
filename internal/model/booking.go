package model

import "time"

// Booking records a renter's reservation of a room for a half-open
// [StartDate, EndDate) range. TotalPrice is derived from the room's
// monthly rate at creation time. InvoiceNumber is assigned lazily on the
// first invoice request and never changes afterwards.
//
// Fields:
//  ID            – primary key identifier.
//  UUID          – external identifier exposed to clients.
//  StartDate     – first day of the stay (inclusive).
//  EndDate       – day the stay ends (exclusive, strictly after StartDate).
//  TotalPrice    – derived total in rupiah, non-negative.
//  Status        – PENDING, CONFIRMED, CANCELLED or COMPLETED.
//  Notes         – free-text notes from the renter.
//  InvoiceNumber – lazily assigned invoice number ("" until generated).
//  InvoiceFile   – stored filename of the rendered invoice document.
//  UserID        – renting user.
//  RoomID        – booked room.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Booking struct {
	ID            uint64    // bookings.id
	UUID          string    // bookings.uuid
	StartDate     time.Time // bookings.start_date
	EndDate       time.Time // bookings.end_date
	TotalPrice    int64     // bookings.total_price
	Status        string    // bookings.status
	Notes         string    // bookings.notes
	InvoiceNumber string    // bookings.invoice_number (empty until generated)
	InvoiceFile   string    // bookings.invoice_pdf
	UserID        uint64    // bookings.user_id
	RoomID        uint64    // bookings.room_id
	CreatedAt     time.Time // bookings.created_at
	UpdatedAt     time.Time // bookings.updated_at
}
