// Package queue defines the booking event contract and the consumer
// that records confirmed bookings for offline processing.
package queue

import "time"

// QueueBookingConfirmed is the queue confirmed booking events are
// published to.
const QueueBookingConfirmed = "booking.confirmed"

// BookingConfirmedEvent is emitted after a booking transitions to
// CONFIRMED and its invoice has been issued.
type BookingConfirmedEvent struct {
	BookingID     uint64    `json:"booking_id"`
	InvoiceNumber string    `json:"invoice_number"`
	RenterID      uint64    `json:"renter_id"`
	RenterName    string    `json:"renter_name"`
	KosID         uint64    `json:"kos_id"`
	KosName       string    `json:"kos_name"`
	RoomID        uint64    `json:"room_id"`
	RoomNumber    string    `json:"room_number"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Total         int64     `json:"total"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}
