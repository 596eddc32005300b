package model

import "time"

// Review is a renter's rating of a kos. At most one review exists per
// (user, kos) pair. The kos owner may attach a single reply; ReplyContent,
// ReplyAt and ReplyOwnerID are set together when that happens.
type Review struct {
	ID           uint64     // reviews.id
	UUID         string     // reviews.uuid
	Content      string     // reviews.content
	Rating       int        // reviews.rating (1-5)
	ReplyContent *string    // reviews.reply_content (nullable)
	ReplyAt      *time.Time // reviews.reply_at (nullable)
	ReplyOwnerID *uint64    // reviews.reply_owner_id (nullable)
	UserID       uint64     // reviews.user_id
	KosID        uint64     // reviews.kos_id
	CreatedAt    time.Time  // reviews.created_at
	UpdatedAt    time.Time  // reviews.updated_at
}
