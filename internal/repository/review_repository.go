package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/model"
)

// ReviewRepo provides data access to the reviews table.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, uuid, content, rating, reply_content, reply_at, reply_owner_id,
       user_id, kos_id, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }, v *model.Review) error {
	var reply sql.NullString
	var replyAt sql.NullTime
	var replyOwner sql.NullInt64
	if err := row.Scan(&v.ID, &v.UUID, &v.Content, &v.Rating, &reply, &replyAt, &replyOwner,
		&v.UserID, &v.KosID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return err
	}
	if reply.Valid {
		s := reply.String
		v.ReplyContent = &s
	}
	if replyAt.Valid {
		t := replyAt.Time
		v.ReplyAt = &t
	}
	if replyOwner.Valid {
		o := uint64(replyOwner.Int64)
		v.ReplyOwnerID = &o
	}
	return nil
}

// Create inserts a review after enforcing the one-review-per-(user, kos)
// rule; a second attempt returns ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, v *model.Review) error {
	var existing uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM reviews WHERE user_id = ? AND kos_id = ?`,
		v.UserID, v.KosID).Scan(&existing)
	if err == nil {
		return ErrDuplicateReview
	}
	if err != sql.ErrNoRows {
		return err
	}
	const q = `INSERT INTO reviews (uuid, content, rating, user_id, kos_id) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.UUID, v.Content, v.Rating, v.UserID, v.KosID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	const sel = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	return scanReview(r.db.QueryRowContext(ctx, sel, v.ID), v)
}

// HasStayed reports whether the user has any booking in the kos, which is
// the precondition for reviewing it.
func (r *ReviewRepo) HasStayed(ctx context.Context, userID, kosID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM bookings b
	             JOIN rooms rm ON rm.id = b.room_id
	             WHERE b.user_id = ? AND rm.kos_id = ? AND b.status IN (?, ?, ?))`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, userID, kosID,
		booking.StatusPending, booking.StatusConfirmed, booking.StatusCompleted).Scan(&ok)
	return ok, err
}

// ListByKos returns a kos's reviews newest first, plus the average rating
// over all of them (0 when there are none).
func (r *ReviewRepo) ListByKos(ctx context.Context, kosID uint64) ([]model.Review, float64, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE kos_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, kosID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		var v model.Review
		if err := scanReview(rows, &v); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var avg float64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE kos_id = ?`, kosID).Scan(&avg); err != nil {
		return nil, 0, err
	}
	return out, avg, nil
}

// GetWithOwner returns a review and the owner of the reviewed kos.
func (r *ReviewRepo) GetWithOwner(ctx context.Context, id uint64) (*model.Review, uint64, error) {
	const q = `SELECT v.id, v.uuid, v.content, v.rating, v.reply_content, v.reply_at, v.reply_owner_id,
	                  v.user_id, v.kos_id, v.created_at, v.updated_at, k.owner_id
	           FROM reviews v
	           JOIN kos k ON k.id = v.kos_id
	           WHERE v.id = ?`
	var v model.Review
	var reply sql.NullString
	var replyAt sql.NullTime
	var replyOwner sql.NullInt64
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.UUID, &v.Content, &v.Rating,
		&reply, &replyAt, &replyOwner, &v.UserID, &v.KosID, &v.CreatedAt, &v.UpdatedAt, &ownerID)
	if err != nil {
		return nil, 0, err
	}
	if reply.Valid {
		s := reply.String
		v.ReplyContent = &s
	}
	if replyAt.Valid {
		t := replyAt.Time
		v.ReplyAt = &t
	}
	if replyOwner.Valid {
		o := uint64(replyOwner.Int64)
		v.ReplyOwnerID = &o
	}
	return &v, ownerID, nil
}

// Reply attaches the kos owner's reply to a review.
func (r *ReviewRepo) Reply(ctx context.Context, id, ownerID uint64, content string, at time.Time) error {
	const q = `UPDATE reviews SET reply_content = ?, reply_at = ?, reply_owner_id = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, content, at, ownerID, id)
	return err
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}
