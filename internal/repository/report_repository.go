package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/model"
)

// ReportRepo runs the read-side aggregation queries behind the dashboard
// and report endpoints. Everything here is read-only.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Dashboard aggregates platform-wide totals.
type Dashboard struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalOwners       int64 `json:"totalOwners"`
	TotalSociety      int64 `json:"totalSociety"`
	TotalKos          int64 `json:"totalKos"`
	TotalRooms        int64 `json:"totalRooms"`
	AvailableRooms    int64 `json:"availableRooms"`
	OccupiedRooms     int64 `json:"occupiedRooms"`
	PendingBookings   int64 `json:"pendingBookings"`
	ConfirmedBookings int64 `json:"confirmedBookings"`
	CompletedBookings int64 `json:"completedBookings"`
}

// GetDashboard computes the dashboard counters with aggregate queries
// instead of loading full tables.
func (r *ReportRepo) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	const usersQ = `SELECT COUNT(*),
	       COALESCE(SUM(role = ?), 0),
	       COALESCE(SUM(role = ?), 0) FROM users`
	if err := r.db.QueryRowContext(ctx, usersQ, model.RoleOwner, model.RoleSociety).
		Scan(&d.TotalUsers, &d.TotalOwners, &d.TotalSociety); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kos`).Scan(&d.TotalKos); err != nil {
		return nil, err
	}
	const roomsQ = `SELECT COUNT(*),
	       COALESCE(SUM(status = ?), 0),
	       COALESCE(SUM(status = ?), 0) FROM rooms`
	if err := r.db.QueryRowContext(ctx, roomsQ, model.RoomAvailable, model.RoomOccupied).
		Scan(&d.TotalRooms, &d.AvailableRooms, &d.OccupiedRooms); err != nil {
		return nil, err
	}
	const bookingsQ = `SELECT
	       COALESCE(SUM(status = ?), 0),
	       COALESCE(SUM(status = ?), 0),
	       COALESCE(SUM(status = ?), 0) FROM bookings`
	if err := r.db.QueryRowContext(ctx, bookingsQ,
		booking.StatusPending, booking.StatusConfirmed, booking.StatusCompleted).
		Scan(&d.PendingBookings, &d.ConfirmedBookings, &d.CompletedBookings); err != nil {
		return nil, err
	}
	return &d, nil
}

// PopularKos is one row of the popularity ranking: a kos with its count
// of CONFIRMED/COMPLETED bookings and the revenue they produced.
type PopularKos struct {
	KosID        uint64 `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"alamat"`
	Picture      string `json:"kos_picture"`
	GenderType   string `json:"gender_type"`
	BookingCount int64  `json:"bookingCount"`
	TotalRevenue int64  `json:"totalRevenue"`
}

// GetPopularKos returns the top kos by confirmed/completed booking count.
func (r *ReportRepo) GetPopularKos(ctx context.Context, limit int) ([]PopularKos, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT k.id, k.name, k.alamat, k.kos_picture, k.gender_type,
	                  COUNT(b.id), COALESCE(SUM(b.total_price), 0)
	           FROM bookings b
	           JOIN rooms r ON r.id = b.room_id
	           JOIN kos k ON k.id = r.kos_id
	           WHERE b.status IN (?, ?)
	           GROUP BY k.id, k.name, k.alamat, k.kos_picture, k.gender_type
	           ORDER BY COUNT(b.id) DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, booking.StatusConfirmed, booking.StatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PopularKos, 0)
	for rows.Next() {
		var p PopularKos
		if err := rows.Scan(&p.KosID, &p.Name, &p.Address, &p.Picture, &p.GenderType,
			&p.BookingCount, &p.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Revenue summarizes confirmed/completed booking revenue over a range.
type Revenue struct {
	BookingCount int64 `json:"bookingCount"`
	TotalRevenue int64 `json:"totalRevenue"`
}

// GetRevenue sums revenue from CONFIRMED/COMPLETED bookings created inside
// [from, to]. Zero times disable the bound.
func (r *ReportRepo) GetRevenue(ctx context.Context, from, to time.Time) (*Revenue, error) {
	q := `SELECT COUNT(*), COALESCE(SUM(total_price), 0) FROM bookings WHERE status IN (?, ?)`
	args := []any{booking.StatusConfirmed, booking.StatusCompleted}
	if !from.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		q += ` AND created_at <= ?`
		args = append(args, to)
	}
	var rev Revenue
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&rev.BookingCount, &rev.TotalRevenue); err != nil {
		return nil, err
	}
	return &rev, nil
}
