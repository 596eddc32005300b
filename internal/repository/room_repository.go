package repository

import (
	"context"
	"database/sql"

	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/model"
)

// RoomRepo provides data access to the rooms table. Mutations that affect
// the parent kos's derived counters run inside a caller-supplied
// transaction together with the matching KosRepo.ApplyRoomDeltaTx call so
// a room change and its counter update commit or roll back as one unit.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, uuid, room_number, tipe, harga, status, room_picture, kos_id, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }, m *model.Room) error {
	return row.Scan(&m.ID, &m.UUID, &m.RoomNumber, &m.Type, &m.MonthlyRate,
		&m.Status, &m.Picture, &m.KosID, &m.CreatedAt, &m.UpdatedAt)
}

// CreateTx inserts a new room within the given transaction after checking
// that the room number is unused in the kos. It populates the generated ID
// on the model and returns ErrDuplicateRoomNumber on a number clash. The
// caller is responsible for the counter delta and the commit.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Room) error {
	var existing uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM rooms WHERE kos_id = ? AND room_number = ?`,
		m.KosID, m.RoomNumber).Scan(&existing)
	if err == nil {
		return ErrDuplicateRoomNumber
	}
	if err != sql.ErrNoRows {
		return err
	}
	const q = `INSERT INTO rooms (uuid, room_number, tipe, harga, status, room_picture, kos_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, m.UUID, m.RoomNumber, m.Type, m.MonthlyRate,
		m.Status, m.Picture, m.KosID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const sel = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return scanRoom(tx.QueryRowContext(ctx, sel, m.ID), m)
}

// GetByID returns a single room. sql.ErrNoRows when it does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	var m model.Room
	if err := scanRoom(r.db.QueryRowContext(ctx, q, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetForUpdateTx loads a room and its kos owner inside a transaction,
// locking the room row. The lock serializes concurrent booking creates
// and status changes targeting the same room, which is what keeps the
// availability check and the insert atomic.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, uint64, error) {
	const q = `SELECT r.id, r.uuid, r.room_number, r.tipe, r.harga, r.status,
	                  r.room_picture, r.kos_id, r.created_at, r.updated_at, k.owner_id
	           FROM rooms r
	           JOIN kos k ON k.id = r.kos_id
	           WHERE r.id = ?
	           FOR UPDATE`
	var m model.Room
	var ownerID uint64
	err := tx.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.UUID, &m.RoomNumber, &m.Type,
		&m.MonthlyRate, &m.Status, &m.Picture, &m.KosID, &m.CreatedAt, &m.UpdatedAt, &ownerID)
	if err != nil {
		return nil, 0, err
	}
	return &m, ownerID, nil
}

// ListByKos returns the rooms of a kos, optionally filtered by status.
func (r *RoomRepo) ListByKos(ctx context.Context, kosID uint64, status string) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE kos_id = ?`
	args := []any{kosID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY room_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var m model.Room
		if err := scanRoom(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateTx overwrites the mutable room fields within a transaction. When
// the room number changes it re-checks uniqueness within the kos,
// excluding the room itself.
func (r *RoomRepo) UpdateTx(ctx context.Context, tx *sql.Tx, m *model.Room) error {
	var existing uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM rooms WHERE kos_id = ? AND room_number = ? AND id <> ?`,
		m.KosID, m.RoomNumber, m.ID).Scan(&existing)
	if err == nil {
		return ErrDuplicateRoomNumber
	}
	if err != sql.ErrNoRows {
		return err
	}
	const q = `UPDATE rooms SET room_number = ?, tipe = ?, harga = ?, status = ?, room_picture = ?
	           WHERE id = ?`
	_, err = tx.ExecContext(ctx, q, m.RoomNumber, m.Type, m.MonthlyRate, m.Status, m.Picture, m.ID)
	return err
}

// SetStatusTx updates only the room status. Used by the booking lifecycle
// when a booking is confirmed, cancelled or completed.
func (r *RoomRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, roomID uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, status, roomID)
	return err
}

// ActiveBookingCountTx counts PENDING/CONFIRMED bookings on a room,
// optionally excluding one booking (pass 0 to exclude none). Callers use
// it to reject room deletion and to decide whether a room may flip back
// to AVAILABLE after a cancellation.
func (r *RoomRepo) ActiveBookingCountTx(ctx context.Context, tx *sql.Tx, roomID, excludeBookingID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM bookings
	           WHERE room_id = ? AND id <> ? AND status IN (?, ?)`
	var n int64
	err := tx.QueryRowContext(ctx, q, roomID, excludeBookingID,
		booking.StatusPending, booking.StatusConfirmed).Scan(&n)
	return n, err
}

// DeleteTx removes a room within a transaction. Facilities referencing it
// are removed by cascade. The caller checks ActiveBookingCountTx first and
// applies the counter delta.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	return err
}
