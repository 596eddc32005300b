package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/model"
)

// BookingRepo provides CRUD operations for bookings. The availability
// check and the insert of a new booking are exposed as ...Tx methods so
// the handler can run both under the room row lock taken by
// RoomRepo.GetForUpdateTx; two concurrent creates for the same room are
// thereby serialized and at most one wins a contested date range.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, uuid, start_date, end_date, total_price, status, notes,
       COALESCE(invoice_number, ''), COALESCE(invoice_pdf, ''), user_id, room_id, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *model.Booking) error {
	return row.Scan(&b.ID, &b.UUID, &b.StartDate, &b.EndDate, &b.TotalPrice, &b.Status,
		&b.Notes, &b.InvoiceNumber, &b.InvoiceFile, &b.UserID, &b.RoomID,
		&b.CreatedAt, &b.UpdatedAt)
}

// HasOverlapTx reports whether any PENDING or CONFIRMED booking on the
// room intersects the half-open range [start, end). The comparison uses
// strict inequalities so back-to-back bookings (one ending exactly when
// the next starts) do not conflict.
func (r *BookingRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM bookings
	             WHERE room_id = ? AND status IN (?, ?)
	               AND start_date < ? AND end_date > ?)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, roomID,
		booking.StatusPending, booking.StatusConfirmed, end, start).Scan(&exists)
	return exists, err
}

// InsertTx persists a new booking within the given transaction and
// populates the generated ID and timestamps on the model.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (uuid, start_date, end_date, total_price, status, notes, user_id, room_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UUID, b.StartDate, b.EndDate, b.TotalPrice,
		b.Status, b.Notes, b.UserID, b.RoomID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return scanBooking(tx.QueryRowContext(ctx, sel, b.ID), b)
}

// GetForUpdateTx loads a booking together with the owner of the kos its
// room belongs to, locking the booking row. Status transitions and
// deletes run under this lock so the room-reset decision sees a stable
// set of sibling bookings. sql.ErrNoRows when the booking does not exist.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, uint64, error) {
	const q = `SELECT b.id, b.uuid, b.start_date, b.end_date, b.total_price, b.status, b.notes,
	                  COALESCE(b.invoice_number, ''), COALESCE(b.invoice_pdf, ''),
	                  b.user_id, b.room_id, b.created_at, b.updated_at, k.owner_id
	           FROM bookings b
	           JOIN rooms r ON r.id = b.room_id
	           JOIN kos k ON k.id = r.kos_id
	           WHERE b.id = ?
	           FOR UPDATE`
	var b model.Booking
	var ownerID uint64
	err := tx.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UUID, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.Status, &b.Notes, &b.InvoiceNumber, &b.InvoiceFile,
		&b.UserID, &b.RoomID, &b.CreatedAt, &b.UpdatedAt, &ownerID)
	if err != nil {
		return nil, 0, err
	}
	return &b, ownerID, nil
}

// GetByID returns a booking without locking, plus the kos owner for
// authorization checks.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, uint64, error) {
	const q = `SELECT b.id, b.uuid, b.start_date, b.end_date, b.total_price, b.status, b.notes,
	                  COALESCE(b.invoice_number, ''), COALESCE(b.invoice_pdf, ''),
	                  b.user_id, b.room_id, b.created_at, b.updated_at, k.owner_id
	           FROM bookings b
	           JOIN rooms r ON r.id = b.room_id
	           JOIN kos k ON k.id = r.kos_id
	           WHERE b.id = ?`
	var b model.Booking
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UUID, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.Status, &b.Notes, &b.InvoiceNumber, &b.InvoiceFile,
		&b.UserID, &b.RoomID, &b.CreatedAt, &b.UpdatedAt, &ownerID)
	if err != nil {
		return nil, 0, err
	}
	return &b, ownerID, nil
}

// SetStatusTx updates a booking's status within the transaction.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeleteTx removes a booking within the transaction.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return err
}

// AssignInvoiceNumber sets the invoice number only when none has been
// assigned yet, making the operation idempotent under concurrent invoice
// requests; the stored number is returned either way.
func (r *BookingRepo) AssignInvoiceNumber(ctx context.Context, id uint64, number string) (string, error) {
	const upd = `UPDATE bookings SET invoice_number = ?
	             WHERE id = ? AND (invoice_number IS NULL OR invoice_number = '')`
	if _, err := r.db.ExecContext(ctx, upd, number, id); err != nil {
		return "", err
	}
	var stored string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(invoice_number, '') FROM bookings WHERE id = ?`, id).Scan(&stored)
	return stored, err
}

// SetInvoiceFile records the rendered invoice document's filename.
func (r *BookingRepo) SetInvoiceFile(ctx context.Context, id uint64, filename string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bookings SET invoice_pdf = ? WHERE id = ?`, filename, id)
	return err
}

// BookingDetail is a booking joined with renter, room and kos information
// for list and detail responses.
type BookingDetail struct {
	model.Booking
	RenterName   string `json:"renter_name"`
	RenterEmail  string `json:"renter_email"`
	RenterPhone  string `json:"renter_phone"`
	RoomNumber   string `json:"room_number"`
	RoomType     string `json:"room_type"`
	KosID        uint64 `json:"kos_id"`
	KosName      string `json:"kos_name"`
	KosAddress   string `json:"kos_address"`
	KosOwnerID   uint64 `json:"kos_owner_id"`
	KosOwnerName string `json:"kos_owner_name"`
}

const bookingDetailSelect = `SELECT b.id, b.uuid, b.start_date, b.end_date, b.total_price, b.status, b.notes,
       COALESCE(b.invoice_number, ''), COALESCE(b.invoice_pdf, ''),
       b.user_id, b.room_id, b.created_at, b.updated_at,
       u.name, u.email, u.phone_number,
       r.room_number, r.tipe,
       k.id, k.name, k.alamat, k.owner_id, o.name
FROM bookings b
JOIN users u ON u.id = b.user_id
JOIN rooms r ON r.id = b.room_id
JOIN kos k ON k.id = r.kos_id
JOIN users o ON o.id = k.owner_id`

func scanBookingDetail(row interface{ Scan(...any) error }, d *BookingDetail) error {
	return row.Scan(&d.ID, &d.UUID, &d.StartDate, &d.EndDate, &d.TotalPrice, &d.Status,
		&d.Notes, &d.InvoiceNumber, &d.InvoiceFile, &d.UserID, &d.RoomID,
		&d.CreatedAt, &d.UpdatedAt,
		&d.RenterName, &d.RenterEmail, &d.RenterPhone,
		&d.RoomNumber, &d.RoomType,
		&d.KosID, &d.KosName, &d.KosAddress, &d.KosOwnerID, &d.KosOwnerName)
}

// GetDetail returns a single booking with its joined renter/room/kos
// context. sql.ErrNoRows when it does not exist.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*BookingDetail, error) {
	var d BookingDetail
	if err := scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ?`, id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListFilter narrows List results. RenterID and OwnerID scope the result
// to a society user's own bookings or to bookings in an owner's kos;
// exactly one of them is set for authenticated listing. Search matches
// renter name or kos name.
type ListFilter struct {
	RenterID uint64
	OwnerID  uint64
	Search   string
	Status   string
}

// List returns bookings matching the filter, newest first.
func (r *BookingRepo) List(ctx context.Context, f ListFilter) ([]BookingDetail, error) {
	q := bookingDetailSelect + ` WHERE 1=1`
	args := []any{}
	if f.RenterID != 0 {
		q += ` AND b.user_id = ?`
		args = append(args, f.RenterID)
	}
	if f.OwnerID != 0 {
		q += ` AND k.owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.Search != "" {
		q += ` AND (u.name LIKE ? OR k.name LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.Status != "" {
		q += ` AND b.status = ?`
		args = append(args, f.Status)
	}
	q += ` ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := scanBookingDetail(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListHistoryByOwner returns bookings in the owner's kos created inside
// [from, to]. Zero times disable the bound.
func (r *BookingRepo) ListHistoryByOwner(ctx context.Context, ownerID uint64, from, to time.Time) ([]BookingDetail, error) {
	q := bookingDetailSelect + ` WHERE k.owner_id = ?`
	args := []any{ownerID}
	if !from.IsZero() {
		q += ` AND b.created_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		q += ` AND b.created_at <= ?`
		args = append(args, to)
	}
	q += ` ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := scanBookingDetail(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
