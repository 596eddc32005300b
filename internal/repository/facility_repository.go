package repository

import (
	"context"
	"database/sql"

	"github.com/krizzk/be-koszhunter/internal/model"
)

// FacilityRepo provides data access to the facilities table. A facility
// references exactly one of a kos or a room, discriminated by its type;
// ownership checks resolve through that parent to the kos owner.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo returns a new FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

const facilityColumns = `id, uuid, name, description, icon, facility_type, kos_id, room_id, created_at, updated_at`

func scanFacility(row interface{ Scan(...any) error }, f *model.Facility) error {
	var kosID, roomID sql.NullInt64
	if err := row.Scan(&f.ID, &f.UUID, &f.Name, &f.Description, &f.Icon, &f.Type,
		&kosID, &roomID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return err
	}
	if kosID.Valid {
		v := uint64(kosID.Int64)
		f.KosID = &v
	}
	if roomID.Valid {
		v := uint64(roomID.Int64)
		f.RoomID = &v
	}
	return nil
}

// Create inserts a new facility and populates the generated ID.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	const q = `INSERT INTO facilities (uuid, name, description, icon, facility_type, kos_id, room_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.UUID, f.Name, f.Description, f.Icon, f.Type, f.KosID, f.RoomID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	const sel = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	return scanFacility(r.db.QueryRowContext(ctx, sel, f.ID), f)
}

// ListByKos returns the KOS_FACILITY rows of a kos.
func (r *FacilityRepo) ListByKos(ctx context.Context, kosID uint64) ([]model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities
	           WHERE kos_id = ? AND facility_type = ? ORDER BY name`
	return r.list(ctx, q, kosID, model.FacilityKos)
}

// ListByRoom returns the ROOM_FACILITY rows of a room.
func (r *FacilityRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities
	           WHERE room_id = ? AND facility_type = ? ORDER BY name`
	return r.list(ctx, q, roomID, model.FacilityRoom)
}

func (r *FacilityRepo) list(ctx context.Context, q string, args ...any) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Facility, 0)
	for rows.Next() {
		var f model.Facility
		if err := scanFacility(rows, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetWithOwner returns a facility and the ID of the user owning it
// through the kos chain (directly, or via the room's kos).
func (r *FacilityRepo) GetWithOwner(ctx context.Context, id uint64) (*model.Facility, uint64, error) {
	const q = `SELECT f.id, f.uuid, f.name, f.description, f.icon, f.facility_type,
	                  f.kos_id, f.room_id, f.created_at, f.updated_at,
	                  COALESCE(k.owner_id, rk.owner_id)
	           FROM facilities f
	           LEFT JOIN kos k ON k.id = f.kos_id
	           LEFT JOIN rooms r ON r.id = f.room_id
	           LEFT JOIN kos rk ON rk.id = r.kos_id
	           WHERE f.id = ?`
	var f model.Facility
	var kosID, roomID sql.NullInt64
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&f.ID, &f.UUID, &f.Name, &f.Description,
		&f.Icon, &f.Type, &kosID, &roomID, &f.CreatedAt, &f.UpdatedAt, &ownerID)
	if err != nil {
		return nil, 0, err
	}
	if kosID.Valid {
		v := uint64(kosID.Int64)
		f.KosID = &v
	}
	if roomID.Valid {
		v := uint64(roomID.Int64)
		f.RoomID = &v
	}
	return &f, ownerID, nil
}

// Update overwrites the mutable facility fields.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
	const q = `UPDATE facilities SET name = ?, description = ?, icon = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, f.Name, f.Description, f.Icon, f.ID)
	return err
}

// Delete removes a facility.
func (r *FacilityRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
	return err
}
