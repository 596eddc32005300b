package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/krizzk/be-koszhunter/internal/model"
)

// KosRepo provides CRUD operations for kos listings and owns the derived
// room counters. total_rooms and available_rooms are never written with
// absolute values after creation; every change goes through ApplyRoomDeltaTx
// so concurrent room mutations on the same kos cannot lose updates.
type KosRepo struct {
	db *sql.DB
}

// NewKosRepo returns a new KosRepo bound to the given database.
func NewKosRepo(db *sql.DB) *KosRepo { return &KosRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *KosRepo) DB() *sql.DB { return r.db }

const kosColumns = `id, uuid, name, alamat, description, peraturan_kos, gender_type,
       total_rooms, available_rooms, kos_picture, owner_id, created_at, updated_at`

func scanKos(row interface{ Scan(...any) error }, k *model.Kos) error {
	return row.Scan(&k.ID, &k.UUID, &k.Name, &k.Address, &k.Description, &k.Rules,
		&k.GenderType, &k.TotalRooms, &k.AvailableRooms, &k.Picture, &k.OwnerID,
		&k.CreatedAt, &k.UpdatedAt)
}

// Create inserts a new kos with zeroed room counters and populates the
// generated ID and timestamps on the provided model.
func (r *KosRepo) Create(ctx context.Context, k *model.Kos) error {
	const q = `INSERT INTO kos (uuid, name, alamat, description, peraturan_kos, gender_type,
	                            total_rooms, available_rooms, kos_picture, owner_id)
	           VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, k.UUID, k.Name, k.Address, k.Description,
		k.Rules, k.GenderType, k.Picture, k.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	k.ID = uint64(id)
	const sel = `SELECT ` + kosColumns + ` FROM kos WHERE id = ?`
	return scanKos(r.db.QueryRowContext(ctx, sel, k.ID), k)
}

// GetByID returns a single kos. sql.ErrNoRows is returned when no kos
// with the given ID exists.
func (r *KosRepo) GetByID(ctx context.Context, id uint64) (*model.Kos, error) {
	const q = `SELECT ` + kosColumns + ` FROM kos WHERE id = ?`
	var k model.Kos
	if err := scanKos(r.db.QueryRowContext(ctx, q, id), &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// List returns kos listings matching an optional name search and gender
// filter, newest first. Empty filter values match everything.
func (r *KosRepo) List(ctx context.Context, search, genderType string) ([]model.Kos, error) {
	q := `SELECT ` + kosColumns + ` FROM kos WHERE name LIKE ?`
	args := []any{"%" + strings.TrimSpace(search) + "%"}
	if genderType != "" {
		q += ` AND gender_type = ?`
		args = append(args, genderType)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Kos, 0)
	for rows.Next() {
		var k model.Kos
		if err := scanKos(rows, &k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Update overwrites the mutable listing fields. Counters are deliberately
// not part of the statement.
func (r *KosRepo) Update(ctx context.Context, k *model.Kos) error {
	const q = `UPDATE kos SET name = ?, alamat = ?, description = ?, peraturan_kos = ?,
	           gender_type = ?, kos_picture = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, k.Name, k.Address, k.Description, k.Rules,
		k.GenderType, k.Picture, k.ID)
	return err
}

// Delete removes a kos. Rooms, facilities and reviews referencing it are
// removed by ON DELETE CASCADE foreign keys.
func (r *KosRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kos WHERE id = ?`, id)
	return err
}

// ApplyRoomDeltaTx adjusts the derived counters by relative amounts in a
// single statement. The GREATEST/LEAST clamps keep available_rooms inside
// [0, total_rooms] even if a racing mutation slipped a delta in between;
// all counter writes in the codebase go through here.
func (r *KosRepo) ApplyRoomDeltaTx(ctx context.Context, tx *sql.Tx, kosID uint64, totalDelta, availableDelta int64) error {
	const q = `UPDATE kos
	           SET total_rooms = GREATEST(total_rooms + ?, 0),
	               available_rooms = LEAST(GREATEST(available_rooms + ?, 0), GREATEST(total_rooms + ?, 0))
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, totalDelta, availableDelta, totalDelta, kosID)
	return err
}

// CountersTx reads the current counters inside a transaction, used by
// handlers that echo the updated counts back to the client.
func (r *KosRepo) CountersTx(ctx context.Context, tx *sql.Tx, kosID uint64) (total, available int64, err error) {
	const q = `SELECT total_rooms, available_rooms FROM kos WHERE id = ?`
	err = tx.QueryRowContext(ctx, q, kosID).Scan(&total, &available)
	return total, available, err
}

// OwnerID returns the owning user of a kos. sql.ErrNoRows when the kos
// does not exist.
func (r *KosRepo) OwnerID(ctx context.Context, kosID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM kos WHERE id = ?`, kosID).Scan(&ownerID)
	return ownerID, err
}
