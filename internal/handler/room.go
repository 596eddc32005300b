package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/authz"
	"github.com/krizzk/be-koszhunter/internal/config"
	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/repository"
)

// RoomHandler serves the room endpoints. Every mutation that changes the
// set of rooms or a room's status runs in one transaction with the
// parent kos's counter delta so the derived counts never drift.
type RoomHandler struct {
	Rooms      *repository.RoomRepo
	Kos        *repository.KosRepo
	Facilities *repository.FacilityRepo
	Cfg        config.Config
	Log        *logrus.Logger
}

type roomJSON struct {
	ID          uint64 `json:"id"`
	UUID        string `json:"uuid"`
	RoomNumber  string `json:"room_number"`
	Type        string `json:"tipe"`
	MonthlyRate int64  `json:"harga"`
	Status      string `json:"status"`
	Picture     string `json:"room_picture,omitempty"`
	KosID       uint64 `json:"kos_id"`
	CreatedAt   string `json:"created_at"`
}

func toRoomJSON(m *model.Room) roomJSON {
	return roomJSON{
		ID:          m.ID,
		UUID:        m.UUID,
		RoomNumber:  m.RoomNumber,
		Type:        m.Type,
		MonthlyRate: m.MonthlyRate,
		Status:      m.Status,
		Picture:     m.Picture,
		KosID:       m.KosID,
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// kosCounters echoes the updated derived counts back to the client after
// a room mutation.
type kosCounters struct {
	KosID          uint64 `json:"kos_id"`
	TotalRooms     int64  `json:"total_rooms"`
	AvailableRooms int64  `json:"available_rooms"`
}

// ListByKos returns the rooms of a kos, optionally filtered by status.
// Public.
func (h *RoomHandler) ListByKos(c echo.Context) error {
	kosID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	status := c.QueryParam("status")
	if status != "" && status != model.RoomAvailable &&
		status != model.RoomOccupied && status != model.RoomMaintenance {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	rooms, err := h.Rooms.ListByKos(c.Request().Context(), kosID, status)
	if err != nil {
		h.Log.WithError(err).Error("failed to list rooms")
		return fail(c, http.StatusInternalServerError, "failed to list rooms")
	}
	out := make([]roomJSON, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoomJSON(&rooms[i]))
	}
	return ok(c, http.StatusOK, out)
}

// Get returns a single room with its facilities and the number of
// active bookings holding it. Public.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	m, err := h.Rooms.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "room not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load room")
	}
	facilities, err := h.Facilities.ListByRoom(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load facilities")
	}

	tx, err := h.Rooms.DB().BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()
	active, err := h.Rooms.ActiveBookingCountTx(ctx, tx, id, 0)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to count bookings")
	}

	return ok(c, http.StatusOK, map[string]any{
		"room":           toRoomJSON(m),
		"facilities":     toFacilityJSONList(facilities),
		"activeBookings": active,
	})
}

type createRoomRequest struct {
	KosID       uint64 `json:"kos_id" validate:"required"`
	RoomNumber  string `json:"room_number" validate:"required,max=20"`
	Type        string `json:"tipe" validate:"required,max=50"`
	MonthlyRate int64  `json:"harga" validate:"required,gt=0"`
}

// Create adds a room to a kos. The insert and the counter increment
// commit atomically; a new room always starts AVAILABLE, so both
// counters grow by one.
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	ownerID, err := h.Kos.OwnerID(ctx, req.KosID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "kos not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load kos")
	}
	if !authz.ForKosResource(caller(c), ownerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	m := model.Room{
		UUID:        uuid.NewString(),
		RoomNumber:  req.RoomNumber,
		Type:        req.Type,
		MonthlyRate: req.MonthlyRate,
		Status:      model.RoomAvailable,
		KosID:       req.KosID,
	}

	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	if err := h.Rooms.CreateTx(ctx, tx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoomNumber) {
			return fail(c, http.StatusBadRequest, "room number already exists in this kos")
		}
		h.Log.WithError(err).Error("failed to create room")
		return fail(c, http.StatusInternalServerError, "failed to create room")
	}
	if err := h.Kos.ApplyRoomDeltaTx(ctx, tx, req.KosID, +1, +1); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update kos counters")
	}
	total, available, err := h.Kos.CountersTx(ctx, tx, req.KosID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to read kos counters")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}

	return okMessage(c, http.StatusCreated, "room created", map[string]any{
		"room":        toRoomJSON(&m),
		"kos_updated": kosCounters{KosID: req.KosID, TotalRooms: total, AvailableRooms: available},
	})
}

type updateRoomRequest struct {
	RoomNumber  string `json:"room_number" validate:"required,max=20"`
	Type        string `json:"tipe" validate:"required,max=50"`
	MonthlyRate int64  `json:"harga" validate:"required,gt=0"`
	Status      string `json:"status" validate:"required,oneof=AVAILABLE OCCUPIED MAINTENANCE"`
}

// Update modifies a room. A status change to or from AVAILABLE adjusts
// available_rooms by the matching delta in the same transaction.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateRoomRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	m, ownerID, err := h.Rooms.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "room not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load room")
	}
	if !authz.ForKosResource(caller(c), ownerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	var availableDelta int64
	wasAvailable := m.Status == model.RoomAvailable
	willBeAvailable := req.Status == model.RoomAvailable
	if wasAvailable && !willBeAvailable {
		availableDelta = -1
	} else if !wasAvailable && willBeAvailable {
		availableDelta = +1
	}

	m.RoomNumber = req.RoomNumber
	m.Type = req.Type
	m.MonthlyRate = req.MonthlyRate
	m.Status = req.Status
	if err := h.Rooms.UpdateTx(ctx, tx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoomNumber) {
			return fail(c, http.StatusBadRequest, "room number already exists in this kos")
		}
		h.Log.WithError(err).Error("failed to update room")
		return fail(c, http.StatusInternalServerError, "failed to update room")
	}
	if availableDelta != 0 {
		if err := h.Kos.ApplyRoomDeltaTx(ctx, tx, m.KosID, 0, availableDelta); err != nil {
			return fail(c, http.StatusInternalServerError, "failed to update kos counters")
		}
	}
	total, available, err := h.Kos.CountersTx(ctx, tx, m.KosID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to read kos counters")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}

	return okMessage(c, http.StatusOK, "room updated", map[string]any{
		"room":        toRoomJSON(m),
		"kos_updated": kosCounters{KosID: m.KosID, TotalRooms: total, AvailableRooms: available},
	})
}

// UpdatePicture stores an uploaded room picture.
func (h *RoomHandler) UpdatePicture(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	m, ownerID, err := h.Rooms.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "room not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load room")
	}
	if !authz.ForKosResource(caller(c), ownerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	file, err := c.FormFile("room_picture")
	if err != nil {
		return fail(c, http.StatusBadRequest, "room_picture file is required")
	}
	name, err := saveUpload(file, filepath.Join(h.Cfg.PublicDir, "rooms"))
	if err != nil {
		h.Log.WithError(err).Error("failed to store room picture")
		return fail(c, http.StatusInternalServerError, "failed to store picture")
	}
	m.Picture = name
	if err := h.Rooms.UpdateTx(ctx, tx, m); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update room")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}
	return okMessage(c, http.StatusOK, "picture updated", map[string]string{"room_picture": name})
}

// Delete removes a room. Rooms with PENDING or CONFIRMED bookings cannot
// be deleted; otherwise the delete and the counter decrement commit as
// one unit. available_rooms only drops when the room was AVAILABLE.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	m, ownerID, err := h.Rooms.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "room not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load room")
	}
	if !authz.ForKosResource(caller(c), ownerID).CanDelete {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	active, err := h.Rooms.ActiveBookingCountTx(ctx, tx, id, 0)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to check bookings")
	}
	if active > 0 {
		return fail(c, http.StatusBadRequest, "room has active bookings")
	}

	if err := h.Rooms.DeleteTx(ctx, tx, id); err != nil {
		h.Log.WithError(err).Error("failed to delete room")
		return fail(c, http.StatusInternalServerError, "failed to delete room")
	}
	var availableDelta int64
	if m.Status == model.RoomAvailable {
		availableDelta = -1
	}
	if err := h.Kos.ApplyRoomDeltaTx(ctx, tx, m.KosID, -1, availableDelta); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update kos counters")
	}
	total, available, err := h.Kos.CountersTx(ctx, tx, m.KosID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to read kos counters")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}

	return okMessage(c, http.StatusOK, "room deleted", map[string]any{
		"deleted_room": toRoomJSON(m),
		"kos_updated":  kosCounters{KosID: m.KosID, TotalRooms: total, AvailableRooms: available},
	})
}
