package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/authz"
	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/repository"
)

// FacilityHandler manages the amenities attached to kos and rooms.
type FacilityHandler struct {
	Facilities *repository.FacilityRepo
	Kos        *repository.KosRepo
	Rooms      *repository.RoomRepo
	Log        *logrus.Logger
}

type facilityJSON struct {
	ID          uint64  `json:"id"`
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Type        string  `json:"facility_type"`
	KosID       *uint64 `json:"kos_id,omitempty"`
	RoomID      *uint64 `json:"room_id,omitempty"`
}

func toFacilityJSON(f *model.Facility) facilityJSON {
	return facilityJSON{
		ID:          f.ID,
		UUID:        f.UUID,
		Name:        f.Name,
		Description: f.Description,
		Icon:        f.Icon,
		Type:        f.Type,
		KosID:       f.KosID,
		RoomID:      f.RoomID,
	}
}

func toFacilityJSONList(list []model.Facility) []facilityJSON {
	out := make([]facilityJSON, 0, len(list))
	for i := range list {
		out = append(out, toFacilityJSON(&list[i]))
	}
	return out
}

type createFacilityRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Type        string `json:"facility_type" validate:"required,oneof=KOS_FACILITY ROOM_FACILITY"`
	KosID       uint64 `json:"kos_id"`
	RoomID      uint64 `json:"room_id"`
}

// Create attaches a facility to a kos or a room. The parent reference
// must match the facility type and the caller must own the kos chain.
func (h *FacilityHandler) Create(c echo.Context) error {
	var req createFacilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	f := model.Facility{
		UUID:        uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Type:        req.Type,
	}
	var ownerID uint64
	switch req.Type {
	case model.FacilityKos:
		if req.KosID == 0 || req.RoomID != 0 {
			return fail(c, http.StatusBadRequest, "KOS_FACILITY requires kos_id and no room_id")
		}
		id, err := h.Kos.OwnerID(ctx, req.KosID)
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "kos not found")
		}
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to load kos")
		}
		ownerID = id
		f.KosID = &req.KosID
	case model.FacilityRoom:
		if req.RoomID == 0 || req.KosID != 0 {
			return fail(c, http.StatusBadRequest, "ROOM_FACILITY requires room_id and no kos_id")
		}
		room, err := h.Rooms.GetByID(ctx, req.RoomID)
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "room not found")
		}
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to load room")
		}
		id, err := h.Kos.OwnerID(ctx, room.KosID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to load kos")
		}
		ownerID = id
		f.RoomID = &req.RoomID
	}
	if !authz.ForKosResource(caller(c), ownerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	if err := h.Facilities.Create(ctx, &f); err != nil {
		h.Log.WithError(err).Error("failed to create facility")
		return fail(c, http.StatusInternalServerError, "failed to create facility")
	}
	return okMessage(c, http.StatusCreated, "facility created", toFacilityJSON(&f))
}

type updateFacilityRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Update modifies a facility's descriptive fields. The parent reference
// and type are immutable.
func (h *FacilityHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateFacilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	f, ownerID, err := h.Facilities.GetWithOwner(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "facility not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load facility")
	}
	if !authz.ForKosResource(caller(c), ownerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	f.Name = req.Name
	f.Description = req.Description
	f.Icon = req.Icon
	if err := h.Facilities.Update(ctx, f); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update facility")
	}
	return okMessage(c, http.StatusOK, "facility updated", toFacilityJSON(f))
}

// Delete removes a facility.
func (h *FacilityHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	_, ownerID, err := h.Facilities.GetWithOwner(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "facility not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load facility")
	}
	if !authz.ForKosResource(caller(c), ownerID).CanDelete {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}
	if err := h.Facilities.Delete(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to delete facility")
	}
	return okMessage(c, http.StatusOK, "facility deleted", nil)
}
