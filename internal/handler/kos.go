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

// KosHandler serves the kos listing endpoints. Listing reads are public;
// mutations require the owning OWNER.
type KosHandler struct {
	Kos        *repository.KosRepo
	Facilities *repository.FacilityRepo
	Reviews    *repository.ReviewRepo
	Reports    *repository.ReportRepo
	Cfg        config.Config
	Log        *logrus.Logger
}

type kosJSON struct {
	ID             uint64 `json:"id"`
	UUID           string `json:"uuid"`
	Name           string `json:"name"`
	Address        string `json:"alamat"`
	Description    string `json:"description"`
	Rules          string `json:"peraturan_kos"`
	GenderType     string `json:"gender_type"`
	TotalRooms     int64  `json:"total_rooms"`
	AvailableRooms int64  `json:"available_rooms"`
	Picture        string `json:"kos_picture,omitempty"`
	OwnerID        uint64 `json:"owner_id"`
	CreatedAt      string `json:"created_at"`
}

func toKosJSON(k *model.Kos) kosJSON {
	return kosJSON{
		ID:             k.ID,
		UUID:           k.UUID,
		Name:           k.Name,
		Address:        k.Address,
		Description:    k.Description,
		Rules:          k.Rules,
		GenderType:     k.GenderType,
		TotalRooms:     k.TotalRooms,
		AvailableRooms: k.AvailableRooms,
		Picture:        k.Picture,
		OwnerID:        k.OwnerID,
		CreatedAt:      k.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns kos listings filtered by an optional name search and
// gender type. Public, cached.
func (h *KosHandler) List(c echo.Context) error {
	gender := c.QueryParam("gender_type")
	if gender != "" && gender != model.GenderMaleOnly &&
		gender != model.GenderFemaleOnly && gender != model.GenderMixed {
		return fail(c, http.StatusBadRequest, "invalid gender_type")
	}
	list, err := h.Kos.List(c.Request().Context(), c.QueryParam("search"), gender)
	if err != nil {
		h.Log.WithError(err).Error("failed to list kos")
		return fail(c, http.StatusInternalServerError, "failed to list kos")
	}
	out := make([]kosJSON, 0, len(list))
	for i := range list {
		out = append(out, toKosJSON(&list[i]))
	}
	return ok(c, http.StatusOK, out)
}

// Get returns a single kos with its facilities and review summary.
func (h *KosHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	k, err := h.Kos.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "kos not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load kos")
	}
	facilities, err := h.Facilities.ListByKos(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load facilities")
	}
	reviews, avg, err := h.Reviews.ListByKos(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load reviews")
	}
	return ok(c, http.StatusOK, map[string]any{
		"kos":           toKosJSON(k),
		"facilities":    toFacilityJSONList(facilities),
		"reviews":       toReviewJSONList(reviews),
		"averageRating": avg,
		"reviewCount":   len(reviews),
	})
}

type kosRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=150"`
	Address     string `json:"alamat" validate:"required"`
	Description string `json:"description"`
	Rules       string `json:"peraturan_kos"`
	GenderType  string `json:"gender_type" validate:"required,oneof=MALE_ONLY FEMALE_ONLY MIXED"`
}

// Create registers a new kos listing owned by the caller. Counters start
// at zero and only ever change through room mutations.
func (h *KosHandler) Create(c echo.Context) error {
	var req kosRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	k := model.Kos{
		UUID:        uuid.NewString(),
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Rules:       req.Rules,
		GenderType:  req.GenderType,
		OwnerID:     caller(c).ID,
	}
	if err := h.Kos.Create(c.Request().Context(), &k); err != nil {
		h.Log.WithError(err).Error("failed to create kos")
		return fail(c, http.StatusInternalServerError, "failed to create kos")
	}
	return okMessage(c, http.StatusCreated, "kos created", toKosJSON(&k))
}

// Update modifies a kos listing. Only the owning OWNER may update, and
// the room counters cannot be set through this endpoint.
func (h *KosHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req kosRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	k, err := h.Kos.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "kos not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load kos")
	}
	if !authz.ForKosResource(caller(c), k.OwnerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	k.Name = req.Name
	k.Address = req.Address
	k.Description = req.Description
	k.Rules = req.Rules
	k.GenderType = req.GenderType
	if err := h.Kos.Update(ctx, k); err != nil {
		h.Log.WithError(err).Error("failed to update kos")
		return fail(c, http.StatusInternalServerError, "failed to update kos")
	}
	return okMessage(c, http.StatusOK, "kos updated", toKosJSON(k))
}

// UpdatePicture stores an uploaded listing picture.
func (h *KosHandler) UpdatePicture(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	k, err := h.Kos.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "kos not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load kos")
	}
	if !authz.ForKosResource(caller(c), k.OwnerID).CanWrite {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}

	file, err := c.FormFile("kos_picture")
	if err != nil {
		return fail(c, http.StatusBadRequest, "kos_picture file is required")
	}
	name, err := saveUpload(file, filepath.Join(h.Cfg.PublicDir, "kos"))
	if err != nil {
		h.Log.WithError(err).Error("failed to store kos picture")
		return fail(c, http.StatusInternalServerError, "failed to store picture")
	}
	k.Picture = name
	if err := h.Kos.Update(ctx, k); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update kos")
	}
	return okMessage(c, http.StatusOK, "picture updated", map[string]string{"kos_picture": name})
}

// Delete removes a kos and, by cascade, its rooms, facilities, bookings
// and reviews.
func (h *KosHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	k, err := h.Kos.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "kos not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load kos")
	}
	if !authz.ForKosResource(caller(c), k.OwnerID).CanDelete {
		return fail(c, http.StatusForbidden, "not the owner of this kos")
	}
	if err := h.Kos.Delete(ctx, id); err != nil {
		h.Log.WithError(err).Error("failed to delete kos")
		return fail(c, http.StatusInternalServerError, "failed to delete kos")
	}
	return okMessage(c, http.StatusOK, "kos deleted", nil)
}

// Popular returns the kos popularity ranking. Public.
func (h *KosHandler) Popular(c echo.Context) error {
	limit := 10
	if s := c.QueryParam("limit"); s != "" {
		if n, err := parsePositive(s); err == nil {
			limit = n
		}
	}
	list, err := h.Reports.GetPopularKos(c.Request().Context(), limit)
	if err != nil {
		h.Log.WithError(err).Error("failed to rank kos")
		return fail(c, http.StatusInternalServerError, "failed to rank kos")
	}
	return ok(c, http.StatusOK, list)
}
