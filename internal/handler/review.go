package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/repository"
)

// ReviewHandler serves kos reviews and owner replies.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Kos     *repository.KosRepo
	Log     *logrus.Logger
}

type reviewJSON struct {
	ID           uint64  `json:"id"`
	UUID         string  `json:"uuid"`
	Content      string  `json:"content"`
	Rating       int     `json:"rating"`
	ReplyContent *string `json:"reply_content,omitempty"`
	ReplyAt      *string `json:"reply_at,omitempty"`
	UserID       uint64  `json:"user_id"`
	KosID        uint64  `json:"kos_id"`
	CreatedAt    string  `json:"created_at"`
}

func toReviewJSON(v *model.Review) reviewJSON {
	out := reviewJSON{
		ID:           v.ID,
		UUID:         v.UUID,
		Content:      v.Content,
		Rating:       v.Rating,
		ReplyContent: v.ReplyContent,
		UserID:       v.UserID,
		KosID:        v.KosID,
		CreatedAt:    v.CreatedAt.UTC().Format(time.RFC3339),
	}
	if v.ReplyAt != nil {
		s := v.ReplyAt.UTC().Format(time.RFC3339)
		out.ReplyAt = &s
	}
	return out
}

func toReviewJSONList(list []model.Review) []reviewJSON {
	out := make([]reviewJSON, 0, len(list))
	for i := range list {
		out = append(out, toReviewJSON(&list[i]))
	}
	return out
}

type createReviewRequest struct {
	KosID   uint64 `json:"kos_id" validate:"required"`
	Content string `json:"content" validate:"required,max=1000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// Create posts a review. Only society users who have booked a room in
// the kos may review it, and only once per kos.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	cl := caller(c)

	if _, err := h.Kos.GetByID(ctx, req.KosID); errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "kos not found")
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load kos")
	}
	stayed, err := h.Reviews.HasStayed(ctx, cl.ID, req.KosID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to check bookings")
	}
	if !stayed {
		return fail(c, http.StatusForbidden, "only renters with a booking in this kos may review it")
	}

	v := model.Review{
		UUID:    uuid.NewString(),
		Content: req.Content,
		Rating:  req.Rating,
		UserID:  cl.ID,
		KosID:   req.KosID,
	}
	switch err := h.Reviews.Create(ctx, &v); {
	case errors.Is(err, repository.ErrDuplicateReview):
		return fail(c, http.StatusConflict, "you have already reviewed this kos")
	case err != nil:
		h.Log.WithError(err).Error("failed to create review")
		return fail(c, http.StatusInternalServerError, "failed to create review")
	}
	return okMessage(c, http.StatusCreated, "review created", toReviewJSON(&v))
}

// ListByKos returns a kos's reviews and average rating. Public.
func (h *ReviewHandler) ListByKos(c echo.Context) error {
	kosID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, avg, err := h.Reviews.ListByKos(c.Request().Context(), kosID)
	if err != nil {
		h.Log.WithError(err).Error("failed to list reviews")
		return fail(c, http.StatusInternalServerError, "failed to list reviews")
	}
	return ok(c, http.StatusOK, map[string]any{
		"reviews":       toReviewJSONList(list),
		"averageRating": avg,
		"reviewCount":   len(list),
	})
}

type replyRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// Reply attaches the kos owner's reply to a review. One reply per
// review; a second attempt overwrites the first.
func (h *ReviewHandler) Reply(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req replyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	v, ownerID, err := h.Reviews.GetWithOwner(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "review not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load review")
	}
	cl := caller(c)
	if cl.Role != model.RoleOwner || cl.ID != ownerID {
		return fail(c, http.StatusForbidden, "only the kos owner may reply")
	}

	now := time.Now().UTC()
	if err := h.Reviews.Reply(ctx, id, cl.ID, req.Content, now); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to store reply")
	}
	v.ReplyContent = &req.Content
	v.ReplyAt = &now
	v.ReplyOwnerID = &cl.ID
	return okMessage(c, http.StatusOK, "reply stored", toReviewJSON(v))
}

// Delete removes a review. The author or the kos owner may delete.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	v, ownerID, err := h.Reviews.GetWithOwner(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "review not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load review")
	}
	cl := caller(c)
	if cl.ID != v.UserID && !(cl.Role == model.RoleOwner && cl.ID == ownerID) {
		return fail(c, http.StatusForbidden, "not allowed to delete this review")
	}
	if err := h.Reviews.Delete(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to delete review")
	}
	return okMessage(c, http.StatusOK, "review deleted", nil)
}
