package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/repository"
)

// ReportHandler serves the owner-facing reporting endpoints.
type ReportHandler struct {
	Reports *repository.ReportRepo
	Log     *logrus.Logger
}

// Revenue sums confirmed and completed booking revenue inside an
// optional [from, to] range. Owner only.
func (h *ReportHandler) Revenue(c echo.Context) error {
	var from, to time.Time
	if s := c.QueryParam("from"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid from date")
		}
		from = t
	}
	if s := c.QueryParam("to"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid to date")
		}
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	rev, err := h.Reports.GetRevenue(c.Request().Context(), from, to)
	if err != nil {
		h.Log.WithError(err).Error("failed to compute revenue")
		return fail(c, http.StatusInternalServerError, "failed to compute revenue")
	}
	return ok(c, http.StatusOK, rev)
}
