package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/authz"
	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/config"
	"github.com/krizzk/be-koszhunter/internal/invoice"
	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/queue"
	"github.com/krizzk/be-koszhunter/internal/repository"
	"github.com/krizzk/be-koszhunter/internal/service"
)

// BookingHandler serves the booking lifecycle: create, status
// transitions, listing, history, invoices and deletion. Creation and
// every transition run inside a single transaction under a row lock so
// concurrent requests for the same room or booking serialize.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Rooms    *repository.RoomRepo
	Kos      *repository.KosRepo
	Invoices invoice.Renderer
	Events   *service.Publisher
	Cfg      config.Config
	Log      *logrus.Logger
}

type bookingJSON struct {
	ID            uint64 `json:"id"`
	UUID          string `json:"uuid"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	TotalPrice    int64  `json:"total_price"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	UserID        uint64 `json:"user_id"`
	RoomID        uint64 `json:"room_id"`
	CreatedAt     string `json:"created_at"`
}

func toBookingJSON(b *model.Booking) bookingJSON {
	return bookingJSON{
		ID:            b.ID,
		UUID:          b.UUID,
		StartDate:     b.StartDate.Format("2006-01-02"),
		EndDate:       b.EndDate.Format("2006-01-02"),
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		Notes:         b.Notes,
		InvoiceNumber: b.InvoiceNumber,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type bookingDetailJSON struct {
	bookingJSON
	RenterName  string `json:"renter_name"`
	RenterEmail string `json:"renter_email"`
	RenterPhone string `json:"renter_phone"`
	RoomNumber  string `json:"room_number"`
	RoomType    string `json:"room_type"`
	KosID       uint64 `json:"kos_id"`
	KosName     string `json:"kos_name"`
	KosAddress  string `json:"kos_address"`
}

func toBookingDetailJSON(d *repository.BookingDetail) bookingDetailJSON {
	return bookingDetailJSON{
		bookingJSON: toBookingJSON(&d.Booking),
		RenterName:  d.RenterName,
		RenterEmail: d.RenterEmail,
		RenterPhone: d.RenterPhone,
		RoomNumber:  d.RoomNumber,
		RoomType:    d.RoomType,
		KosID:       d.KosID,
		KosName:     d.KosName,
		KosAddress:  d.KosAddress,
	}
}

type createBookingRequest struct {
	RoomID    uint64 `json:"room_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notes     string `json:"notes"`
}

// Create books a room for the half-open range [start_date, end_date).
// The room row is locked for the duration of the transaction, which
// makes the availability check and the insert atomic: of two concurrent
// requests for overlapping dates, exactly one succeeds.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	start, _ := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	end, _ := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if !end.After(start) {
		return fail(c, http.StatusBadRequest, "end_date must be after start_date")
	}
	ctx := c.Request().Context()

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	room, _, err := h.Rooms.GetForUpdateTx(ctx, tx, req.RoomID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "room not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load room")
	}
	if room.Status != model.RoomAvailable {
		return fail(c, http.StatusBadRequest, "room is not available")
	}
	overlap, err := h.Bookings.HasOverlapTx(ctx, tx, room.ID, start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to check availability")
	}
	if overlap {
		return fail(c, http.StatusBadRequest, "room already booked for these dates")
	}

	b := model.Booking{
		UUID:       uuid.NewString(),
		StartDate:  start,
		EndDate:    end,
		TotalPrice: booking.ComputeTotal(room.MonthlyRate, start, end),
		Status:     booking.StatusPending,
		Notes:      req.Notes,
		UserID:     caller(c).ID,
		RoomID:     room.ID,
	}
	if err := h.Bookings.InsertTx(ctx, tx, &b); err != nil {
		h.Log.WithError(err).Error("failed to create booking")
		return fail(c, http.StatusInternalServerError, "failed to create booking")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}

	h.Log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"user_id":    b.UserID,
	}).Info("booking created")
	return okMessage(c, http.StatusOK, "booking created", toBookingJSON(&b))
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
}

// SetStatus moves a booking through its lifecycle. Transitions follow
// the state machine; CONFIRMED marks the room OCCUPIED, while CANCELLED
// and COMPLETED return the room to AVAILABLE only when no other active
// booking still holds it. Every side effect commits with the status
// change.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	b, kosOwnerID, err := h.Bookings.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load booking")
	}

	cl := caller(c)
	if !authz.ForBooking(cl, b.UserID, kosOwnerID).CanWrite {
		return fail(c, http.StatusForbidden, "not allowed to modify this booking")
	}
	// only the kos owner confirms or completes; renters may only cancel
	if cl.Role == model.RoleSociety && req.Status != booking.StatusCancelled {
		return fail(c, http.StatusForbidden, "renters may only cancel a booking")
	}
	if err := booking.CanTransition(b.Status, req.Status); err != nil {
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.Bookings.SetStatusTx(ctx, tx, id, req.Status); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update booking")
	}

	roomStatus := ""
	switch req.Status {
	case booking.StatusConfirmed:
		roomStatus = model.RoomOccupied
	case booking.StatusCancelled, booking.StatusCompleted:
		active, err := h.Rooms.ActiveBookingCountTx(ctx, tx, b.RoomID, b.ID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to check bookings")
		}
		if active == 0 {
			roomStatus = model.RoomAvailable
		}
	}
	if roomStatus != "" {
		room, _, err := h.Rooms.GetForUpdateTx(ctx, tx, b.RoomID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to load room")
		}
		if room.Status != roomStatus {
			if err := h.Rooms.SetStatusTx(ctx, tx, b.RoomID, roomStatus); err != nil {
				return fail(c, http.StatusInternalServerError, "failed to update room")
			}
			var delta int64
			if roomStatus == model.RoomAvailable {
				delta = +1
			} else if room.Status == model.RoomAvailable {
				delta = -1
			}
			if delta != 0 {
				if err := h.Kos.ApplyRoomDeltaTx(ctx, tx, room.KosID, 0, delta); err != nil {
					return fail(c, http.StatusInternalServerError, "failed to update kos counters")
				}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}
	b.Status = req.Status

	if req.Status == booking.StatusConfirmed {
		h.publishConfirmed(c, b)
	}
	h.Log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"status":     b.Status,
	}).Info("booking status changed")
	return okMessage(c, http.StatusOK, "booking "+req.Status, toBookingJSON(b))
}

// publishConfirmed emits the confirmation event with full context. Best
// effort after commit; failures only log.
func (h *BookingHandler) publishConfirmed(c echo.Context, b *model.Booking) {
	d, err := h.Bookings.GetDetail(c.Request().Context(), b.ID)
	if err != nil {
		h.Log.WithError(err).Warn("failed to load booking detail for event")
		return
	}
	h.Events.PublishBookingConfirmed(c.Request().Context(), queue.BookingConfirmedEvent{
		BookingID:     d.ID,
		InvoiceNumber: d.InvoiceNumber,
		RenterID:      d.UserID,
		RenterName:    d.RenterName,
		KosID:         d.KosID,
		KosName:       d.KosName,
		RoomID:        d.RoomID,
		RoomNumber:    d.RoomNumber,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		Total:         d.TotalPrice,
		ConfirmedAt:   time.Now().UTC(),
	})
}

// Get returns a single booking with renter and kos context.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Bookings.GetDetail(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load booking")
	}
	if !authz.ForBooking(caller(c), d.UserID, d.KosOwnerID).CanRead {
		return fail(c, http.StatusForbidden, "not allowed to view this booking")
	}
	return ok(c, http.StatusOK, toBookingDetailJSON(d))
}

// List returns the caller's bookings: a society user sees their own,
// an owner sees every booking across their kos. Supports search and
// status filters.
func (h *BookingHandler) List(c echo.Context) error {
	cl := caller(c)
	f := repository.ListFilter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
	}
	if f.Status != "" && !booking.ValidStatus(f.Status) {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	if cl.Role == model.RoleOwner {
		f.OwnerID = cl.ID
	} else {
		f.RenterID = cl.ID
	}
	list, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		h.Log.WithError(err).Error("failed to list bookings")
		return fail(c, http.StatusInternalServerError, "failed to list bookings")
	}
	out := make([]bookingDetailJSON, 0, len(list))
	for i := range list {
		out = append(out, toBookingDetailJSON(&list[i]))
	}
	return ok(c, http.StatusOK, out)
}

// History returns the bookings across the owner's kos inside an optional
// [from, to] date range. Owner only.
func (h *BookingHandler) History(c echo.Context) error {
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
	list, err := h.Bookings.ListHistoryByOwner(c.Request().Context(), caller(c).ID, from, to)
	if err != nil {
		h.Log.WithError(err).Error("failed to load booking history")
		return fail(c, http.StatusInternalServerError, "failed to load history")
	}
	out := make([]bookingDetailJSON, 0, len(list))
	for i := range list {
		out = append(out, toBookingDetailJSON(&list[i]))
	}
	return ok(c, http.StatusOK, out)
}

// Invoice returns the booking's invoice, assigning the number and
// rendering the document on first request. The stored number never
// changes once assigned, so repeated requests are idempotent.
func (h *BookingHandler) Invoice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	d, err := h.Bookings.GetDetail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load booking")
	}
	if !authz.ForBooking(caller(c), d.UserID, d.KosOwnerID).CanRead {
		return fail(c, http.StatusForbidden, "not allowed to view this booking")
	}

	number := d.InvoiceNumber
	if number == "" {
		number, err = h.Bookings.AssignInvoiceNumber(ctx, id, invoice.Number(id, time.Now()))
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to assign invoice number")
		}
	}

	file := d.InvoiceFile
	if file == "" {
		file, err = h.Invoices.Render(invoice.Data{
			Number:     number,
			IssuedAt:   time.Now().UTC(),
			RenterName: d.RenterName,
			KosName:    d.KosName,
			KosAddress: d.KosAddress,
			RoomNumber: d.RoomNumber,
			StartDate:  d.StartDate,
			EndDate:    d.EndDate,
			Total:      d.TotalPrice,
		})
		if err != nil {
			h.Log.WithError(err).Error("failed to render invoice")
			return fail(c, http.StatusInternalServerError, "failed to render invoice")
		}
		if err := h.Bookings.SetInvoiceFile(ctx, id, file); err != nil {
			return fail(c, http.StatusInternalServerError, "failed to store invoice file")
		}
	}

	return ok(c, http.StatusOK, map[string]any{
		"invoice_number": number,
		"download_url":   "/public/" + file,
		"booking":        toBookingDetailJSON(d),
	})
}

// Delete removes a booking record. When the deleted booking was the last
// active one on its room, the room flips back to AVAILABLE in the same
// transaction.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback()

	b, kosOwnerID, err := h.Bookings.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load booking")
	}
	if !authz.ForBooking(caller(c), b.UserID, kosOwnerID).CanDelete {
		return fail(c, http.StatusForbidden, "not allowed to delete this booking")
	}

	if err := h.Bookings.DeleteTx(ctx, tx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to delete booking")
	}
	active, err := h.Rooms.ActiveBookingCountTx(ctx, tx, b.RoomID, b.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to check bookings")
	}
	if active == 0 {
		room, _, err := h.Rooms.GetForUpdateTx(ctx, tx, b.RoomID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to load room")
		}
		if room.Status == model.RoomOccupied {
			if err := h.Rooms.SetStatusTx(ctx, tx, b.RoomID, model.RoomAvailable); err != nil {
				return fail(c, http.StatusInternalServerError, "failed to update room")
			}
			if err := h.Kos.ApplyRoomDeltaTx(ctx, tx, room.KosID, 0, +1); err != nil {
				return fail(c, http.StatusInternalServerError, "failed to update kos counters")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit")
	}
	return okMessage(c, http.StatusOK, "booking deleted", toBookingJSON(b))
}
