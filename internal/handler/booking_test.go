package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/invoice"
	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/repository"
)

func newBookingHandler(db *sql.DB) *BookingHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &BookingHandler{
		Bookings: repository.NewBookingRepo(db),
		Rooms:    repository.NewRoomRepo(db),
		Kos:      repository.NewKosRepo(db),
		Log:      log,
	}
}

func newJSONContext(t *testing.T, method, path, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c, rec
}

func roomRow(status string, rate int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "uuid", "room_number", "tipe", "harga", "status",
		"room_picture", "kos_id", "created_at", "updated_at", "owner_id",
	}).AddRow(5, "room-uuid", "A1", "standard", rate, status, "", 2, now, now, 9)
}

func TestCreateBookingSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomAvailable, 900000))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery(`SELECT id, uuid, start_date`).WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "uuid", "start_date", "end_date", "total_price", "status", "notes",
			"invoice_number", "invoice_pdf", "user_id", "room_id", "created_at", "updated_at",
		}).AddRow(31, "b-uuid", start, end, 900000, booking.StatusPending, "", "", "", 7, 5, now, now))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPost, "/bookings",
		`{"room_id":5,"start_date":"2024-01-15","end_date":"2024-02-14"}`,
		7, model.RoleSociety)

	require.NoError(t, newBookingHandler(db).Create(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			ID         uint64 `json:"id"`
			TotalPrice int64  `json:"total_price"`
			Status     string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	assert.Equal(t, uint64(31), resp.Data.ID)
	// 30 days at 900000/month
	assert.Equal(t, int64(900000), resp.Data.TotalPrice)
	assert.Equal(t, booking.StatusPending, resp.Data.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomAvailable, 900000))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/bookings",
		`{"room_id":5,"start_date":"2024-01-15","end_date":"2024-02-14"}`,
		7, model.RoleSociety)

	require.NoError(t, newBookingHandler(db).Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsUnavailableRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomMaintenance, 900000))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/bookings",
		`{"room_id":5,"start_date":"2024-01-15","end_date":"2024-02-14"}`,
		7, model.RoleSociety)

	require.NoError(t, newBookingHandler(db).Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsBackwardsDates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c, rec := newJSONContext(t, http.MethodPost, "/bookings",
		`{"room_id":5,"start_date":"2024-02-14","end_date":"2024-01-15"}`,
		7, model.RoleSociety)

	require.NoError(t, newBookingHandler(db).Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func bookingForUpdateRow(status string, renterID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "uuid", "start_date", "end_date", "total_price", "status", "notes",
		"invoice_number", "invoice_pdf", "user_id", "room_id", "created_at", "updated_at", "owner_id",
	}).AddRow(31, "b-uuid", now, now.AddDate(0, 1, 0), 900000, status, "", "", "", renterID, 5, now, now, 9)
}

func TestSetStatusRejectsTerminalTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(31)).
		WillReturnRows(bookingForUpdateRow(booking.StatusCancelled, 7))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPut, "/bookings/31/status",
		`{"status":"CONFIRMED"}`, 9, model.RoleOwner)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, newBookingHandler(db).SetStatus(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusRentersMayOnlyCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(31)).
		WillReturnRows(bookingForUpdateRow(booking.StatusPending, 7))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPut, "/bookings/31/status",
		`{"status":"CONFIRMED"}`, 7, model.RoleSociety)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, newBookingHandler(db).SetStatus(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusRejectsStranger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(31)).
		WillReturnRows(bookingForUpdateRow(booking.StatusPending, 7))
	mock.ExpectRollback()

	// society user 8 is not the renter
	c, rec := newJSONContext(t, http.MethodPut, "/bookings/31/status",
		`{"status":"CANCELLED"}`, 8, model.RoleSociety)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, newBookingHandler(db).SetStatus(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func bookingDetailRow(status, invoiceNumber string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "uuid", "start_date", "end_date", "total_price", "status", "notes",
		"invoice_number", "invoice_pdf", "user_id", "room_id", "created_at", "updated_at",
		"name", "email", "phone_number", "room_number", "tipe",
		"kos_id", "kos_name", "alamat", "owner_id", "owner_name",
	}).AddRow(31, "b-uuid", now, now.AddDate(0, 1, 0), 900000, status, "",
		invoiceNumber, "", 7, 5, now, now,
		"Budi", "budi@example.com", "0811111111", "A1", "standard",
		2, "Kos Melati", "Jl. Melati 1", 9, "Siti")
}

func TestSetStatusConfirmMarksRoomOccupied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(31)).
		WillReturnRows(bookingForUpdateRow(booking.StatusPending, 7))
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(booking.StatusConfirmed, uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomAvailable, 900000))
	mock.ExpectExec(`UPDATE rooms SET status`).
		WithArgs(model.RoomOccupied, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the room leaves AVAILABLE, so available_rooms drops by one
	mock.ExpectExec(`UPDATE kos`).
		WithArgs(int64(0), int64(-1), int64(0), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT b.id, b.uuid`).WithArgs(uint64(31)).
		WillReturnRows(bookingDetailRow(booking.StatusConfirmed, ""))

	c, rec := newJSONContext(t, http.MethodPut, "/bookings/31/status",
		`{"status":"CONFIRMED"}`, 9, model.RoleOwner)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, newBookingHandler(db).SetStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusCancelReleasesRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(31)).
		WillReturnRows(bookingForUpdateRow(booking.StatusConfirmed, 7))
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(booking.StatusCancelled, uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// no other active booking holds the room, so it flips back
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(uint64(5), uint64(31), booking.StatusPending, booking.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomOccupied, 900000))
	mock.ExpectExec(`UPDATE rooms SET status`).
		WithArgs(model.RoomAvailable, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE kos`).
		WithArgs(int64(0), int64(1), int64(0), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPut, "/bookings/31/status",
		`{"status":"CANCELLED"}`, 9, model.RoleOwner)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, newBookingHandler(db).SetStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceIssuedForPendingBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT b.id, b.uuid`).WithArgs(uint64(31)).
		WillReturnRows(bookingDetailRow(booking.StatusPending, ""))
	mock.ExpectExec(`UPDATE bookings SET invoice_number`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(invoice_number`).WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-20240105-31"))
	mock.ExpectExec(`UPDATE bookings SET invoice_pdf`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newBookingHandler(db)
	h.Invoices = invoice.TextRenderer{Dir: t.TempDir()}

	c, rec := newJSONContext(t, http.MethodGet, "/bookings/31/invoice", "", 7, model.RoleSociety)
	c.SetParamNames("id")
	c.SetParamValues("31")

	require.NoError(t, h.Invoice(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			InvoiceNumber string `json:"invoice_number"`
			DownloadURL   string `json:"download_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	assert.Equal(t, "INV-20240105-31", resp.Data.InvoiceNumber)
	assert.Contains(t, resp.Data.DownloadURL, "/public/invoices/")
	assert.NoError(t, mock.ExpectationsWereMet())
}
