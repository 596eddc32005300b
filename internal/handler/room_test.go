package handler

import (
	"database/sql"
	"io"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krizzk/be-koszhunter/internal/booking"
	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/repository"
)

func newRoomHandler(db *sql.DB) *RoomHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &RoomHandler{
		Rooms: repository.NewRoomRepo(db),
		Kos:   repository.NewKosRepo(db),
		Log:   log,
	}
}

func TestDeleteRoomRejectedWhileActivelyBooked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomOccupied, 900000))
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(uint64(5), uint64(0), booking.StatusPending, booking.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// no DELETE and no counter update may run; the transaction rolls back
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodDelete, "/rooms/5", "", 9, model.RoleOwner)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, newRoomHandler(db).Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomDecrementsCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(roomRow(model.RoomAvailable, 900000))
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(uint64(5), uint64(0), booking.StatusPending, booking.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM rooms`).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// an AVAILABLE room leaving drops both counters
	mock.ExpectExec(`UPDATE kos`).
		WithArgs(int64(-1), int64(-1), int64(-1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT total_rooms, available_rooms`).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"total_rooms", "available_rooms"}).AddRow(0, 0))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodDelete, "/rooms/5", "", 9, model.RoleOwner)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, newRoomHandler(db).Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
