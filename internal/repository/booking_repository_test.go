package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krizzk/be-koszhunter/internal/booking"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHasOverlapTxHalfOpenArguments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := day(2024, 1, 15)
	end := day(2024, 2, 15)

	mock.ExpectBegin()
	// half-open test: existing.start < requested.end AND existing.end >
	// requested.start, so `end` binds before `start`
	mock.ExpectQuery(regexp.QuoteMeta(`AND start_date < ? AND end_date > ?`)).
		WithArgs(uint64(9), booking.StatusPending, booking.StatusConfirmed, end, start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	overlap, err := NewBookingRepo(db).HasOverlapTx(context.Background(), tx, 9, start, end)
	require.NoError(t, err)
	assert.True(t, overlap)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasOverlapTxNoConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	overlap, err := NewBookingRepo(db).HasOverlapTx(context.Background(), tx, 9,
		day(2024, 2, 1), day(2024, 2, 10))
	require.NoError(t, err)
	assert.False(t, overlap)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignInvoiceNumberIsGuarded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// the update must only fire when no number exists yet; the stored
	// value is read back afterwards regardless
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE bookings SET invoice_number = ?
	             WHERE id = ? AND (invoice_number IS NULL OR invoice_number = '')`)).
		WithArgs("INV-20240105-12", uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(invoice_number, '') FROM bookings WHERE id = ?`)).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-20231201-12"))

	stored, err := NewBookingRepo(db).AssignInvoiceNumber(context.Background(), 12, "INV-20240105-12")
	require.NoError(t, err)
	// an earlier number wins: assignment is idempotent
	assert.Equal(t, "INV-20231201-12", stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveBookingCountTxExcludesBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE room_id = ? AND id <> ? AND status IN (?, ?)`)).
		WithArgs(uint64(3), uint64(8), booking.StatusPending, booking.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	n, err := NewRoomRepo(db).ActiveBookingCountTx(context.Background(), tx, 3, 8)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
