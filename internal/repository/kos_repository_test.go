package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRoomDeltaTxUsesRelativeUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	// the counter statement must be a single relative update, clamped to
	// [0, total_rooms]; deltas are bound parameters, never precomputed
	// absolute values
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE kos
	           SET total_rooms = GREATEST(total_rooms + ?, 0),
	               available_rooms = LEAST(GREATEST(available_rooms + ?, 0), GREATEST(total_rooms + ?, 0))
	           WHERE id = ?`)).
		WithArgs(int64(1), int64(1), int64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewKosRepo(db)
	require.NoError(t, repo.ApplyRoomDeltaTx(context.Background(), tx, 42, 1, 1))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRoomDeltaTxNegativeDeltas(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE kos`).
		WithArgs(int64(-1), int64(-1), int64(-1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, NewKosRepo(db).ApplyRoomDeltaTx(context.Background(), tx, 7, -1, -1))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountersTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT total_rooms, available_rooms FROM kos WHERE id = ?`)).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"total_rooms", "available_rooms"}).AddRow(3, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	total, available, err := NewKosRepo(db).CountersTx(context.Background(), tx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), available)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
