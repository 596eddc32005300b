package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	// allowed moves
	assert.NoError(t, CanTransition(StatusPending, StatusConfirmed))
	assert.NoError(t, CanTransition(StatusPending, StatusCancelled))
	assert.NoError(t, CanTransition(StatusConfirmed, StatusCancelled))
	assert.NoError(t, CanTransition(StatusConfirmed, StatusCompleted))

	// terminal states have no outgoing transitions
	for _, terminal := range []string{StatusCancelled, StatusCompleted} {
		for _, to := range []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
			assert.Error(t, CanTransition(terminal, to), "%s -> %s must be rejected", terminal, to)
		}
	}

	// skipping and self-transitions are rejected
	assert.Error(t, CanTransition(StatusPending, StatusCompleted))
	assert.Error(t, CanTransition(StatusPending, StatusPending))
	assert.Error(t, CanTransition(StatusConfirmed, StatusPending))

	err := CanTransition(StatusCompleted, StatusPending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
}

func TestValidStatusAndActive(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("PAID"))
	assert.False(t, ValidStatus(""))

	assert.True(t, Active(StatusPending))
	assert.True(t, Active(StatusConfirmed))
	assert.False(t, Active(StatusCancelled))
	assert.False(t, Active(StatusCompleted))
}
