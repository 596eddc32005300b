// Package repository implements the persistence layer over database/sql.
// This file defines sentinel error values reused across repositories so
// handlers can map uniqueness failures onto HTTP statuses. Missing rows
// surface as sql.ErrNoRows; availability conflicts are decided by the
// handlers from HasOverlapTx/ActiveBookingCountTx results.
package repository

import "errors"

// ErrDuplicateRoomNumber is returned when a room number already exists
// within the same kos.
var ErrDuplicateRoomNumber = errors.New("room number already exists in this kos")

// ErrDuplicateReview is returned when a user already reviewed a kos.
var ErrDuplicateReview = errors.New("user has already reviewed this kos")

// ErrEmailTaken and ErrPhoneTaken report registration uniqueness failures.
var (
	ErrEmailTaken = errors.New("email is already in use")
	ErrPhoneTaken = errors.New("phone number is already in use")
)
