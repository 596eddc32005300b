package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krizzk/be-koszhunter/internal/model"
)

func TestForBooking(t *testing.T) {
	renter := Caller{ID: 7, Role: model.RoleSociety}
	owner := Caller{ID: 3, Role: model.RoleOwner}

	// renter on their own booking
	caps := ForBooking(renter, 7, 3)
	assert.True(t, caps.CanWrite)
	assert.True(t, caps.CanDelete)

	// renter on someone else's booking
	caps = ForBooking(renter, 8, 3)
	assert.False(t, caps.CanRead)
	assert.False(t, caps.CanWrite)

	// owner of the kos the room belongs to
	caps = ForBooking(owner, 7, 3)
	assert.True(t, caps.CanWrite)

	// owner of a different kos
	caps = ForBooking(owner, 7, 4)
	assert.False(t, caps.CanWrite)

	// role/id cross match must not grant anything
	caps = ForBooking(Caller{ID: 3, Role: model.RoleSociety}, 7, 3)
	assert.False(t, caps.CanWrite)
}

func TestForKosResource(t *testing.T) {
	owner := Caller{ID: 3, Role: model.RoleOwner}

	caps := ForKosResource(owner, 3)
	assert.True(t, caps.CanWrite)
	assert.True(t, caps.CanDelete)

	caps = ForKosResource(owner, 9)
	assert.True(t, caps.CanRead)
	assert.False(t, caps.CanWrite)

	caps = ForKosResource(Caller{ID: 3, Role: model.RoleSociety}, 3)
	assert.True(t, caps.CanRead)
	assert.False(t, caps.CanDelete)
}
