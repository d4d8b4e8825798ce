package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

func TestResolve(t *testing.T) {
	owner := Resolve(model.RoleOwner)
	assert.True(t, owner.ManageVehicles)
	assert.True(t, owner.ManageMembers)
	assert.True(t, owner.EditMembers)
	assert.True(t, owner.ViewAlcohol)
	assert.True(t, owner.AskStart)
	assert.False(t, owner.DecideRequests, "owner asks, members decide")

	family := Resolve(model.RoleFamily)
	assert.False(t, family.ManageVehicles)
	assert.False(t, family.ManageMembers)
	assert.True(t, family.EditMembers)
	assert.True(t, family.ViewAlcohol)
	assert.True(t, family.DecideRequests)
	assert.False(t, family.AskStart)

	friend := Resolve(model.RoleFriend)
	assert.Equal(t, Capabilities{}, friend)

	assert.Equal(t, Capabilities{}, Resolve(model.Role("INTRUDER")))
}
