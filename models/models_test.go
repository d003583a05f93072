package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoveredStatusPerVariant(t *testing.T) {
	assert.Equal(t, ItemStatusReturned, ItemTypeLost.RecoveredStatus())
	assert.Equal(t, ItemStatusHandedOver, ItemTypeFound.RecoveredStatus())
}

func TestRoleChecks(t *testing.T) {
	assert.True(t, RoleMaintainer.CanDecide())
	assert.True(t, RoleAdmin.CanDecide())
	assert.False(t, RoleStudent.CanDecide())
	assert.False(t, RoleTeacher.CanDecide())

	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("supervisor").Valid())
}

func TestClaimStatusTerminal(t *testing.T) {
	assert.False(t, ClaimStatusPending.Terminal())
	assert.True(t, ClaimStatusApproved.Terminal())
	assert.True(t, ClaimStatusRejected.Terminal())
}

func TestCentralAssignee(t *testing.T) {
	c := CentralAssignee()
	assert.Equal(t, CentralUid, c.AssignedMaintainerUid)
	assert.Equal(t, "Central Lost & Found", c.AssignedMaintainerName)
	assert.Equal(t, "Central Office / Security Desk", c.CollectionPoint)
	assert.Equal(t, "10:00 AM – 4:00 PM", c.OfficeHours)
	assert.True(t, c.Assigned())

	assert.False(t, Assignee{}.Assigned())
}

func TestItemLocation(t *testing.T) {
	lost := &Item{Type: ItemTypeLost, LastSeenLocation: "Library"}
	found := &Item{Type: ItemTypeFound, FoundLocation: "Cafeteria"}
	assert.Equal(t, "Library", lost.Location())
	assert.Equal(t, "Cafeteria", found.Location())
}
