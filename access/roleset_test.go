package access

import (
	"testing"

	"github.com/otisthings/hub-sub000/models"
	"github.com/stretchr/testify/assert"
)

func TestNewRoleSet(t *testing.T) {
	user := &models.User{
		ID: 1,
		Roles: []models.RoleReference{
			{ID: "R1", Name: "Support"},
			{ID: "R2", Name: "Moderator"},
		},
	}

	set := NewRoleSet(user)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("R1"))
	assert.True(t, set.Contains("R2"))
	assert.False(t, set.Contains("R3"))
}

func TestNewRoleSet_NilUser(t *testing.T) {
	set := NewRoleSet(nil)
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Contains("R1"))
}

func TestNewRoleSet_EmptyRoles(t *testing.T) {
	set := NewRoleSet(&models.User{ID: 1})
	assert.Equal(t, 0, set.Len())
}

func TestNewRoleSet_DropsEmptyIDs(t *testing.T) {
	user := &models.User{
		Roles: []models.RoleReference{{ID: ""}, {ID: "R1"}},
	}
	set := NewRoleSet(user)
	assert.Equal(t, 1, set.Len())
}

func TestRoleSet_EmptyIDNeverMatches(t *testing.T) {
	// An unconfigured gating role must not match anyone, even if a
	// malformed role row carried an empty id.
	set := NewRoleSetFromIDs([]string{"", "R1"})
	assert.False(t, set.Contains(""))
}

func TestRoleSet_ContainsAny(t *testing.T) {
	set := NewRoleSetFromIDs([]string{"R1", "R2"})

	assert.True(t, set.ContainsAny([]string{"R9", "R2"}))
	assert.False(t, set.ContainsAny([]string{"R9", "R8"}))
	assert.False(t, set.ContainsAny(nil))
	assert.False(t, set.ContainsAny([]string{""}))
}

func TestNewRoleSet_OrderIndependent(t *testing.T) {
	a := NewRoleSetFromIDs([]string{"R1", "R2", "R3"})
	b := NewRoleSetFromIDs([]string{"R3", "R1", "R2"})
	assert.Equal(t, a, b)
}
