package access

import (
	"testing"

	"github.com/otisthings/hub-sub000/models"
	"github.com/stretchr/testify/assert"
)

func userWithRoles(id int64, roleIDs ...string) *models.User {
	roles := make([]models.RoleReference, 0, len(roleIDs))
	for _, r := range roleIDs {
		roles = append(roles, models.RoleReference{ID: r})
	}
	return &models.User{ID: id, Roles: roles}
}

func adminUser(id int64) *models.User {
	return &models.User{ID: id, IsAdmin: true}
}

func TestAdminBypassesEveryPredicate(t *testing.T) {
	admin := adminUser(1)

	assert.True(t, CanAccessSupportCategory(admin, &models.Category{}))
	assert.True(t, CanManageApplication(admin, &models.Application{}))
	assert.True(t, CanEditApplication(admin, &models.Application{}))
	assert.True(t, CanViewTicket(admin, &models.Ticket{UserID: 99}, nil))
	assert.True(t, IsTicketSupport(admin, &models.Ticket{UserID: 99}))
	assert.True(t, CanAccessDepartment(admin, &models.Department{}))
	assert.True(t, HasGaragePermission(admin, nil, models.GarageCanEditVehicles))
	assert.True(t, HasManagementAccess(admin, ""))
}

func TestEmptyRoleSetDeniesAllRoleGatedPredicates(t *testing.T) {
	user := userWithRoles(1)

	assert.False(t, CanAccessSupportCategory(user, &models.Category{RequiredRoleID: "R1"}))
	assert.False(t, CanManageApplication(user, &models.Application{AdminRoleID: "R1", ModeratorRoleID: "R2"}))
	assert.False(t, CanEditApplication(user, &models.Application{AdminRoleID: "R1"}))
	assert.False(t, CanAccessDepartment(user, &models.Department{RosterViewID: []string{"R1"}}))
	assert.False(t, HasGaragePermission(user, []models.GarageRolePermission{{RoleID: "R1", CanEditVehicles: true}}, models.GarageCanEditVehicles))
	assert.False(t, HasManagementAccess(user, "R1"))
}

func TestCanAccessSupportCategory(t *testing.T) {
	category := &models.Category{ID: 5, RequiredRoleID: "R1"}

	// Scenario A: role matches.
	assert.True(t, CanAccessSupportCategory(userWithRoles(1, "R1"), category))
	// Scenario B: different role.
	assert.False(t, CanAccessSupportCategory(userWithRoles(1, "R2"), category))
}

func TestCanAccessSupportCategory_AbsentRoleIDMeansNoOne(t *testing.T) {
	// A category with no required role is not open to everyone; it simply
	// has no role gate, and category access has no ownership fallback.
	user := userWithRoles(1, "R1", "R2")
	assert.False(t, CanAccessSupportCategory(user, &models.Category{RequiredRoleID: ""}))
}

func TestCanAccessSupportCategory_NilInputs(t *testing.T) {
	assert.False(t, CanAccessSupportCategory(nil, &models.Category{RequiredRoleID: "R1"}))
	assert.False(t, CanAccessSupportCategory(userWithRoles(1, "R1"), nil))
}

func TestCanManageApplication(t *testing.T) {
	app := &models.Application{AdminRoleID: "A1", ModeratorRoleID: "M1"}

	assert.True(t, CanManageApplication(userWithRoles(1, "A1"), app))
	assert.True(t, CanManageApplication(userWithRoles(1, "M1"), app))
	assert.False(t, CanManageApplication(userWithRoles(1, "X1"), app))
}

func TestCanEditApplication_ModeratorCannotEdit(t *testing.T) {
	app := &models.Application{AdminRoleID: "A1", ModeratorRoleID: "M1"}

	assert.True(t, CanEditApplication(userWithRoles(1, "A1"), app))
	assert.False(t, CanEditApplication(userWithRoles(1, "M1"), app))
}

func TestCanEditApplication_AbsentAdminRole(t *testing.T) {
	app := &models.Application{AdminRoleID: ""}
	assert.False(t, CanEditApplication(userWithRoles(1, "A1"), app))
}

func TestCanViewTicket_Owner(t *testing.T) {
	// Scenario C: owner with no roles can view.
	ticket := &models.Ticket{ID: 7, UserID: 42}
	viewer := userWithRoles(42)

	assert.True(t, CanViewTicket(viewer, ticket, nil))
	assert.False(t, IsTicketSupport(viewer, ticket))
}

func TestCanViewTicket_Participant(t *testing.T) {
	ticket := &models.Ticket{ID: 7, UserID: 1}
	participants := []models.TicketParticipant{{TicketID: 7, UserID: 42}}

	assert.True(t, CanViewTicket(userWithRoles(42), ticket, participants))
	assert.False(t, CanViewTicket(userWithRoles(43), ticket, participants))
}

func TestCanViewTicket_SupportRoleOnCategory(t *testing.T) {
	ticket := &models.Ticket{
		ID:       7,
		UserID:   1,
		Category: &models.Category{ID: 3, RequiredRoleID: "R1"},
	}

	assert.True(t, CanViewTicket(userWithRoles(42, "R1"), ticket, nil))
	assert.False(t, CanViewTicket(userWithRoles(42, "R2"), ticket, nil))
}

func TestCanViewTicket_AssigneeAndClaimer(t *testing.T) {
	assignee := int64(10)
	claimer := int64(20)
	ticket := &models.Ticket{ID: 7, UserID: 1, AssignedTo: &assignee, ClaimedBy: &claimer}

	assert.True(t, CanViewTicket(userWithRoles(10), ticket, nil))
	assert.True(t, CanViewTicket(userWithRoles(20), ticket, nil))
	assert.True(t, IsTicketSupport(userWithRoles(10), ticket))
	assert.True(t, IsTicketSupport(userWithRoles(20), ticket))
	assert.False(t, CanViewTicket(userWithRoles(30), ticket, nil))
}

func TestIsTicketSupport_OwnerIsNotSupport(t *testing.T) {
	ticket := &models.Ticket{ID: 7, UserID: 42, Category: &models.Category{RequiredRoleID: "R1"}}
	assert.False(t, IsTicketSupport(userWithRoles(42), ticket))
}

func TestCanAccessDepartment(t *testing.T) {
	dept := &models.Department{RosterViewID: []string{"D1", "D2"}}

	assert.True(t, CanAccessDepartment(userWithRoles(1, "D2", "X"), dept))
	assert.False(t, CanAccessDepartment(userWithRoles(1, "X"), dept))
	assert.False(t, CanAccessDepartment(userWithRoles(1, "X"), &models.Department{}))
}

func TestHasGaragePermission(t *testing.T) {
	rows := []models.GarageRolePermission{
		{RoleID: "G1", CanEditVehicles: true},
	}
	// Scenario D: flag union across matching rows.
	user := userWithRoles(1, "G1", "G2")

	assert.True(t, HasGaragePermission(user, rows, models.GarageCanEditVehicles))
	assert.False(t, HasGaragePermission(user, rows, models.GarageCanDeleteVehicles))
}

func TestHasGaragePermission_UnionAcrossRows(t *testing.T) {
	rows := []models.GarageRolePermission{
		{RoleID: "G1", CanEditVehicles: true},
		{RoleID: "G2", CanGenerateCodes: true},
	}
	user := userWithRoles(1, "G1", "G2")

	assert.True(t, HasGaragePermission(user, rows, models.GarageCanEditVehicles))
	assert.True(t, HasGaragePermission(user, rows, models.GarageCanGenerateCodes))
	assert.False(t, HasGaragePermission(user, rows, models.GarageCanViewManager))
}

func TestHasGaragePermission_UnknownFlagDenied(t *testing.T) {
	rows := []models.GarageRolePermission{{RoleID: "G1", CanEditVehicles: true}}
	assert.False(t, HasGaragePermission(userWithRoles(1, "G1"), rows, models.GaragePermissionFlag("can_fly")))
}

func TestHasManagementAccess(t *testing.T) {
	assert.True(t, HasManagementAccess(userWithRoles(1, "MGMT"), "MGMT"))
	assert.False(t, HasManagementAccess(userWithRoles(1, "OTHER"), "MGMT"))
	assert.False(t, HasManagementAccess(userWithRoles(1, "MGMT"), ""))
	assert.False(t, HasManagementAccess(nil, "MGMT"))
}
