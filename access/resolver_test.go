package access

import (
	"testing"

	"github.com/otisthings/hub-sub000/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveTicket_OwnerGetsCloseOnly(t *testing.T) {
	ticket := &models.Ticket{ID: 7, UserID: 42, Status: models.TicketStatusOpen}
	owner := userWithRoles(42)

	caps := ResolveTicket(owner, ticket, nil)

	assert.True(t, caps.CanView)
	assert.True(t, caps.CanClose)
	assert.False(t, caps.CanClaim)
	assert.False(t, caps.CanTransfer)
	assert.False(t, caps.CanReopen)
	assert.False(t, caps.CanAddParticipants)
}

func TestResolveTicket_SupportGetsFullPowers(t *testing.T) {
	ticket := &models.Ticket{
		ID:       7,
		UserID:   1,
		Status:   models.TicketStatusOpen,
		Category: &models.Category{RequiredRoleID: "R1"},
	}
	support := userWithRoles(42, "R1")

	caps := ResolveTicket(support, ticket, nil)

	assert.True(t, caps.CanView)
	assert.True(t, caps.CanClose)
	assert.True(t, caps.CanClaim)
	assert.True(t, caps.CanTransfer)
	assert.True(t, caps.CanAddParticipants)
	assert.False(t, caps.CanReopen, "open tickets cannot be reopened")
}

func TestResolveTicket_ClaimedTicketCannotBeClaimedAgain(t *testing.T) {
	claimer := int64(10)
	ticket := &models.Ticket{
		ID:        7,
		UserID:    1,
		Status:    models.TicketStatusOpen,
		ClaimedBy: &claimer,
		Category:  &models.Category{RequiredRoleID: "R1"},
	}

	caps := ResolveTicket(userWithRoles(42, "R1"), ticket, nil)
	assert.False(t, caps.CanClaim)
}

func TestResolveTicket_ClosedTicketReopenableBySupport(t *testing.T) {
	ticket := &models.Ticket{
		ID:       7,
		UserID:   42,
		Status:   models.TicketStatusClosed,
		Category: &models.Category{RequiredRoleID: "R1"},
	}

	supportCaps := ResolveTicket(userWithRoles(9, "R1"), ticket, nil)
	assert.True(t, supportCaps.CanReopen)

	ownerCaps := ResolveTicket(userWithRoles(42), ticket, nil)
	assert.False(t, ownerCaps.CanReopen)
}

func TestResolveTicket_DeniedViewerGetsEmptySet(t *testing.T) {
	ticket := &models.Ticket{ID: 7, UserID: 1}
	caps := ResolveTicket(userWithRoles(42), ticket, nil)
	assert.Equal(t, TicketCapabilities{}, caps)
}

func TestResolveTicket_Idempotent(t *testing.T) {
	ticket := &models.Ticket{
		ID:       7,
		UserID:   42,
		Status:   models.TicketStatusOpen,
		Category: &models.Category{RequiredRoleID: "R1"},
	}
	user := userWithRoles(42, "R1")
	participants := []models.TicketParticipant{{TicketID: 7, UserID: 5}}

	first := ResolveTicket(user, ticket, participants)
	second := ResolveTicket(user, ticket, participants)
	assert.Equal(t, first, second)
}

func TestResolveApplication(t *testing.T) {
	app := &models.Application{
		AdminRoleID:     "A1",
		ModeratorRoleID: "M1",
		IsActive:        true,
	}

	adminTier := ResolveApplication(userWithRoles(1, "A1"), app)
	assert.True(t, adminTier.CanEdit)
	assert.True(t, adminTier.CanReviewSubmissions)
	assert.True(t, adminTier.CanSubmit)

	modTier := ResolveApplication(userWithRoles(1, "M1"), app)
	assert.False(t, modTier.CanEdit)
	assert.True(t, modTier.CanReviewSubmissions)

	applicant := ResolveApplication(userWithRoles(1), app)
	assert.True(t, applicant.CanView)
	assert.True(t, applicant.CanSubmit)
	assert.False(t, applicant.CanReviewSubmissions)
	assert.False(t, applicant.CanEdit)
}

func TestResolveApplication_InactiveFormNotSubmittable(t *testing.T) {
	app := &models.Application{IsActive: false}
	caps := ResolveApplication(userWithRoles(1), app)
	assert.True(t, caps.CanView)
	assert.False(t, caps.CanSubmit)
}

func TestResolveApplication_NilInputs(t *testing.T) {
	assert.Equal(t, ApplicationCapabilities{}, ResolveApplication(nil, &models.Application{}))
	assert.Equal(t, ApplicationCapabilities{}, ResolveApplication(userWithRoles(1), nil))
}

func TestResolveGarage(t *testing.T) {
	rows := []models.GarageRolePermission{
		{RoleID: "G1", CanEditVehicles: true, CanViewManager: true},
		{RoleID: "G2", CanGenerateCodes: true},
	}

	caps := ResolveGarage(userWithRoles(1, "G1"), rows)
	assert.True(t, caps.CanEditVehicles)
	assert.True(t, caps.CanViewManager)
	assert.False(t, caps.CanGenerateCodes)
	assert.False(t, caps.CanDeleteVehicles)
}

func TestResolveGarage_AdminGetsFullAccess(t *testing.T) {
	caps := ResolveGarage(adminUser(1), nil)
	assert.Equal(t, GarageCapabilities{
		CanViewManager:    true,
		CanGenerateCodes:  true,
		CanDeleteVehicles: true,
		CanEditVehicles:   true,
	}, caps)
}

func TestResolveGarage_Idempotent(t *testing.T) {
	rows := []models.GarageRolePermission{{RoleID: "G1", CanEditVehicles: true}}
	user := userWithRoles(1, "G1")

	assert.Equal(t, ResolveGarage(user, rows), ResolveGarage(user, rows))
}
