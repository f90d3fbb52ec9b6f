package access

import "github.com/otisthings/hub-sub000/models"

// The resolver composes the predicates into per-resource capability sets.
// Handlers compute a capability set once per resource load and both enforce
// it server-side and return it to the front end, so every page renders from
// the same decision the API enforces.

// TicketCapabilities is the resolved capability set for one ticket
type TicketCapabilities struct {
	CanView            bool `json:"can_view"`
	CanClose           bool `json:"can_close"`
	CanClaim           bool `json:"can_claim"`
	CanTransfer        bool `json:"can_transfer"`
	CanReopen          bool `json:"can_reopen"`
	CanAddParticipants bool `json:"can_add_participants"`
}

// ResolveTicket computes the viewer's capabilities for a ticket. Owners and
// participants without support standing may close but not claim, transfer,
// reopen, or add participants.
func ResolveTicket(user *models.User, ticket *models.Ticket, participants []models.TicketParticipant) TicketCapabilities {
	if !CanViewTicket(user, ticket, participants) {
		return TicketCapabilities{}
	}
	support := IsTicketSupport(user, ticket)
	return TicketCapabilities{
		CanView:            true,
		CanClose:           true,
		CanClaim:           support && ticket.ClaimedBy == nil && !ticket.IsClosed(),
		CanTransfer:        support,
		CanReopen:          support && ticket.IsClosed(),
		CanAddParticipants: support,
	}
}

// ApplicationCapabilities is the resolved capability set for one application
type ApplicationCapabilities struct {
	CanView              bool `json:"can_view"`
	CanSubmit            bool `json:"can_submit"`
	CanReviewSubmissions bool `json:"can_review_submissions"`
	CanEdit              bool `json:"can_edit"`
}

// ResolveApplication computes the viewer's capabilities for an application
// form. Anyone may view and submit to an active form; viewing submissions
// requires the moderator tier and editing or reviewing the admin tier.
func ResolveApplication(user *models.User, app *models.Application) ApplicationCapabilities {
	if user == nil || app == nil {
		return ApplicationCapabilities{}
	}
	return ApplicationCapabilities{
		CanView:              true,
		CanSubmit:            app.IsActive,
		CanReviewSubmissions: CanManageApplication(user, app),
		CanEdit:              CanEditApplication(user, app),
	}
}

// GarageCapabilities is the resolved garage capability set for a user
type GarageCapabilities struct {
	CanViewManager    bool `json:"can_view_manager"`
	CanGenerateCodes  bool `json:"can_generate_codes"`
	CanDeleteVehicles bool `json:"can_delete_vehicles"`
	CanEditVehicles   bool `json:"can_edit_vehicles"`
}

// ResolveGarage computes the union of garage capabilities across all
// permission rows matching the user's roles, or full access for admins.
func ResolveGarage(user *models.User, rows []models.GarageRolePermission) GarageCapabilities {
	return GarageCapabilities{
		CanViewManager:    HasGaragePermission(user, rows, models.GarageCanViewManager),
		CanGenerateCodes:  HasGaragePermission(user, rows, models.GarageCanGenerateCodes),
		CanDeleteVehicles: HasGaragePermission(user, rows, models.GarageCanDeleteVehicles),
		CanEditVehicles:   HasGaragePermission(user, rows, models.GarageCanEditVehicles),
	}
}
