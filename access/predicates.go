package access

import "github.com/otisthings/hub-sub000/models"

// Permission predicates. Every predicate follows the same shape: admin bypass
// first, then a specific role-membership check, then (where applicable) an
// ownership or participation check. Predicates never panic and never return
// true on malformed input.

// CanAccessSupportCategory reports whether the user has support access to the
// category: admin, or member of the category's required role. A category with
// no required role configured grants support access to no one but admins;
// there is no ownership fallback for categories.
func CanAccessSupportCategory(user *models.User, category *models.Category) bool {
	if user == nil || category == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return NewRoleSet(user).Contains(category.RequiredRoleID)
}

// CanManageApplication reports whether the user may view submissions for the
// application: admin, the application's admin role, or its moderator role.
func CanManageApplication(user *models.User, app *models.Application) bool {
	if user == nil || app == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	roles := NewRoleSet(user)
	return roles.Contains(app.AdminRoleID) || roles.Contains(app.ModeratorRoleID)
}

// CanEditApplication reports whether the user may edit the application form
// and review its submissions: admin or the application's admin role only.
func CanEditApplication(user *models.User, app *models.Application) bool {
	if user == nil || app == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return NewRoleSet(user).Contains(app.AdminRoleID)
}

// CanViewTicket reports whether the user may see the ticket at all: admin,
// owner, explicit participant, support member of the ticket's category,
// assignee, or claimer.
func CanViewTicket(user *models.User, ticket *models.Ticket, participants []models.TicketParticipant) bool {
	if user == nil || ticket == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	if ticket.UserID == user.ID {
		return true
	}
	if isParticipant(user.ID, participants) {
		return true
	}
	return IsTicketSupport(user, ticket)
}

// IsTicketSupport reports whether the user holds full support powers over the
// ticket (claim, transfer, add participants, reopen): admin, support role on
// the ticket's category, assignee, or claimer. Owners and participants who
// are not support members do not qualify; they get close-only access.
func IsTicketSupport(user *models.User, ticket *models.Ticket) bool {
	if user == nil || ticket == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo == user.ID {
		return true
	}
	if ticket.ClaimedBy != nil && *ticket.ClaimedBy == user.ID {
		return true
	}
	if ticket.Category != nil {
		return CanAccessSupportCategory(user, ticket.Category)
	}
	return false
}

// CanAccessDepartment reports whether the user may view the department's
// roster: admin, or role intersection with the department's roster-view list.
func CanAccessDepartment(user *models.User, dept *models.Department) bool {
	if user == nil || dept == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return NewRoleSet(user).ContainsAny(dept.RosterViewID)
}

// HasGaragePermission reports whether the user holds the named garage
// capability: admin, or any permission row whose role matches the user and
// whose flag column is set. Effective capabilities are the union across rows.
func HasGaragePermission(user *models.User, rows []models.GarageRolePermission, flag models.GaragePermissionFlag) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	roles := NewRoleSet(user)
	for i := range rows {
		if roles.Contains(rows[i].RoleID) && rows[i].Flag(flag) {
			return true
		}
	}
	return false
}

// HasManagementAccess reports whether the user may use the management surface:
// admin, or holder of the single externally-configured management role.
func HasManagementAccess(user *models.User, managementRoleID string) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return NewRoleSet(user).Contains(managementRoleID)
}

func isParticipant(userID int64, participants []models.TicketParticipant) bool {
	for i := range participants {
		if participants[i].UserID == userID {
			return true
		}
	}
	return false
}
