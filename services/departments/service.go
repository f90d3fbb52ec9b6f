// Package departments exposes the department and organization listings and
// their rosters. Roster visibility is gated by intersection of the viewer's
// roles with the department's roster-view list.
package departments

import (
	"context"

	"github.com/otisthings/hub-sub000/access"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/services"
	"go.uber.org/zap"
)

// Service implements department operations
type Service struct {
	deptRepo repositories.DepartmentRepository
	logger   *zap.Logger
}

// NewService creates a new department service
func NewService(deptRepo repositories.DepartmentRepository, logger *zap.Logger) *Service {
	return &Service{deptRepo: deptRepo, logger: logger}
}

// Listing is a department with the viewer's roster access flag, so the front
// end can grey out rosters the viewer cannot open.
type Listing struct {
	Department    *models.Department `json:"department"`
	CanViewRoster bool               `json:"can_view_roster"`
}

// ListByClassification returns departments or organizations with per-entry
// roster access for the viewer.
func (s *Service) ListByClassification(ctx context.Context, user *models.User, classification models.Classification) ([]Listing, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}
	if classification != models.ClassificationDepartment && classification != models.ClassificationOrganization {
		return nil, services.ErrInvalidInput
	}

	depts, err := s.deptRepo.GetByClassification(ctx, classification)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list departments", err)
	}

	listings := make([]Listing, 0, len(depts))
	for _, dept := range depts {
		listings = append(listings, Listing{
			Department:    dept,
			CanViewRoster: access.CanAccessDepartment(user, dept),
		})
	}
	return listings, nil
}

// Roster returns the department's roster for a viewer with access
func (s *Service) Roster(ctx context.Context, user *models.User, departmentID int64) ([]models.DepartmentMember, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	dept, err := s.deptRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "department not found", err)
	}

	if !access.CanAccessDepartment(user, dept) {
		return nil, services.ErrForbidden
	}

	members, err := s.deptRepo.GetRoster(ctx, departmentID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load roster", err)
	}
	return members, nil
}
