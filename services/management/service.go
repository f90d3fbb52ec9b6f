// Package management implements the staff management surface: the paginated
// user directory and hub-ban controls. Every operation is gated by the single
// externally-configured management role or the admin bypass.
package management

import (
	"context"
	"strconv"

	"github.com/otisthings/hub-sub000/access"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/services"
	"go.uber.org/zap"
)

// Recorder queues audit log entries
type Recorder interface {
	Record(log *models.AuditLog) error
}

// Invalidator drops a user's cached session snapshot after a mutation
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64)
}

// Service implements management operations
type Service struct {
	userRepo         repositories.UserRepository
	auditor          Recorder
	sessions         Invalidator
	managementRoleID string
	logger           *zap.Logger
}

// NewService creates a new management service
func NewService(
	userRepo repositories.UserRepository,
	auditor Recorder,
	sessions Invalidator,
	managementRoleID string,
	logger *zap.Logger,
) *Service {
	return &Service{
		userRepo:         userRepo,
		auditor:          auditor,
		sessions:         sessions,
		managementRoleID: managementRoleID,
		logger:           logger,
	}
}

// Directory is one page of the user directory
type Directory struct {
	Users  []*models.User `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListUsers returns a page of the user directory
func (s *Service) ListUsers(ctx context.Context, user *models.User, limit, offset int) (*Directory, error) {
	if err := s.authorize(user); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list users", err)
	}

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to count users", err)
	}

	return &Directory{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// GetUser returns one user's profile with roles
func (s *Service) GetUser(ctx context.Context, user *models.User, targetID int64) (*models.User, error) {
	if err := s.authorize(user); err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "user not found", err)
	}
	return target, nil
}

// SetHubBan bans or unbans a user from the hub. Banned users keep their
// records; the auth middleware denies every request they make.
func (s *Service) SetHubBan(ctx context.Context, user *models.User, targetID int64, banned bool) error {
	if err := s.authorize(user); err != nil {
		return err
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeNotFound, "user not found", err)
	}
	if target.IsAdmin {
		return services.ErrForbidden
	}

	if err := s.userRepo.SetHubBanned(ctx, targetID, banned); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to update ban state", err)
	}

	if s.sessions != nil {
		s.sessions.InvalidateUser(ctx, targetID)
	}

	action := models.AuditActionUserBanned
	if !banned {
		action = models.AuditActionUserUnbanned
	}
	s.record(models.NewAuditLog(user.ID, action, "user", strconv.FormatInt(targetID, 10)))

	s.logger.Info("hub ban state changed",
		zap.Int64("actor_id", user.ID),
		zap.Int64("target_id", targetID),
		zap.Bool("banned", banned))

	return nil
}

// ToggleRole grants the role to the target when absent and removes it when
// present. Returns the target's resulting role set.
func (s *Service) ToggleRole(ctx context.Context, user *models.User, targetID int64, role models.RoleReference) ([]models.RoleReference, error) {
	if err := s.authorize(user); err != nil {
		return nil, err
	}
	if role.ID == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "role id is required", nil)
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "user not found", err)
	}

	roles := make([]models.RoleReference, 0, len(target.Roles)+1)
	removed := false
	for _, r := range target.Roles {
		if r.ID == role.ID {
			removed = true
			continue
		}
		roles = append(roles, r)
	}
	if !removed {
		roles = append(roles, role)
	}

	if err := s.userRepo.ReplaceRoles(ctx, targetID, roles); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to update roles", err)
	}

	if s.sessions != nil {
		s.sessions.InvalidateUser(ctx, targetID)
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionRoleToggled, "user", strconv.FormatInt(targetID, 10)))

	s.logger.Info("profile role toggled",
		zap.Int64("actor_id", user.ID),
		zap.Int64("target_id", targetID),
		zap.String("role_id", role.ID),
		zap.Bool("granted", !removed))

	return roles, nil
}

func (s *Service) authorize(user *models.User) error {
	if user == nil {
		return services.ErrUnauthorized
	}
	if !access.HasManagementAccess(user, s.managementRoleID) {
		return services.ErrForbidden
	}
	return nil
}

func (s *Service) record(log *models.AuditLog) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(log); err != nil {
		s.logger.Warn("failed to record audit event",
			zap.String("action", string(log.Action)),
			zap.Error(err))
	}
}
