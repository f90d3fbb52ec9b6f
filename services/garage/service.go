// Package garage implements the vehicle garage: member vehicle contributions,
// per-role capability rows, temporary access codes, and garage configuration.
// Effective capabilities are the union across all permission rows matching
// the caller's roles.
package garage

import (
	"context"
	"time"

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

// Service implements garage operations
type Service struct {
	garageRepo repositories.GarageRepository
	auditor    Recorder
	logger     *zap.Logger
}

// NewService creates a new garage service
func NewService(garageRepo repositories.GarageRepository, auditor Recorder, logger *zap.Logger) *Service {
	return &Service{
		garageRepo: garageRepo,
		auditor:    auditor,
		logger:     logger,
	}
}

// VehicleInput is the payload for creating or updating a vehicle
type VehicleInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Model string `json:"model" validate:"max=120"`
	Plate string `json:"plate" validate:"max=16"`
}

// ManagerView bundles the permission rows and configuration for the manager
// surface
type ManagerView struct {
	Permissions []models.GarageRolePermission `json:"permissions"`
	Config      *models.GarageConfig          `json:"config"`
}

// Capabilities resolves the caller's garage capability set
func (s *Service) Capabilities(ctx context.Context, user *models.User) (access.GarageCapabilities, error) {
	if user == nil {
		return access.GarageCapabilities{}, services.ErrUnauthorized
	}

	rows, err := s.garageRepo.GetPermissions(ctx)
	if err != nil {
		return access.GarageCapabilities{}, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage permissions", err)
	}

	return access.ResolveGarage(user, rows), nil
}

// ListVehicles returns all vehicles. Any signed-in member may browse the
// garage.
func (s *Service) ListVehicles(ctx context.Context, user *models.User) ([]*models.GarageVehicle, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	vehicles, err := s.garageRepo.ListVehicles(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list vehicles", err)
	}
	return vehicles, nil
}

// CreateVehicle adds a vehicle owned by the caller, subject to the configured
// vehicle limit.
func (s *Service) CreateVehicle(ctx context.Context, user *models.User, input VehicleInput) (*models.GarageVehicle, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	cfg, err := s.garageRepo.GetConfig(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage config", err)
	}

	if cfg.MaxVehicles > 0 {
		vehicles, err := s.garageRepo.ListVehicles(ctx)
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list vehicles", err)
		}
		if len(vehicles) >= cfg.MaxVehicles {
			return nil, services.ErrGarageFull
		}
	}

	now := time.Now()
	vehicle := &models.GarageVehicle{
		OwnerID:   user.ID,
		Name:      input.Name,
		Model:     input.Model,
		Plate:     input.Plate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.garageRepo.CreateVehicle(ctx, vehicle); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to create vehicle", err)
	}

	return vehicle, nil
}

// UpdateVehicle updates a vehicle. Owners may edit their own; otherwise the
// edit capability is required.
func (s *Service) UpdateVehicle(ctx context.Context, user *models.User, vehicleID int64, input VehicleInput) (*models.GarageVehicle, error) {
	vehicle, err := s.loadVehicle(ctx, user, vehicleID, models.GarageCanEditVehicles)
	if err != nil {
		return nil, err
	}

	vehicle.Name = input.Name
	vehicle.Model = input.Model
	vehicle.Plate = input.Plate
	vehicle.UpdatedAt = time.Now()

	if err := s.garageRepo.UpdateVehicle(ctx, vehicle); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to update vehicle", err)
	}
	return vehicle, nil
}

// DeleteVehicle deletes a vehicle. Owners may delete their own; otherwise the
// delete capability is required.
func (s *Service) DeleteVehicle(ctx context.Context, user *models.User, vehicleID int64) error {
	if _, err := s.loadVehicle(ctx, user, vehicleID, models.GarageCanDeleteVehicles); err != nil {
		return err
	}

	if err := s.garageRepo.DeleteVehicle(ctx, vehicleID); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to delete vehicle", err)
	}
	return nil
}

// Manager returns the permission rows and configuration. Requires the manager
// view capability.
func (s *Service) Manager(ctx context.Context, user *models.User) (*ManagerView, error) {
	rows, err := s.requireFlag(ctx, user, models.GarageCanViewManager)
	if err != nil {
		return nil, err
	}

	cfg, err := s.garageRepo.GetConfig(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage config", err)
	}

	return &ManagerView{Permissions: rows, Config: cfg}, nil
}

// ListPermissions returns the per-role capability rows. Requires the manager
// view capability.
func (s *Service) ListPermissions(ctx context.Context, user *models.User) ([]models.GarageRolePermission, error) {
	return s.requireFlag(ctx, user, models.GarageCanViewManager)
}

// UpsertPermission creates or updates the capability row for a role. Global
// admins only; role holders cannot widen their own grants.
func (s *Service) UpsertPermission(ctx context.Context, user *models.User, perm *models.GarageRolePermission) error {
	if user == nil {
		return services.ErrUnauthorized
	}
	if !user.IsAdmin {
		return services.ErrForbidden
	}
	if perm == nil || perm.RoleID == "" {
		return services.ErrInvalidInput
	}

	now := time.Now()
	if perm.CreatedAt.IsZero() {
		perm.CreatedAt = now
	}
	perm.UpdatedAt = now

	if err := s.garageRepo.UpsertPermission(ctx, perm); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to upsert garage permission", err)
	}
	return nil
}

// GenerateCode issues a temporary access code with the configured TTL.
// Requires the code generation capability.
func (s *Service) GenerateCode(ctx context.Context, user *models.User) (*models.GarageAccessCode, error) {
	if _, err := s.requireFlag(ctx, user, models.GarageCanGenerateCodes); err != nil {
		return nil, err
	}

	cfg, err := s.garageRepo.GetConfig(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage config", err)
	}

	ttl := time.Duration(cfg.CodeTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	code := models.NewGarageAccessCode(user.ID, ttl)
	if err := s.garageRepo.CreateAccessCode(ctx, code); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to store access code", err)
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionGarageCodeIssued, "garage_access_code", code.ID.String()))
	s.logger.Info("garage access code issued",
		zap.Int64("generated_by", user.ID),
		zap.Time("expires_at", code.ExpiresAt))

	return code, nil
}

// Config returns the garage configuration. Manager view capability required.
func (s *Service) Config(ctx context.Context, user *models.User) (*models.GarageConfig, error) {
	if _, err := s.requireFlag(ctx, user, models.GarageCanViewManager); err != nil {
		return nil, err
	}

	cfg, err := s.garageRepo.GetConfig(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage config", err)
	}
	return cfg, nil
}

// UpdateConfig updates the garage configuration. Global admins only.
func (s *Service) UpdateConfig(ctx context.Context, user *models.User, cfg *models.GarageConfig) error {
	if user == nil {
		return services.ErrUnauthorized
	}
	if !user.IsAdmin {
		return services.ErrForbidden
	}
	if cfg == nil {
		return services.ErrInvalidInput
	}

	cfg.UpdatedAt = time.Now()
	if err := s.garageRepo.UpdateConfig(ctx, cfg); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to update garage config", err)
	}
	return nil
}

// loadVehicle fetches a vehicle and checks ownership or the given capability
func (s *Service) loadVehicle(ctx context.Context, user *models.User, vehicleID int64, flag models.GaragePermissionFlag) (*models.GarageVehicle, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	vehicle, err := s.garageRepo.GetVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "vehicle not found", err)
	}

	if vehicle.OwnerID == user.ID {
		return vehicle, nil
	}

	rows, err := s.garageRepo.GetPermissions(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage permissions", err)
	}
	if !access.HasGaragePermission(user, rows, flag) {
		return nil, services.ErrForbidden
	}

	return vehicle, nil
}

// requireFlag loads the permission rows and fails closed unless the caller
// holds the flag
func (s *Service) requireFlag(ctx context.Context, user *models.User, flag models.GaragePermissionFlag) ([]models.GarageRolePermission, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	rows, err := s.garageRepo.GetPermissions(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load garage permissions", err)
	}
	if !access.HasGaragePermission(user, rows, flag) {
		return nil, services.ErrForbidden
	}
	return rows, nil
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
