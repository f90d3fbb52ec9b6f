package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"go.uber.org/zap"
)

// GarageRepository implements the repositories.GarageRepository interface
type GarageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGarageRepository creates a new garage repository
func NewGarageRepository(db *DB, logger *zap.Logger) repositories.GarageRepository {
	return &GarageRepository{
		db:     db,
		logger: logger,
	}
}

// CreateVehicle stores a new vehicle and assigns its generated id
func (r *GarageRepository) CreateVehicle(ctx context.Context, vehicle *models.GarageVehicle) error {
	query := `
		INSERT INTO garage_vehicles (owner_id, name, model, plate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		vehicle.OwnerID,
		vehicle.Name,
		vehicle.Model,
		vehicle.Plate,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	).Scan(&vehicle.ID)

	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	r.logger.Debug("vehicle created",
		zap.Int64("id", vehicle.ID),
		zap.Int64("owner_id", vehicle.OwnerID))
	return nil
}

// GetVehicleByID retrieves a vehicle by id
func (r *GarageRepository) GetVehicleByID(ctx context.Context, id int64) (*models.GarageVehicle, error) {
	query := `
		SELECT id, owner_id, name, model, plate, created_at, updated_at
		FROM garage_vehicles
		WHERE id = $1
	`

	vehicle := &models.GarageVehicle{}
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.OwnerID,
		&vehicle.Name,
		&vehicle.Model,
		&vehicle.Plate,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("vehicle not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return vehicle, nil
}

// ListVehicles retrieves all vehicles
func (r *GarageRepository) ListVehicles(ctx context.Context) ([]*models.GarageVehicle, error) {
	query := `
		SELECT id, owner_id, name, model, plate, created_at, updated_at
		FROM garage_vehicles
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.GarageVehicle
	for rows.Next() {
		vehicle := &models.GarageVehicle{}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.OwnerID,
			&vehicle.Name,
			&vehicle.Model,
			&vehicle.Plate,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vehicle rows: %w", err)
	}

	return vehicles, nil
}

// UpdateVehicle updates a vehicle
func (r *GarageRepository) UpdateVehicle(ctx context.Context, vehicle *models.GarageVehicle) error {
	query := `
		UPDATE garage_vehicles
		SET name = $2,
		    model = $3,
		    plate = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Name,
		vehicle.Model,
		vehicle.Plate,
		vehicle.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vehicle not found: %d", vehicle.ID)
	}

	r.logger.Debug("vehicle updated", zap.Int64("id", vehicle.ID))
	return nil
}

// DeleteVehicle deletes a vehicle
func (r *GarageRepository) DeleteVehicle(ctx context.Context, id int64) error {
	query := `DELETE FROM garage_vehicles WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vehicle not found: %d", id)
	}

	r.logger.Debug("vehicle deleted", zap.Int64("id", id))
	return nil
}

// GetPermissions retrieves all garage role permission rows
func (r *GarageRepository) GetPermissions(ctx context.Context) ([]models.GarageRolePermission, error) {
	query := `
		SELECT id, role_id, can_view_manager, can_generate_codes, can_delete_vehicles, can_edit_vehicles, created_at, updated_at
		FROM garage_role_permissions
		ORDER BY id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query garage permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.GarageRolePermission
	for rows.Next() {
		var perm models.GarageRolePermission
		err := rows.Scan(
			&perm.ID,
			&perm.RoleID,
			&perm.CanViewManager,
			&perm.CanGenerateCodes,
			&perm.CanDeleteVehicles,
			&perm.CanEditVehicles,
			&perm.CreatedAt,
			&perm.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan garage permission: %w", err)
		}
		perms = append(perms, perm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating garage permission rows: %w", err)
	}

	return perms, nil
}

// UpsertPermission creates or updates the permission row for a role
func (r *GarageRepository) UpsertPermission(ctx context.Context, perm *models.GarageRolePermission) error {
	query := `
		INSERT INTO garage_role_permissions (role_id, can_view_manager, can_generate_codes, can_delete_vehicles, can_edit_vehicles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (role_id) DO UPDATE SET
			can_view_manager = EXCLUDED.can_view_manager,
			can_generate_codes = EXCLUDED.can_generate_codes,
			can_delete_vehicles = EXCLUDED.can_delete_vehicles,
			can_edit_vehicles = EXCLUDED.can_edit_vehicles,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		perm.RoleID,
		perm.CanViewManager,
		perm.CanGenerateCodes,
		perm.CanDeleteVehicles,
		perm.CanEditVehicles,
		perm.CreatedAt,
		perm.UpdatedAt,
	).Scan(&perm.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert garage permission: %w", err)
	}

	r.logger.Debug("garage permission upserted",
		zap.Int64("id", perm.ID),
		zap.String("role_id", perm.RoleID))
	return nil
}

// CreateAccessCode stores a generated access code
func (r *GarageRepository) CreateAccessCode(ctx context.Context, code *models.GarageAccessCode) error {
	query := `
		INSERT INTO garage_access_codes (id, code, generated_by, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		code.ID,
		code.Code,
		code.GeneratedBy,
		code.ExpiresAt,
		code.UsedAt,
		code.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create access code: %w", err)
	}

	r.logger.Debug("access code created",
		zap.String("id", code.ID.String()),
		zap.Int64("generated_by", code.GeneratedBy))
	return nil
}

// GetConfig retrieves the garage configuration
func (r *GarageRepository) GetConfig(ctx context.Context) (*models.GarageConfig, error) {
	query := `
		SELECT id, subscription_id, max_vehicles, code_ttl_minutes, updated_at
		FROM garage_config
		ORDER BY id
		LIMIT 1
	`

	cfg := &models.GarageConfig{}
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query).Scan(
		&cfg.ID,
		&cfg.SubscriptionID,
		&cfg.MaxVehicles,
		&cfg.CodeTTLMinutes,
		&cfg.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("garage config not found")
		}
		return nil, fmt.Errorf("failed to get garage config: %w", err)
	}

	return cfg, nil
}

// UpdateConfig updates the garage configuration
func (r *GarageRepository) UpdateConfig(ctx context.Context, cfg *models.GarageConfig) error {
	query := `
		UPDATE garage_config
		SET subscription_id = $2,
		    max_vehicles = $3,
		    code_ttl_minutes = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		cfg.ID,
		cfg.SubscriptionID,
		cfg.MaxVehicles,
		cfg.CodeTTLMinutes,
		cfg.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update garage config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("garage config not found: %d", cfg.ID)
	}

	r.logger.Debug("garage config updated", zap.Int64("id", cfg.ID))
	return nil
}
