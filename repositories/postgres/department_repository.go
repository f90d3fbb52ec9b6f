package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"go.uber.org/zap"
)

// DepartmentRepository implements the repositories.DepartmentRepository interface
type DepartmentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *DB, logger *zap.Logger) repositories.DepartmentRepository {
	return &DepartmentRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a department by id
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	query := `
		SELECT id, name, classification, roster_view_id, created_at, updated_at
		FROM departments
		WHERE id = $1
	`

	dept := &models.Department{}
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Classification,
		&dept.RosterViewID,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("department not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	return dept, nil
}

// GetByClassification retrieves departments of the given classification
func (r *DepartmentRepository) GetByClassification(ctx context.Context, classification models.Classification) ([]*models.Department, error) {
	query := `
		SELECT id, name, classification, roster_view_id, created_at, updated_at
		FROM departments
		WHERE classification = $1
		ORDER BY name
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, classification)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var depts []*models.Department
	for rows.Next() {
		dept := &models.Department{}
		err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.Classification,
			&dept.RosterViewID,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		depts = append(depts, dept)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department rows: %w", err)
	}

	return depts, nil
}

// GetRoster retrieves the department's roster members
func (r *DepartmentRepository) GetRoster(ctx context.Context, departmentID int64) ([]models.DepartmentMember, error) {
	query := `
		SELECT dm.department_id, dm.user_id, u.username, dm.rank, dm.joined_at
		FROM department_members dm
		JOIN users u ON u.id = dm.user_id
		WHERE dm.department_id = $1
		ORDER BY dm.rank, u.username
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var members []models.DepartmentMember
	for rows.Next() {
		var member models.DepartmentMember
		err := rows.Scan(
			&member.DepartmentID,
			&member.UserID,
			&member.Username,
			&member.Rank,
			&member.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}

	return members, nil
}
