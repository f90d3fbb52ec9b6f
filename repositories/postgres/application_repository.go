package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/otisthings/hub-sub000/access"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"go.uber.org/zap"
)

// ApplicationRepository implements the repositories.ApplicationRepository interface.
// The questions and responses columns hold historically inconsistent encodings
// (native JSON, or JSON serialized inside a string); reads go through the
// access-package normalizers so callers always see typed collections.
type ApplicationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *DB, logger *zap.Logger) repositories.ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new application form and assigns its generated id
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	questions, err := json.Marshal(app.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO applications (name, description, admin_role_id, moderator_role_id, accepted_roles, questions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err = executor.QueryRowContext(ctx, query,
		app.Name,
		app.Description,
		app.AdminRoleID,
		app.ModeratorRoleID,
		pq.Array(app.AcceptedRoles),
		questions,
		app.IsActive,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID)

	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	r.logger.Debug("application created",
		zap.Int64("id", app.ID),
		zap.String("name", app.Name))
	return nil
}

// GetByID retrieves an application by id
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	query := `
		SELECT id, name, description, admin_role_id, moderator_role_id, accepted_roles, questions, is_active, created_at, updated_at
		FROM applications
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	app, err := scanApplication(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("application not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

// GetAll retrieves application forms, optionally only active ones
func (r *ApplicationRepository) GetAll(ctx context.Context, activeOnly bool) ([]*models.Application, error) {
	query := `
		SELECT id, name, description, admin_role_id, moderator_role_id, accepted_roles, questions, is_active, created_at, updated_at
		FROM applications
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}

	return apps, nil
}

func scanApplication(s scanner) (*models.Application, error) {
	app := &models.Application{}
	var acceptedRoles pq.StringArray
	var rawQuestions []byte

	err := s.Scan(
		&app.ID,
		&app.Name,
		&app.Description,
		&app.AdminRoleID,
		&app.ModeratorRoleID,
		&acceptedRoles,
		&rawQuestions,
		&app.IsActive,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.AcceptedRoles = acceptedRoles
	app.RawQuestions = rawQuestions
	app.Questions = access.NormalizeQuestions(rawQuestions)

	return app, nil
}

// Update updates an application form
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	questions, err := json.Marshal(app.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		UPDATE applications
		SET name = $2,
		    description = $3,
		    admin_role_id = $4,
		    moderator_role_id = $5,
		    accepted_roles = $6,
		    questions = $7,
		    is_active = $8,
		    updated_at = $9
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		app.ID,
		app.Name,
		app.Description,
		app.AdminRoleID,
		app.ModeratorRoleID,
		pq.Array(app.AcceptedRoles),
		questions,
		app.IsActive,
		app.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("application not found: %d", app.ID)
	}

	r.logger.Debug("application updated", zap.Int64("id", app.ID))
	return nil
}

// CreateSubmission stores a new submission and assigns its generated id
func (r *ApplicationRepository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	responses, err := json.Marshal(sub.Responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}

	query := `
		INSERT INTO application_submissions (application_id, user_id, responses, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err = executor.QueryRowContext(ctx, query,
		sub.ApplicationID,
		sub.UserID,
		responses,
		sub.Status,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Scan(&sub.ID)

	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	r.logger.Debug("submission created",
		zap.Int64("id", sub.ID),
		zap.Int64("application_id", sub.ApplicationID),
		zap.Int64("user_id", sub.UserID))
	return nil
}

const submissionColumns = `id, application_id, user_id, responses, status, reviewed_by, review_note, created_at, updated_at`

// GetSubmissionByID retrieves a submission by id
func (r *ApplicationRepository) GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM application_submissions WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	sub, err := scanSubmission(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("submission not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return sub, nil
}

// GetSubmissions retrieves submissions for an application form
func (r *ApplicationRepository) GetSubmissions(ctx context.Context, applicationID int64) ([]*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM application_submissions
		WHERE application_id = $1
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	return subs, nil
}

// GetPendingSubmission retrieves the user's pending submission for a form, if any
func (r *ApplicationRepository) GetPendingSubmission(ctx context.Context, applicationID, userID int64) (*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM application_submissions
		WHERE application_id = $1 AND user_id = $2 AND status = 'pending'
	`

	executor := GetExecutor(ctx, r.db)
	sub, err := scanSubmission(executor.QueryRowContext(ctx, query, applicationID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending submission: %w", err)
	}

	return sub, nil
}

func scanSubmission(s scanner) (*models.Submission, error) {
	sub := &models.Submission{}
	var rawResponses []byte
	var reviewNote sql.NullString

	err := s.Scan(
		&sub.ID,
		&sub.ApplicationID,
		&sub.UserID,
		&rawResponses,
		&sub.Status,
		&sub.ReviewedBy,
		&reviewNote,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.RawResponses = rawResponses
	sub.Responses = access.NormalizeResponses(rawResponses)
	sub.ReviewNote = reviewNote.String

	return sub, nil
}

// UpdateSubmission persists review state changes
func (r *ApplicationRepository) UpdateSubmission(ctx context.Context, sub *models.Submission) error {
	query := `
		UPDATE application_submissions
		SET status = $2,
		    reviewed_by = $3,
		    review_note = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		sub.ID,
		sub.Status,
		sub.ReviewedBy,
		sub.ReviewNote,
		sub.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("submission not found: %d", sub.ID)
	}

	r.logger.Debug("submission updated",
		zap.Int64("id", sub.ID),
		zap.String("status", string(sub.Status)))
	return nil
}
