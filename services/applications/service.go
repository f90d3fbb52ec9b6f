// Package applications implements application forms and their submission
// review workflow. Form management and review are gated by the application's
// admin and moderator role tiers; approval grants the form's accepted roles
// to the submitter.
package applications

import (
	"context"
	"strconv"
	"time"

	"github.com/otisthings/hub-sub000/access"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/services"
	"github.com/otisthings/hub-sub000/services/events"
	"go.uber.org/zap"
)

// Recorder queues audit log entries
type Recorder interface {
	Record(log *models.AuditLog) error
}

// Service implements application form operations
type Service struct {
	appRepo   repositories.ApplicationRepository
	userRepo  repositories.UserRepository
	txMgr     repositories.TransactionManager
	auditor   Recorder
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService creates a new application service
func NewService(
	appRepo repositories.ApplicationRepository,
	userRepo repositories.UserRepository,
	txMgr repositories.TransactionManager,
	auditor Recorder,
	publisher events.Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		appRepo:   appRepo,
		userRepo:  userRepo,
		txMgr:     txMgr,
		auditor:   auditor,
		publisher: publisher,
		logger:    logger,
	}
}

// FormInput is the payload for creating or updating an application form
type FormInput struct {
	Name            string            `json:"name" validate:"required,max=120"`
	Description     string            `json:"description" validate:"max=2000"`
	AdminRoleID     string            `json:"admin_role_id"`
	ModeratorRoleID string            `json:"moderator_role_id"`
	AcceptedRoles   []string          `json:"accepted_roles"`
	Questions       []models.Question `json:"questions"`
	IsActive        bool              `json:"is_active"`
}

// FormView bundles a form with the viewer's resolved capabilities
type FormView struct {
	Application  *models.Application            `json:"application"`
	Capabilities access.ApplicationCapabilities `json:"capabilities"`
}

// CreateForm creates a new application form. Global admins only.
func (s *Service) CreateForm(ctx context.Context, user *models.User, input FormInput) (*models.Application, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}
	if !user.IsAdmin {
		return nil, services.ErrForbidden
	}

	now := time.Now()
	app := &models.Application{
		Name:            input.Name,
		Description:     input.Description,
		AdminRoleID:     input.AdminRoleID,
		ModeratorRoleID: input.ModeratorRoleID,
		AcceptedRoles:   cleanRoleIDs(input.AcceptedRoles),
		Questions:       input.Questions,
		IsActive:        input.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to create application", err)
	}

	s.logger.Info("application form created",
		zap.Int64("application_id", app.ID),
		zap.String("name", app.Name))

	return app, nil
}

// ListForms returns application forms with the viewer's capabilities. Forms
// the viewer can neither submit to nor manage are still listed when active;
// inactive forms are only visible to their managers.
func (s *Service) ListForms(ctx context.Context, user *models.User) ([]FormView, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	apps, err := s.appRepo.GetAll(ctx, false)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list applications", err)
	}

	views := make([]FormView, 0, len(apps))
	for _, app := range apps {
		caps := access.ResolveApplication(user, app)
		if !app.IsActive && !caps.CanReviewSubmissions && !caps.CanEdit {
			continue
		}
		views = append(views, FormView{Application: app, Capabilities: caps})
	}

	return views, nil
}

// GetForm returns one form with the viewer's capabilities
func (s *Service) GetForm(ctx context.Context, user *models.User, appID int64) (*FormView, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "application not found", err)
	}

	caps := access.ResolveApplication(user, app)
	if !app.IsActive && !caps.CanReviewSubmissions && !caps.CanEdit {
		return nil, services.ErrForbidden
	}

	return &FormView{Application: app, Capabilities: caps}, nil
}

// UpdateForm updates an application form. Admin tier only.
func (s *Service) UpdateForm(ctx context.Context, user *models.User, appID int64, input FormInput) (*models.Application, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "application not found", err)
	}

	if !access.CanEditApplication(user, app) {
		return nil, services.ErrForbidden
	}

	app.Name = input.Name
	app.Description = input.Description
	app.AdminRoleID = input.AdminRoleID
	app.ModeratorRoleID = input.ModeratorRoleID
	app.AcceptedRoles = cleanRoleIDs(input.AcceptedRoles)
	app.Questions = input.Questions
	app.IsActive = input.IsActive
	app.UpdatedAt = time.Now()

	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to update application", err)
	}

	return app, nil
}

// Submit creates a pending submission for the form. One pending submission
// per user per form; every required question needs a non-empty response.
func (s *Service) Submit(ctx context.Context, user *models.User, appID int64, responses map[string]string) (*models.Submission, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "application not found", err)
	}

	if !app.IsActive {
		return nil, services.ErrFormInactive
	}

	for _, question := range app.Questions {
		if question.Required && responses[question.ID] == "" {
			return nil, services.ErrMissingResponse.WithDetail("question_id", question.ID)
		}
	}

	pending, err := s.appRepo.GetPendingSubmission(ctx, appID, user.ID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to check pending submissions", err)
	}
	if pending != nil {
		return nil, services.ErrPendingSubmission
	}

	now := time.Now()
	sub := &models.Submission{
		ApplicationID: appID,
		UserID:        user.ID,
		Responses:     responses,
		Status:        models.SubmissionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.appRepo.CreateSubmission(ctx, sub); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to create submission", err)
	}

	s.logger.Info("submission created",
		zap.Int64("submission_id", sub.ID),
		zap.Int64("application_id", appID),
		zap.Int64("user_id", user.ID))

	return sub, nil
}

// ListSubmissions returns a form's submissions. Moderator tier or above.
func (s *Service) ListSubmissions(ctx context.Context, user *models.User, appID int64) ([]*models.Submission, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "application not found", err)
	}

	if !access.CanManageApplication(user, app) {
		return nil, services.ErrForbidden
	}

	subs, err := s.appRepo.GetSubmissions(ctx, appID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list submissions", err)
	}
	return subs, nil
}

// Review approves or denies a pending submission. Admin tier only. Approval
// grants the form's accepted roles to the submitter and invalidates any
// cached session snapshot downstream.
func (s *Service) Review(ctx context.Context, user *models.User, submissionID int64, approve bool, note string) (*models.Submission, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	sub, err := s.appRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "submission not found", err)
	}
	if !sub.IsPending() {
		return nil, services.ErrAlreadyReviewed
	}

	app, err := s.appRepo.GetByID(ctx, sub.ApplicationID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "application not found", err)
	}
	if !access.CanEditApplication(user, app) {
		return nil, services.ErrForbidden
	}

	if approve {
		sub.Status = models.SubmissionStatusApproved
	} else {
		sub.Status = models.SubmissionStatusDenied
	}
	sub.ReviewedBy = &user.ID
	sub.ReviewNote = note
	sub.UpdatedAt = time.Now()

	// The status flip and the role grant are one unit of work: an approved
	// submission with no roles granted would need manual repair.
	err = services.WithTransaction(ctx, s.txMgr, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.appRepo.UpdateSubmission(txCtx, sub); err != nil {
			return services.NewDomainError(services.ErrorTypeInternal, "failed to update submission", err)
		}
		if approve && len(app.AcceptedRoles) > 0 {
			if err := s.grantAcceptedRoles(txCtx, sub.UserID, app.AcceptedRoles); err != nil {
				return services.NewDomainError(services.ErrorTypeInternal, "failed to grant accepted roles", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionSubmissionReviewed, "submission", strconv.FormatInt(sub.ID, 10)).
		WithDetails(map[string]string{"status": string(sub.Status)}))
	s.publish(ctx, events.QueueSubmissionReviewed, events.SubmissionReviewedEvent{
		SubmissionID:  sub.ID,
		ApplicationID: sub.ApplicationID,
		UserID:        sub.UserID,
		ReviewerID:    user.ID,
		Status:        string(sub.Status),
		OccurredAt:    sub.UpdatedAt,
	})

	return sub, nil
}

// grantAcceptedRoles merges the accepted role ids into the submitter's stored
// role set. Role names are unknown here; Discord sync fills them in on the
// next login.
func (s *Service) grantAcceptedRoles(ctx context.Context, userID int64, roleIDs []string) error {
	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	have := access.NewRoleSet(target)
	roles := target.Roles
	for _, id := range roleIDs {
		if id == "" || have.Contains(id) {
			continue
		}
		roles = append(roles, models.RoleReference{ID: id})
	}

	if len(roles) == len(target.Roles) {
		return nil
	}
	return s.userRepo.ReplaceRoles(ctx, userID, roles)
}

// cleanRoleIDs drops empty role ids so they can never satisfy a membership
// check downstream.
func cleanRoleIDs(roleIDs []string) []string {
	out := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
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

func (s *Service) publish(ctx context.Context, queue string, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, queue, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("queue", queue),
			zap.Error(err))
	}
}
