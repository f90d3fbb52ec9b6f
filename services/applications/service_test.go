package applications

import (
	"context"
	"errors"
	"testing"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/services"
	"github.com/otisthings/hub-sub000/services/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminRoleID = "555000000000000010"
	modRoleID   = "555000000000000011"
)

func userWithRoles(id int64, roleIDs ...string) *models.User {
	user := &models.User{ID: id, Username: "user"}
	for _, rid := range roleIDs {
		user.Roles = append(user.Roles, models.RoleReference{ID: rid})
	}
	return user
}

func activeForm() *models.Application {
	return &models.Application{
		ID:              5,
		Name:            "Staff Application",
		AdminRoleID:     adminRoleID,
		ModeratorRoleID: modRoleID,
		AcceptedRoles:   []string{"555000000000000020"},
		Questions: []models.Question{
			{ID: "q1", Label: "Why?", Required: true},
			{ID: "q2", Label: "Anything else?", Required: false},
		},
		IsActive: true,
	}
}

func newTestService(appRepo *MockApplicationRepository, userRepo *MockUserRepository) (*Service, *MockPublisher) {
	auditor := &MockRecorder{}
	auditor.On("Record", mock.Anything).Return(nil).Maybe()
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewService(appRepo, userRepo, passthroughTxManager{}, auditor, publisher, zap.NewNop()), publisher
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending submission", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)
		appRepo.On("GetPendingSubmission", ctx, int64(5), int64(7)).Return(nil, nil)
		appRepo.On("CreateSubmission", ctx, mock.Anything).Return(nil)

		sub, err := svc.Submit(ctx, userWithRoles(7), 5, map[string]string{"q1": "because"})
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusPending, sub.Status)
		assert.True(t, sub.IsPending())
	})

	t.Run("inactive form rejects submissions", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		form := activeForm()
		form.IsActive = false
		appRepo.On("GetByID", ctx, int64(5)).Return(form, nil)

		_, err := svc.Submit(ctx, userWithRoles(7), 5, map[string]string{"q1": "because"})
		assert.True(t, errors.Is(err, services.ErrFormInactive))
	})

	t.Run("missing required response", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)

		_, err := svc.Submit(ctx, userWithRoles(7), 5, map[string]string{"q2": "optional only"})
		assert.True(t, errors.Is(err, services.ErrMissingResponse))
	})

	t.Run("one pending submission per user per form", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)
		appRepo.On("GetPendingSubmission", ctx, int64(5), int64(7)).
			Return(&models.Submission{ID: 9, Status: models.SubmissionStatusPending}, nil)

		_, err := svc.Submit(ctx, userWithRoles(7), 5, map[string]string{"q1": "because"})
		assert.True(t, errors.Is(err, services.ErrPendingSubmission))
	})
}

func TestService_ListSubmissions(t *testing.T) {
	ctx := context.Background()

	t.Run("moderator tier may view", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)
		appRepo.On("GetSubmissions", ctx, int64(5)).Return([]*models.Submission{{ID: 9}}, nil)

		subs, err := svc.ListSubmissions(ctx, userWithRoles(7, modRoleID), 5)
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})

	t.Run("submitter tier may not", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)

		_, err := svc.ListSubmissions(ctx, userWithRoles(7), 5)
		assert.True(t, errors.Is(err, services.ErrForbidden))
	})
}

func TestService_Review(t *testing.T) {
	ctx := context.Background()

	pendingSubmission := func() *models.Submission {
		return &models.Submission{
			ID:            9,
			ApplicationID: 5,
			UserID:        7,
			Status:        models.SubmissionStatusPending,
		}
	}

	t.Run("approval grants accepted roles", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		userRepo := &MockUserRepository{}
		svc, publisher := newTestService(appRepo, userRepo)

		appRepo.On("GetSubmissionByID", ctx, int64(9)).Return(pendingSubmission(), nil)
		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)
		appRepo.On("UpdateSubmission", ctx, mock.Anything).Return(nil)
		userRepo.On("GetByID", ctx, int64(7)).Return(userWithRoles(7), nil)
		userRepo.On("ReplaceRoles", ctx, int64(7), mock.MatchedBy(func(roles []models.RoleReference) bool {
			for _, r := range roles {
				if r.ID == "555000000000000020" {
					return true
				}
			}
			return false
		})).Return(nil)

		sub, err := svc.Review(ctx, userWithRoles(20, adminRoleID), 9, true, "welcome aboard")
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusApproved, sub.Status)
		require.NotNil(t, sub.ReviewedBy)
		assert.Equal(t, int64(20), *sub.ReviewedBy)

		userRepo.AssertExpectations(t)
		publisher.AssertCalled(t, "Publish", ctx, events.QueueSubmissionReviewed, mock.Anything)
	})

	t.Run("denial leaves roles untouched", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		userRepo := &MockUserRepository{}
		svc, _ := newTestService(appRepo, userRepo)

		appRepo.On("GetSubmissionByID", ctx, int64(9)).Return(pendingSubmission(), nil)
		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)
		appRepo.On("UpdateSubmission", ctx, mock.Anything).Return(nil)

		sub, err := svc.Review(ctx, userWithRoles(20, adminRoleID), 9, false, "not this time")
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusDenied, sub.Status)
		userRepo.AssertNotCalled(t, "ReplaceRoles", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("role grant failure fails the review", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		userRepo := &MockUserRepository{}
		svc, publisher := newTestService(appRepo, userRepo)

		appRepo.On("GetSubmissionByID", ctx, int64(9)).Return(pendingSubmission(), nil)
		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)
		appRepo.On("UpdateSubmission", ctx, mock.Anything).Return(nil)
		userRepo.On("GetByID", ctx, int64(7)).Return(userWithRoles(7), nil)
		userRepo.On("ReplaceRoles", ctx, int64(7), mock.Anything).Return(errors.New("connection reset"))

		_, err := svc.Review(ctx, userWithRoles(20, adminRoleID), 9, true, "welcome aboard")
		require.Error(t, err)
		assert.True(t, services.IsInternalError(err))
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("moderator tier cannot review", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		appRepo.On("GetSubmissionByID", ctx, int64(9)).Return(pendingSubmission(), nil)
		appRepo.On("GetByID", ctx, int64(5)).Return(activeForm(), nil)

		_, err := svc.Review(ctx, userWithRoles(20, modRoleID), 9, true, "")
		assert.True(t, errors.Is(err, services.ErrForbidden))
	})

	t.Run("reviewed submission cannot be reviewed again", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		sub := pendingSubmission()
		sub.Status = models.SubmissionStatusApproved
		appRepo.On("GetSubmissionByID", ctx, int64(9)).Return(sub, nil)

		_, err := svc.Review(ctx, userWithRoles(20, adminRoleID), 9, false, "")
		assert.True(t, errors.Is(err, services.ErrAlreadyReviewed))
	})
}

func TestService_ListForms(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive forms hidden from submitters", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		inactive := activeForm()
		inactive.ID = 6
		inactive.IsActive = false
		appRepo.On("GetAll", ctx, false).Return([]*models.Application{activeForm(), inactive}, nil)

		views, err := svc.ListForms(ctx, userWithRoles(7))
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, int64(5), views[0].Application.ID)
		assert.True(t, views[0].Capabilities.CanSubmit)
	})

	t.Run("managers see inactive forms", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		inactive := activeForm()
		inactive.IsActive = false
		appRepo.On("GetAll", ctx, false).Return([]*models.Application{inactive}, nil)

		views, err := svc.ListForms(ctx, userWithRoles(7, modRoleID))
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.False(t, views[0].Capabilities.CanSubmit)
	})
}

func TestService_CreateForm(t *testing.T) {
	ctx := context.Background()

	t.Run("admins only", func(t *testing.T) {
		appRepo := &MockApplicationRepository{}
		svc, _ := newTestService(appRepo, &MockUserRepository{})

		_, err := svc.CreateForm(ctx, userWithRoles(7, adminRoleID), FormInput{Name: "x"})
		assert.True(t, errors.Is(err, services.ErrForbidden))

		appRepo.On("Create", ctx, mock.Anything).Return(nil)
		admin := userWithRoles(8)
		admin.IsAdmin = true
		app, err := svc.CreateForm(ctx, admin, FormInput{
			Name:          "Staff Application",
			AcceptedRoles: []string{"", "555000000000000020"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"555000000000000020"}, app.AcceptedRoles)
	})
}
