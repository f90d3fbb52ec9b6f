package applications

import (
	"context"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/stretchr/testify/mock"
)

// MockApplicationRepository is a mock implementation of ApplicationRepository
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	args := m.Called(ctx, app)
	if args.Error(0) == nil {
		app.ID = 1
	}
	return args.Error(0)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Application), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationRepository) GetAll(ctx context.Context, activeOnly bool) ([]*models.Application, error) {
	args := m.Called(ctx, activeOnly)
	if a := args.Get(0); a != nil {
		return a.([]*models.Application), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	args := m.Called(ctx, sub)
	if args.Error(0) == nil {
		sub.ID = 1
	}
	return args.Error(0)
}

func (m *MockApplicationRepository) GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationRepository) GetSubmissions(ctx context.Context, applicationID int64) ([]*models.Submission, error) {
	args := m.Called(ctx, applicationID)
	if s := args.Get(0); s != nil {
		return s.([]*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationRepository) GetPendingSubmission(ctx context.Context, applicationID, userID int64) (*models.Submission, error) {
	args := m.Called(ctx, applicationID, userID)
	if s := args.Get(0); s != nil {
		return s.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationRepository) UpdateSubmission(ctx context.Context, sub *models.Submission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ReplaceRoles(ctx context.Context, userID int64, roles []models.RoleReference) error {
	args := m.Called(ctx, userID, roles)
	return args.Error(0)
}

func (m *MockUserRepository) SetHubBanned(ctx context.Context, userID int64, banned bool) error {
	args := m.Called(ctx, userID, banned)
	return args.Error(0)
}

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(log *models.AuditLog) error {
	args := m.Called(log)
	return args.Error(0)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, queue string, event interface{}) error {
	args := m.Called(ctx, queue, event)
	return args.Error(0)
}

// passthroughTxManager runs transactional callbacks inline so service tests
// exercise the unit-of-work boundaries without a database.
type passthroughTxManager struct{}

func (passthroughTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return noopTransaction{}, nil
}

func (passthroughTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, noopTransaction{})
}

type noopTransaction struct{}

func (noopTransaction) Commit() error            { return nil }
func (noopTransaction) Rollback() error          { return nil }
func (noopTransaction) Context() context.Context { return context.Background() }
