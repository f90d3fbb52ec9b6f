package tickets

import (
	"context"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	if args.Error(0) == nil {
		ticket.ID = 1
	}
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Ticket, error) {
	args := m.Called(ctx, userID)
	if t := args.Get(0); t != nil {
		return t.([]*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketRepository) ListByCategories(ctx context.Context, categoryIDs []int64) ([]*models.Ticket, error) {
	args := m.Called(ctx, categoryIDs)
	if t := args.Get(0); t != nil {
		return t.([]*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) GetParticipants(ctx context.Context, ticketID int64) ([]models.TicketParticipant, error) {
	args := m.Called(ctx, ticketID)
	if p := args.Get(0); p != nil {
		return p.([]models.TicketParticipant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketRepository) AddParticipant(ctx context.Context, participant *models.TicketParticipant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockTicketRepository) AddMessage(ctx context.Context, message *models.TicketMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockTicketRepository) GetMessages(ctx context.Context, ticketID int64) ([]models.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.TicketMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCategoryRepository) GetAll(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]*models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
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
