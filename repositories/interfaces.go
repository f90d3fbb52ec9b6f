package repositories

import (
	"context"
	"time"

	"github.com/otisthings/hub-sub000/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user and assigns its generated id
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by internal id, roles included
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByDiscordID retrieves a user by Discord snowflake, roles included
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)

	// List retrieves users ordered by creation time with pagination
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Count returns the total number of users
	Count(ctx context.Context) (int, error)

	// Update updates a user's profile fields
	Update(ctx context.Context, user *models.User) error

	// ReplaceRoles replaces the user's stored role set
	ReplaceRoles(ctx context.Context, userID int64, roles []models.RoleReference) error

	// SetHubBanned flips the hub-ban flag
	SetHubBanned(ctx context.Context, userID int64, banned bool) error
}

// CategoryRepository handles ticket category data operations
type CategoryRepository interface {
	// Create creates a new category and assigns its generated id
	Create(ctx context.Context, category *models.Category) error

	// GetByID retrieves a category by id
	GetByID(ctx context.Context, id int64) (*models.Category, error)

	// GetAll retrieves all categories
	GetAll(ctx context.Context) ([]*models.Category, error)

	// Update updates a category
	Update(ctx context.Context, category *models.Category) error

	// Delete deletes a category
	Delete(ctx context.Context, id int64) error
}

// TicketRepository handles ticket data operations
type TicketRepository interface {
	// Create creates a new ticket and assigns its generated id
	Create(ctx context.Context, ticket *models.Ticket) error

	// GetByID retrieves a ticket with its category joined
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)

	// ListByUser retrieves tickets owned by or shared with the user
	ListByUser(ctx context.Context, userID int64) ([]*models.Ticket, error)

	// ListByCategories retrieves open tickets in any of the given categories
	ListByCategories(ctx context.Context, categoryIDs []int64) ([]*models.Ticket, error)

	// Update persists mutable ticket fields (status, assignment, claim)
	Update(ctx context.Context, ticket *models.Ticket) error

	// GetParticipants retrieves the ticket's explicit participants
	GetParticipants(ctx context.Context, ticketID int64) ([]models.TicketParticipant, error)

	// AddParticipant adds a user to the ticket's access list
	AddParticipant(ctx context.Context, participant *models.TicketParticipant) error

	// AddMessage appends a message to the ticket
	AddMessage(ctx context.Context, message *models.TicketMessage) error

	// GetMessages retrieves the ticket's messages in posting order
	GetMessages(ctx context.Context, ticketID int64) ([]models.TicketMessage, error)
}

// ApplicationRepository handles application form and submission data operations
type ApplicationRepository interface {
	// Create creates a new application form and assigns its generated id
	Create(ctx context.Context, app *models.Application) error

	// GetByID retrieves an application by id
	GetByID(ctx context.Context, id int64) (*models.Application, error)

	// GetAll retrieves application forms, optionally only active ones
	GetAll(ctx context.Context, activeOnly bool) ([]*models.Application, error)

	// Update updates an application form
	Update(ctx context.Context, app *models.Application) error

	// CreateSubmission stores a new submission and assigns its generated id
	CreateSubmission(ctx context.Context, sub *models.Submission) error

	// GetSubmissionByID retrieves a submission by id
	GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error)

	// GetSubmissions retrieves submissions for an application form
	GetSubmissions(ctx context.Context, applicationID int64) ([]*models.Submission, error)

	// GetPendingSubmission retrieves the user's pending submission for a form, if any
	GetPendingSubmission(ctx context.Context, applicationID, userID int64) (*models.Submission, error)

	// UpdateSubmission persists review state changes
	UpdateSubmission(ctx context.Context, sub *models.Submission) error
}

// GarageRepository handles garage data operations
type GarageRepository interface {
	// CreateVehicle stores a new vehicle and assigns its generated id
	CreateVehicle(ctx context.Context, vehicle *models.GarageVehicle) error

	// GetVehicleByID retrieves a vehicle by id
	GetVehicleByID(ctx context.Context, id int64) (*models.GarageVehicle, error)

	// ListVehicles retrieves all vehicles
	ListVehicles(ctx context.Context) ([]*models.GarageVehicle, error)

	// UpdateVehicle updates a vehicle
	UpdateVehicle(ctx context.Context, vehicle *models.GarageVehicle) error

	// DeleteVehicle deletes a vehicle
	DeleteVehicle(ctx context.Context, id int64) error

	// GetPermissions retrieves all garage role permission rows
	GetPermissions(ctx context.Context) ([]models.GarageRolePermission, error)

	// UpsertPermission creates or updates the permission row for a role
	UpsertPermission(ctx context.Context, perm *models.GarageRolePermission) error

	// CreateAccessCode stores a generated access code
	CreateAccessCode(ctx context.Context, code *models.GarageAccessCode) error

	// GetConfig retrieves the garage configuration
	GetConfig(ctx context.Context) (*models.GarageConfig, error)

	// UpdateConfig updates the garage configuration
	UpdateConfig(ctx context.Context, cfg *models.GarageConfig) error
}

// DepartmentRepository handles department and roster data operations
type DepartmentRepository interface {
	// GetByID retrieves a department by id
	GetByID(ctx context.Context, id int64) (*models.Department, error)

	// GetByClassification retrieves departments of the given classification
	GetByClassification(ctx context.Context, classification models.Classification) ([]*models.Department, error)

	// GetRoster retrieves the department's roster members
	GetRoster(ctx context.Context, departmentID int64) ([]models.DepartmentMember, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// ListByActor retrieves audit logs for an actor with pagination
	ListByActor(ctx context.Context, actorID int64, limit, offset int) ([]*models.AuditLog, error)

	// ListByDateRange retrieves audit logs within a date range
	ListByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	Users        UserRepository
	Categories   CategoryRepository
	Tickets      TicketRepository
	Applications ApplicationRepository
	Garage       GarageRepository
	Departments  DepartmentRepository
	AuditLogs    AuditRepository
}
