// Package tickets implements the support ticket workflows. Every operation
// resolves the caller's capabilities for the target ticket before mutating
// anything; a capability the resolver did not grant is a forbidden error, not
// a silent no-op.
package tickets

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

// Service implements ticket operations
type Service struct {
	ticketRepo   repositories.TicketRepository
	categoryRepo repositories.CategoryRepository
	userRepo     repositories.UserRepository
	txMgr        repositories.TransactionManager
	auditor      Recorder
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewService creates a new ticket service
func NewService(
	ticketRepo repositories.TicketRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
	txMgr repositories.TransactionManager,
	auditor Recorder,
	publisher events.Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		ticketRepo:   ticketRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		txMgr:        txMgr,
		auditor:      auditor,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateInput is the payload for opening a ticket
type CreateInput struct {
	CategoryID int64  `json:"category_id" validate:"required"`
	Subject    string `json:"subject" validate:"required,max=200"`
	Body       string `json:"body" validate:"max=4000"`
}

// View bundles a ticket with its participants and the viewer's resolved
// capabilities, so the front end renders from the same decision the API
// enforces.
type View struct {
	Ticket       *models.Ticket             `json:"ticket"`
	Participants []models.TicketParticipant `json:"participants"`
	Capabilities access.TicketCapabilities  `json:"capabilities"`
}

// Create opens a new ticket in the given category. Restricted categories only
// accept tickets from admins and holders of the category's required role.
func (s *Service) Create(ctx context.Context, user *models.User, input CreateInput) (*models.Ticket, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	category, err := s.categoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "category not found", err)
	}

	if category.IsRestricted && !access.CanAccessSupportCategory(user, category) {
		return nil, services.ErrForbidden
	}

	now := time.Now()
	ticket := &models.Ticket{
		CategoryID: category.ID,
		UserID:     user.ID,
		Subject:    input.Subject,
		Status:     models.TicketStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The ticket row and its opening message land together or not at all.
	err = services.WithTransaction(ctx, s.txMgr, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.ticketRepo.Create(txCtx, ticket); err != nil {
			return services.NewDomainError(services.ErrorTypeInternal, "failed to create ticket", err)
		}
		if input.Body != "" {
			message := &models.TicketMessage{
				TicketID:  ticket.ID,
				UserID:    user.ID,
				Body:      input.Body,
				CreatedAt: now,
			}
			if err := s.ticketRepo.AddMessage(txCtx, message); err != nil {
				return services.NewDomainError(services.ErrorTypeInternal, "failed to store opening message", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ticket.Category = category

	s.record(models.NewAuditLog(user.ID, models.AuditActionTicketCreated, "ticket", itoa(ticket.ID)))
	s.publish(ctx, events.QueueTicketCreated, events.TicketEvent{
		TicketID:   ticket.ID,
		CategoryID: ticket.CategoryID,
		UserID:     ticket.UserID,
		ActorID:    user.ID,
		OccurredAt: now,
	})

	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("user_id", user.ID),
		zap.Int64("category_id", category.ID))

	return ticket, nil
}

// Get returns the ticket view for the caller, or forbidden when the resolver
// grants no access.
func (s *Service) Get(ctx context.Context, user *models.User, ticketID int64) (*View, error) {
	return s.load(ctx, user, ticketID)
}

// ListMine returns tickets the user owns or was shared into
func (s *Service) ListMine(ctx context.Context, user *models.User) ([]*models.Ticket, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	tickets, err := s.ticketRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list tickets", err)
	}
	return tickets, nil
}

// ListSupportQueue returns open tickets in every category where the user has
// support access. Users with no qualifying category get an empty queue, not
// an error.
func (s *Service) ListSupportQueue(ctx context.Context, user *models.User) ([]*models.Ticket, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list categories", err)
	}

	var categoryIDs []int64
	for _, category := range categories {
		if access.CanAccessSupportCategory(user, category) {
			categoryIDs = append(categoryIDs, category.ID)
		}
	}
	if len(categoryIDs) == 0 {
		return []*models.Ticket{}, nil
	}

	tickets, err := s.ticketRepo.ListByCategories(ctx, categoryIDs)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list tickets", err)
	}
	return tickets, nil
}

// Claim marks the ticket as claimed by the caller
func (s *Service) Claim(ctx context.Context, user *models.User, ticketID int64) (*View, error) {
	view, err := s.load(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}

	if !view.Capabilities.CanClaim {
		if view.Ticket.ClaimedBy != nil {
			return nil, services.ErrAlreadyClaimed
		}
		if view.Ticket.IsClosed() {
			return nil, services.ErrTicketClosed
		}
		return nil, services.ErrForbidden
	}

	view.Ticket.ClaimedBy = &user.ID
	if err := s.update(ctx, view.Ticket); err != nil {
		return nil, err
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionTicketClaimed, "ticket", itoa(ticketID)))
	return s.refresh(user, view), nil
}

// Transfer assigns the ticket to another user
func (s *Service) Transfer(ctx context.Context, user *models.User, ticketID, toUserID int64) (*View, error) {
	view, err := s.load(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}

	if !view.Capabilities.CanTransfer {
		return nil, services.ErrForbidden
	}

	target, err := s.userRepo.GetByID(ctx, toUserID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "transfer target not found", err)
	}

	view.Ticket.AssignedTo = &target.ID
	view.Ticket.ClaimedBy = nil
	if err := s.update(ctx, view.Ticket); err != nil {
		return nil, err
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionTicketTransferred, "ticket", itoa(ticketID)).
		WithDetails(map[string]int64{"to_user_id": target.ID}))
	return s.refresh(user, view), nil
}

// Close closes the ticket. Owners and participants may close their own
// tickets even without support standing.
func (s *Service) Close(ctx context.Context, user *models.User, ticketID int64) (*View, error) {
	view, err := s.load(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}

	if !view.Capabilities.CanClose {
		return nil, services.ErrForbidden
	}
	if view.Ticket.IsClosed() {
		return nil, services.ErrTicketClosed
	}

	now := time.Now()
	view.Ticket.Status = models.TicketStatusClosed
	view.Ticket.ClosedAt = &now
	if err := s.update(ctx, view.Ticket); err != nil {
		return nil, err
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionTicketClosed, "ticket", itoa(ticketID)))
	s.publish(ctx, events.QueueTicketClosed, events.TicketEvent{
		TicketID:   view.Ticket.ID,
		CategoryID: view.Ticket.CategoryID,
		UserID:     view.Ticket.UserID,
		ActorID:    user.ID,
		OccurredAt: now,
	})

	return s.refresh(user, view), nil
}

// Reopen reopens a closed ticket. Support standing is required; owners cannot
// reopen their own closed tickets.
func (s *Service) Reopen(ctx context.Context, user *models.User, ticketID int64) (*View, error) {
	view, err := s.load(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}

	if !view.Capabilities.CanReopen {
		if !view.Ticket.IsClosed() {
			return nil, services.ErrTicketNotClosed
		}
		return nil, services.ErrForbidden
	}

	view.Ticket.Status = models.TicketStatusOpen
	view.Ticket.ClosedAt = nil
	if err := s.update(ctx, view.Ticket); err != nil {
		return nil, err
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionTicketReopened, "ticket", itoa(ticketID)))
	return s.refresh(user, view), nil
}

// AddParticipant shares the ticket with another user
func (s *Service) AddParticipant(ctx context.Context, user *models.User, ticketID, participantID int64) error {
	view, err := s.load(ctx, user, ticketID)
	if err != nil {
		return err
	}

	if !view.Capabilities.CanAddParticipants {
		return services.ErrForbidden
	}

	target, err := s.userRepo.GetByID(ctx, participantID)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeNotFound, "participant not found", err)
	}

	participant := &models.TicketParticipant{
		TicketID: ticketID,
		UserID:   target.ID,
		AddedBy:  user.ID,
		AddedAt:  time.Now(),
	}
	if err := s.ticketRepo.AddParticipant(ctx, participant); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to add participant", err)
	}

	s.record(models.NewAuditLog(user.ID, models.AuditActionParticipantAdded, "ticket", itoa(ticketID)).
		WithDetails(map[string]int64{"participant_id": target.ID}))
	return nil
}

// PostMessage appends a message to an open ticket the caller can view
func (s *Service) PostMessage(ctx context.Context, user *models.User, ticketID int64, body string) (*models.TicketMessage, error) {
	view, err := s.load(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}

	if view.Ticket.IsClosed() {
		return nil, services.ErrTicketClosed
	}

	message := &models.TicketMessage{
		TicketID:  ticketID,
		UserID:    user.ID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.ticketRepo.AddMessage(ctx, message); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to post message", err)
	}

	return message, nil
}

// Messages returns the ticket's messages for a caller with view access
func (s *Service) Messages(ctx context.Context, user *models.User, ticketID int64) ([]models.TicketMessage, error) {
	if _, err := s.load(ctx, user, ticketID); err != nil {
		return nil, err
	}

	messages, err := s.ticketRepo.GetMessages(ctx, ticketID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list messages", err)
	}
	return messages, nil
}

// load fetches the ticket with participants and resolves the caller's
// capabilities. No view capability means forbidden regardless of whether the
// ticket exists.
func (s *Service) load(ctx context.Context, user *models.User, ticketID int64) (*View, error) {
	if user == nil {
		return nil, services.ErrUnauthorized
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "ticket not found", err)
	}

	participants, err := s.ticketRepo.GetParticipants(ctx, ticketID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to load participants", err)
	}

	capabilities := access.ResolveTicket(user, ticket, participants)
	if !capabilities.CanView {
		return nil, services.ErrForbidden
	}

	return &View{
		Ticket:       ticket,
		Participants: participants,
		Capabilities: capabilities,
	}, nil
}

func (s *Service) update(ctx context.Context, ticket *models.Ticket) error {
	ticket.UpdatedAt = time.Now()
	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to update ticket", err)
	}
	return nil
}

// refresh recomputes capabilities after a mutation so the returned view
// matches the new ticket state.
func (s *Service) refresh(user *models.User, view *View) *View {
	view.Capabilities = access.ResolveTicket(user, view.Ticket, view.Participants)
	return view
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

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
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
