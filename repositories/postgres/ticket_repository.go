package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"go.uber.org/zap"
)

// TicketRepository implements the repositories.TicketRepository interface
type TicketRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *DB, logger *zap.Logger) repositories.TicketRepository {
	return &TicketRepository{
		db:     db,
		logger: logger,
	}
}

const ticketColumns = `
	t.id, t.category_id, t.user_id, t.subject, t.status, t.assigned_to, t.claimed_by, t.closed_at, t.created_at, t.updated_at,
	c.id, c.name, c.color, c.required_role_id, c.is_restricted, c.created_at, c.updated_at
`

// Create creates a new ticket and assigns its generated id
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (category_id, user_id, subject, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		ticket.CategoryID,
		ticket.UserID,
		ticket.Subject,
		ticket.Status,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)

	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	r.logger.Debug("ticket created",
		zap.Int64("id", ticket.ID),
		zap.Int64("user_id", ticket.UserID))
	return nil
}

// GetByID retrieves a ticket with its category joined
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1
	`

	executor := GetExecutor(ctx, r.db)
	ticket, err := scanTicket(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ticket not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return ticket, nil
}

// ListByUser retrieves tickets owned by or shared with the user
func (r *TicketRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Ticket, error) {
	query := `
		SELECT DISTINCT ` + ticketColumns + `
		FROM tickets t
		JOIN categories c ON c.id = t.category_id
		LEFT JOIN ticket_participants tp ON tp.ticket_id = t.id
		WHERE t.user_id = $1 OR tp.user_id = $1 OR t.assigned_to = $1 OR t.claimed_by = $1
		ORDER BY t.created_at DESC
	`
	return r.list(ctx, query, userID)
}

// ListByCategories retrieves open tickets in any of the given categories
func (r *TicketRepository) ListByCategories(ctx context.Context, categoryIDs []int64) ([]*models.Ticket, error) {
	if len(categoryIDs) == 0 {
		return []*models.Ticket{}, nil
	}

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN categories c ON c.id = t.category_id
		WHERE t.category_id = ANY($1) AND t.status = 'open'
		ORDER BY t.created_at DESC
	`
	return r.list(ctx, query, pq.Array(categoryIDs))
}

func (r *TicketRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Ticket, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket rows: %w", err)
	}

	return tickets, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(s scanner) (*models.Ticket, error) {
	ticket := &models.Ticket{Category: &models.Category{}}
	err := s.Scan(
		&ticket.ID,
		&ticket.CategoryID,
		&ticket.UserID,
		&ticket.Subject,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.ClaimedBy,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Category.ID,
		&ticket.Category.Name,
		&ticket.Category.Color,
		&ticket.Category.RequiredRoleID,
		&ticket.Category.IsRestricted,
		&ticket.Category.CreatedAt,
		&ticket.Category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update persists mutable ticket fields (status, assignment, claim)
func (r *TicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $2,
		    assigned_to = $3,
		    claimed_by = $4,
		    closed_at = $5,
		    updated_at = $6
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		ticket.ID,
		ticket.Status,
		ticket.AssignedTo,
		ticket.ClaimedBy,
		ticket.ClosedAt,
		ticket.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ticket not found: %d", ticket.ID)
	}

	r.logger.Debug("ticket updated",
		zap.Int64("id", ticket.ID),
		zap.String("status", string(ticket.Status)))
	return nil
}

// GetParticipants retrieves the ticket's explicit participants
func (r *TicketRepository) GetParticipants(ctx context.Context, ticketID int64) ([]models.TicketParticipant, error) {
	query := `
		SELECT ticket_id, user_id, added_by, added_at
		FROM ticket_participants
		WHERE ticket_id = $1
		ORDER BY added_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.TicketParticipant, 0)
	for rows.Next() {
		var p models.TicketParticipant
		if err := rows.Scan(&p.TicketID, &p.UserID, &p.AddedBy, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}

	return participants, nil
}

// AddParticipant adds a user to the ticket's access list
func (r *TicketRepository) AddParticipant(ctx context.Context, participant *models.TicketParticipant) error {
	query := `
		INSERT INTO ticket_participants (ticket_id, user_id, added_by, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticket_id, user_id) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		participant.TicketID,
		participant.UserID,
		participant.AddedBy,
		participant.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}

	r.logger.Debug("participant added",
		zap.Int64("ticket_id", participant.TicketID),
		zap.Int64("user_id", participant.UserID))
	return nil
}

// AddMessage appends a message to the ticket
func (r *TicketRepository) AddMessage(ctx context.Context, message *models.TicketMessage) error {
	query := `
		INSERT INTO ticket_messages (ticket_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		message.TicketID,
		message.UserID,
		message.Body,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	return nil
}

// GetMessages retrieves the ticket's messages in posting order
func (r *TicketRepository) GetMessages(ctx context.Context, ticketID int64) ([]models.TicketMessage, error) {
	query := `
		SELECT id, ticket_id, user_id, body, created_at
		FROM ticket_messages
		WHERE ticket_id = $1
		ORDER BY created_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.TicketMessage, 0)
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}
