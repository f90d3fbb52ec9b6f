package models

import "time"

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// Ticket represents a support ticket. Access is granted to its owner, any
// explicit participant, the assigned user, the claiming user, and support
// members of its category, independent of each other.
type Ticket struct {
	ID         int64        `json:"id" db:"id"`
	CategoryID int64        `json:"category_id" db:"category_id"`
	UserID     int64        `json:"user_id" db:"user_id"`
	Subject    string       `json:"subject" db:"subject"`
	Status     TicketStatus `json:"status" db:"status"`
	AssignedTo *int64       `json:"assigned_to,omitempty" db:"assigned_to"`
	ClaimedBy  *int64       `json:"claimed_by,omitempty" db:"claimed_by"`
	ClosedAt   *time.Time   `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`

	// Category is the resolved category row, populated on reads that join it.
	Category *Category `json:"category,omitempty"`
}

// TableName returns the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// IsClosed returns true when the ticket has been closed
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// TicketParticipant is a user explicitly added to a ticket's access list
// without holding a qualifying role.
type TicketParticipant struct {
	TicketID int64     `json:"ticket_id" db:"ticket_id"`
	UserID   int64     `json:"user_id" db:"user_id"`
	AddedBy  int64     `json:"added_by" db:"added_by"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}

// TableName returns the table name for the TicketParticipant model
func (TicketParticipant) TableName() string {
	return "ticket_participants"
}

// TicketMessage is a single message posted to a ticket
type TicketMessage struct {
	ID        int64     `json:"id" db:"id"`
	TicketID  int64     `json:"ticket_id" db:"ticket_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the TicketMessage model
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
