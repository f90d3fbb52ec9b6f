package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionTicketCreated      AuditAction = "ticket_created"
	AuditActionTicketClaimed      AuditAction = "ticket_claimed"
	AuditActionTicketTransferred  AuditAction = "ticket_transferred"
	AuditActionTicketClosed       AuditAction = "ticket_closed"
	AuditActionTicketReopened     AuditAction = "ticket_reopened"
	AuditActionParticipantAdded   AuditAction = "participant_added"
	AuditActionSubmissionReviewed AuditAction = "submission_reviewed"
	AuditActionCategoryCreated    AuditAction = "category_created"
	AuditActionCategoryUpdated    AuditAction = "category_updated"
	AuditActionCategoryDeleted    AuditAction = "category_deleted"
	AuditActionGarageCodeIssued   AuditAction = "garage_code_issued"
	AuditActionUserBanned         AuditAction = "user_banned"
	AuditActionUserUnbanned       AuditAction = "user_unbanned"
	AuditActionRoleToggled        AuditAction = "role_toggled"
)

// AuditLog represents an audit trail entry for a privileged action
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ActorID      int64           `json:"actor_id" db:"actor_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // ticket, category, user, etc.
	ResourceID   string          `json:"resource_id" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(actorID int64, action AuditAction, resourceType, resourceID string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    time.Now(),
	}
}

// WithDetails sets the details payload
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	return a
}
