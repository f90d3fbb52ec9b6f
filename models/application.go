package models

import (
	"encoding/json"
	"time"
)

// Question is a single prompt on an application form
type Question struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"` // text, textarea, select
	Required bool   `json:"required"`
}

// Application represents a role application form. It defines three access
// tiers: applicant (anyone), moderator (ModeratorRoleID member, may view
// submissions), and admin (AdminRoleID member or global admin, may edit the
// form and review submissions).
type Application struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	AdminRoleID     string          `json:"admin_role_id,omitempty" db:"admin_role_id"`
	ModeratorRoleID string          `json:"moderator_role_id,omitempty" db:"moderator_role_id"`
	AcceptedRoles   []string        `json:"accepted_roles"`
	Questions       []Question      `json:"questions"`
	RawQuestions    json.RawMessage `json:"-" db:"questions"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Application model
func (Application) TableName() string {
	return "applications"
}

// SubmissionStatus represents the review state of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusDenied   SubmissionStatus = "denied"
)

// Submission represents a user's answers to an application form
type Submission struct {
	ID            int64             `json:"id" db:"id"`
	ApplicationID int64             `json:"application_id" db:"application_id"`
	UserID        int64             `json:"user_id" db:"user_id"`
	Responses     map[string]string `json:"responses"`
	RawResponses  json.RawMessage   `json:"-" db:"responses"`
	Status        SubmissionStatus  `json:"status" db:"status"`
	ReviewedBy    *int64            `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewNote    string            `json:"review_note,omitempty" db:"review_note"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Submission model
func (Submission) TableName() string {
	return "application_submissions"
}

// IsPending returns true when the submission has not been reviewed yet
func (s *Submission) IsPending() bool {
	return s.Status == SubmissionStatusPending
}
