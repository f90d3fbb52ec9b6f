package models

import "time"

// Category represents a ticket category. A category grants support access to
// any user whose role set contains RequiredRoleID, or to admins unconditionally.
// An empty RequiredRoleID means the category is not role-gated; it does not
// mean everyone qualifies as support.
type Category struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Color          string    `json:"color" db:"color"`
	RequiredRoleID string    `json:"required_role_id,omitempty" db:"required_role_id"`
	IsRestricted   bool      `json:"is_restricted" db:"is_restricted"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
