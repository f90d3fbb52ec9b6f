package models

import (
	"time"

	"github.com/lib/pq"
)

// Classification distinguishes departments from organizations
type Classification string

const (
	ClassificationDepartment   Classification = "department"
	ClassificationOrganization Classification = "organization"
)

// Department represents a department or organization whose roster visibility
// is gated by intersection of the viewer's roles with RosterViewID, or by
// admin bypass.
type Department struct {
	ID             int64          `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Classification Classification `json:"classification" db:"classification"`
	RosterViewID   pq.StringArray `json:"roster_view_id" db:"roster_view_id"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Department model
func (Department) TableName() string {
	return "departments"
}

// DepartmentMember is a single roster entry
type DepartmentMember struct {
	DepartmentID int64     `json:"department_id" db:"department_id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Rank         string    `json:"rank" db:"rank"`
	JoinedAt     time.Time `json:"joined_at" db:"joined_at"`
}

// TableName returns the table name for the DepartmentMember model
func (DepartmentMember) TableName() string {
	return "department_members"
}
