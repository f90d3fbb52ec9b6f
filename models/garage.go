package models

import (
	"time"

	"github.com/google/uuid"
)

// GaragePermissionFlag identifies one capability column on a permission row
type GaragePermissionFlag string

const (
	GarageCanViewManager    GaragePermissionFlag = "can_view_manager"
	GarageCanGenerateCodes  GaragePermissionFlag = "can_generate_codes"
	GarageCanDeleteVehicles GaragePermissionFlag = "can_delete_vehicles"
	GarageCanEditVehicles   GaragePermissionFlag = "can_edit_vehicles"
)

// GarageRolePermission is a per-role capability bundle. A user's effective
// garage capabilities are the union across all rows whose RoleID intersects
// the user's role set, or full access for admins.
type GarageRolePermission struct {
	ID                int64     `json:"id" db:"id"`
	RoleID            string    `json:"role_id" db:"role_id"`
	CanViewManager    bool      `json:"can_view_manager" db:"can_view_manager"`
	CanGenerateCodes  bool      `json:"can_generate_codes" db:"can_generate_codes"`
	CanDeleteVehicles bool      `json:"can_delete_vehicles" db:"can_delete_vehicles"`
	CanEditVehicles   bool      `json:"can_edit_vehicles" db:"can_edit_vehicles"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the GarageRolePermission model
func (GarageRolePermission) TableName() string {
	return "garage_role_permissions"
}

// Flag returns the value of the named capability column. Unknown flags are
// false so that a bad flag name can never widen access.
func (p *GarageRolePermission) Flag(flag GaragePermissionFlag) bool {
	switch flag {
	case GarageCanViewManager:
		return p.CanViewManager
	case GarageCanGenerateCodes:
		return p.CanGenerateCodes
	case GarageCanDeleteVehicles:
		return p.CanDeleteVehicles
	case GarageCanEditVehicles:
		return p.CanEditVehicles
	default:
		return false
	}
}

// GarageVehicle represents a vehicle contribution in the garage
type GarageVehicle struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Model     string    `json:"model" db:"model"`
	Plate     string    `json:"plate" db:"plate"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the GarageVehicle model
func (GarageVehicle) TableName() string {
	return "garage_vehicles"
}

// GarageAccessCode is a single-use code granting temporary garage access
type GarageAccessCode struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"`
	GeneratedBy int64      `json:"generated_by" db:"generated_by"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the GarageAccessCode model
func (GarageAccessCode) TableName() string {
	return "garage_access_codes"
}

// NewGarageAccessCode creates a code generated by the given user with a TTL
func NewGarageAccessCode(generatedBy int64, ttl time.Duration) *GarageAccessCode {
	now := time.Now()
	return &GarageAccessCode{
		ID:          uuid.New(),
		Code:        uuid.NewString(),
		GeneratedBy: generatedBy,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
}

// IsExpired returns true when the code is past its expiry
func (c *GarageAccessCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// GarageConfig holds garage-wide settings
type GarageConfig struct {
	ID             int64     `json:"id" db:"id"`
	SubscriptionID string    `json:"subscription_id" db:"subscription_id"`
	MaxVehicles    int       `json:"max_vehicles" db:"max_vehicles"`
	CodeTTLMinutes int       `json:"code_ttl_minutes" db:"code_ttl_minutes"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the GarageConfig model
func (GarageConfig) TableName() string {
	return "garage_config"
}
