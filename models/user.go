package models

import "time"

// RoleReference is an externally issued Discord role attached to a user.
// Role identifiers are opaque snowflake strings compared by exact equality.
type RoleReference struct {
	ID   string `json:"id" db:"role_id"`
	Name string `json:"name" db:"role_name"`
}

// User represents a hub member authenticated via Discord OAuth2.
type User struct {
	ID            int64           `json:"id" db:"id"`
	DiscordID     string          `json:"discord_id" db:"discord_id"`
	Username      string          `json:"username" db:"username"`
	Discriminator string          `json:"discriminator" db:"discriminator"`
	Avatar        string          `json:"avatar" db:"avatar"`
	Roles         []RoleReference `json:"roles"`
	IsAdmin       bool            `json:"is_admin" db:"is_admin"`
	IsHubBanned   bool            `json:"is_hub_banned" db:"is_hub_banned"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance from Discord identity data
func NewUser(discordID, username, discriminator, avatar string) *User {
	now := time.Now()
	return &User{
		DiscordID:     discordID,
		Username:      username,
		Discriminator: discriminator,
		Avatar:        avatar,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RoleIDs returns the raw role identifiers held by the user
func (u *User) RoleIDs() []string {
	ids := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}
