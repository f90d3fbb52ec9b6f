package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user and assigns its generated id
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (discord_id, username, discriminator, avatar, is_admin, is_hub_banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		user.DiscordID,
		user.Username,
		user.Discriminator,
		user.Avatar,
		user.IsAdmin,
		user.IsHubBanned,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if len(user.Roles) > 0 {
		if err := r.ReplaceRoles(ctx, user.ID, user.Roles); err != nil {
			return err
		}
	}

	r.logger.Debug("user created",
		zap.Int64("id", user.ID),
		zap.String("discord_id", user.DiscordID))
	return nil
}

// GetByID retrieves a user by internal id, roles included
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, discord_id, username, discriminator, avatar, is_admin, is_hub_banned, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// GetByDiscordID retrieves a user by Discord snowflake, roles included
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	query := `
		SELECT id, discord_id, username, discriminator, avatar, is_admin, is_hub_banned, created_at, updated_at
		FROM users
		WHERE discord_id = $1
	`
	return r.getOne(ctx, query, discordID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	executor := GetExecutor(ctx, r.db)
	user := &models.User{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.DiscordID,
		&user.Username,
		&user.Discriminator,
		&user.Avatar,
		&user.IsAdmin,
		&user.IsHubBanned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %v", arg)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	roles, err := r.getRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return user, nil
}

func (r *UserRepository) getRoles(ctx context.Context, userID int64) ([]models.RoleReference, error) {
	query := `
		SELECT role_id, role_name
		FROM user_roles
		WHERE user_id = $1
		ORDER BY role_id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]models.RoleReference, 0)
	for rows.Next() {
		var role models.RoleReference
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}

	return roles, nil
}

// List retrieves users ordered by creation time with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT id, discord_id, username, discriminator, avatar, is_admin, is_hub_banned, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.DiscordID,
			&user.Username,
			&user.Discriminator,
			&user.Avatar,
			&user.IsAdmin,
			&user.IsHubBanned,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	executor := GetExecutor(ctx, r.db)
	var count int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Update updates a user's profile fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2,
		    discriminator = $3,
		    avatar = $4,
		    is_admin = $5,
		    updated_at = $6
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Discriminator,
		user.Avatar,
		user.IsAdmin,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %d", user.ID)
	}

	r.logger.Debug("user updated", zap.Int64("id", user.ID))
	return nil
}

// ReplaceRoles replaces the user's stored role set
func (r *UserRepository) ReplaceRoles(ctx context.Context, userID int64, roles []models.RoleReference) error {
	executor := GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user roles: %w", err)
	}

	for _, role := range roles {
		if role.ID == "" {
			continue
		}
		_, err := executor.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id, role_name) VALUES ($1, $2, $3)`,
			userID, role.ID, role.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user role: %w", err)
		}
	}

	r.logger.Debug("user roles replaced",
		zap.Int64("user_id", userID),
		zap.Int("role_count", len(roles)))
	return nil
}

// SetHubBanned flips the hub-ban flag
func (r *UserRepository) SetHubBanned(ctx context.Context, userID int64, banned bool) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE users SET is_hub_banned = $2, updated_at = NOW() WHERE id = $1`,
		userID, banned,
	)
	if err != nil {
		return fmt.Errorf("failed to set hub ban: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %d", userID)
	}

	r.logger.Info("hub ban updated",
		zap.Int64("user_id", userID),
		zap.Bool("banned", banned))
	return nil
}
