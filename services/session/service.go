// Package session implements the session token and identity layer. Tokens are
// HS256 JWTs minted after the Discord OAuth callback; resolved users are
// cached in Redis so repeated requests avoid a Postgres round trip. Cache
// failures fall through to the database; token failures always fail closed.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Claims are the session token claims. Subject carries the internal user id.
type Claims struct {
	jwt.RegisteredClaims
	DiscordID string `json:"discord_id"`
}

// Config holds session service configuration
type Config struct {
	Secret   string
	TokenTTL time.Duration
	CacheTTL time.Duration
}

// Service issues and validates session tokens and resolves the current user
type Service struct {
	cfg      Config
	userRepo repositories.UserRepository
	cache    *redis.Client // nil disables caching
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new session service. A nil cache client disables the
// Redis layer; every lookup then goes to Postgres.
func NewService(cfg Config, userRepo repositories.UserRepository, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		cfg:      cfg,
		userRepo: userRepo,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// IssueToken mints a session token for the user
func (s *Service) IssueToken(user *models.User) (string, error) {
	if user == nil {
		return "", services.ErrInvalidInput
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		DiscordID: user.DiscordID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// ValidateToken verifies the token signature and expiry and returns the
// internal user id it names. Any parse or signature error maps to a typed
// unauthorized error; nothing is ever resolved from an invalid token.
func (s *Service) ValidateToken(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, services.ErrTokenExpired
		}
		return 0, services.NewDomainError(services.ErrorTypeUnauthorized, "invalid session token", err)
	}
	if !token.Valid {
		return 0, services.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, services.NewDomainError(services.ErrorTypeUnauthorized, "invalid session token", err)
	}

	return userID, nil
}

// GetUser resolves the user for the given id, preferring the Redis cache.
// Cache errors are logged and treated as misses.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	if user := s.cachedUser(ctx, userID); user != nil {
		return user, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "user not found", err)
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// InvalidateUser drops the cached snapshot for the user. Called on logout and
// after any mutation of the user's roles or ban state.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(userID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate cached user",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

func (s *Service) cachedUser(ctx context.Context, userID int64) *models.User {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("session cache read failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
		return nil
	}

	user := &models.User{}
	if err := json.Unmarshal(data, user); err != nil {
		s.logger.Warn("session cache entry corrupt, discarding",
			zap.Int64("user_id", userID),
			zap.Error(err))
		s.InvalidateUser(ctx, userID)
		return nil
	}

	return user
}

func (s *Service) cacheUser(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey(user.ID), data, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn("session cache write failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
	}
}

func cacheKey(userID int64) string {
	return "session:user:" + strconv.FormatInt(userID, 10)
}
