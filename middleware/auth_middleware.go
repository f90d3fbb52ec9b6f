package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

// SessionValidator resolves a session token into the user it belongs to
type SessionValidator interface {
	// ValidateToken validates a session token and returns the internal user id
	ValidateToken(token string) (int64, error)

	// GetUser loads the user snapshot for an internal user id
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	sessions SessionValidator
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions SessionValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// SessionCookieName is the cookie set by the OAuth callback. The Authorization
// header takes precedence when both are present.
const SessionCookieName = "session"

// RequireAuth requires a valid session and resolves the full user record into
// the request context. Hub-banned users are rejected on every request.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Warn("missing session token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		userID, err := m.sessions.ValidateToken(token)
		if err != nil {
			m.logger.Warn("session token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired session")
			return
		}

		user, err := m.sessions.GetUser(ctx, userID)
		if err != nil || user == nil {
			m.logger.Warn("session user lookup failed",
				zap.String("request_id", requestID),
				zap.Int64("user_id", userID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired session")
			return
		}

		if user.IsHubBanned {
			m.logger.Warn("hub banned user rejected",
				zap.String("request_id", requestID),
				zap.Int64("user_id", user.ID))
			_ = utils.WriteForbidden(w, "Hub banned")
			return
		}

		ctx = WithUser(ctx, user)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.Int64("user_id", user.ID),
			zap.String("discord_id", user.DiscordID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken extracts the session token from the Authorization header
// ("Bearer TOKEN") or the session cookie. The header takes precedence.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
