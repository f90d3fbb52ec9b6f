// Package auth implements the Discord OAuth2 login flow: the authorization
// redirect, the callback that upserts the user and syncs their guild roles,
// and session issuance.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/otisthings/hub-sub000/config"
	"github.com/otisthings/hub-sub000/discord"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/utils"
	"go.uber.org/zap"
)

const (
	// StateCookieName is the cookie name for OAuth state (CSRF)
	StateCookieName = "oauth_state"
	// SessionCookieName is the cookie name for the session token
	SessionCookieName = "session"
	stateCookieMaxAge = 600
)

// OAuthClient covers the slice of the Discord client the login flow needs
type OAuthClient interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchIdentity(ctx context.Context, accessToken string) (*discord.Identity, error)
	FetchGuildMember(ctx context.Context, guildID, discordUserID string) (*discord.GuildMember, error)
}

// SessionManager issues and revokes session tokens
type SessionManager interface {
	IssueToken(user *models.User) (string, error)
	ValidateToken(token string) (int64, error)
	InvalidateUser(ctx context.Context, userID int64)
}

// Handler handles the OAuth2 authentication flow (login, callback, logout).
type Handler struct {
	cfg      *config.Config
	oauth    OAuthClient
	sessions SessionManager
	users    repositories.UserRepository
	logger   *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(cfg *config.Config, oauth OAuthClient, sessions SessionManager, users repositories.UserRepository, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		oauth:    oauth,
		sessions: sessions,
		users:    users,
		logger:   logger,
	}
}

// HandleLogin redirects to the Discord authorization page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.logger.Error("discord oauth not configured")
		_ = utils.WriteInternalServerError(w, "Authentication not configured")
		return
	}

	state, err := generateSecureState()
	if err != nil {
		h.logger.Error("failed to generate state", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to initiate login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusFound)
}

// HandleCallback exchanges the authorization code, resolves the Discord
// identity and guild roles, upserts the user, and sets the session cookie.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" {
		_ = utils.WriteBadRequest(w, "Missing authorization code", nil)
		return
	}
	if state == "" {
		_ = utils.WriteBadRequest(w, "Missing state parameter", nil)
		return
	}

	stateCookie, err := r.Cookie(StateCookieName)
	if err != nil || stateCookie.Value != state {
		_ = utils.WriteBadRequest(w, "Invalid or expired state", nil)
		return
	}
	h.clearCookie(w, StateCookieName)

	accessToken, err := h.oauth.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Warn("code exchange failed", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")
		return
	}

	identity, err := h.oauth.FetchIdentity(ctx, accessToken)
	if err != nil {
		h.logger.Warn("identity lookup failed", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")
		return
	}

	user, err := h.upsertUser(ctx, identity)
	if err != nil {
		h.logger.Error("failed to upsert user",
			zap.String("discord_id", identity.ID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to complete login")
		return
	}

	if err := h.syncGuildRoles(ctx, user); err != nil {
		h.logger.Error("failed to sync guild roles",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to complete login")
		return
	}

	// Drop any cached snapshot so the fresh role set is visible immediately
	h.sessions.InvalidateUser(ctx, user.ID)

	token, err := h.sessions.IssueToken(user)
	if err != nil {
		h.logger.Error("failed to issue session token",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to complete login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.Session.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.String("discord_id", user.DiscordID))

	redirectURL := h.cfg.Discord.FrontEndURL
	if redirectURL == "" {
		redirectURL = "/"
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// HandleLogout invalidates the session cache and clears the session cookie
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if userID, err := h.sessions.ValidateToken(cookie.Value); err == nil {
			h.sessions.InvalidateUser(r.Context(), userID)
		}
	}

	h.clearCookie(w, SessionCookieName)
	utils.WriteNoContent(w)
}

// HandleCurrentUser returns the authenticated user's profile.
// Must be mounted behind the auth middleware.
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}
	_ = utils.WriteOK(w, user)
}

// upsertUser creates the user on first login and refreshes the Discord
// profile fields on every subsequent one.
func (h *Handler) upsertUser(ctx context.Context, identity *discord.Identity) (*models.User, error) {
	user, err := h.users.GetByDiscordID(ctx, identity.ID)
	if err != nil {
		user = models.NewUser(identity.ID, identity.Username, identity.Discriminator, identity.Avatar)
		if err := h.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	user.Username = identity.Username
	user.Discriminator = identity.Discriminator
	user.Avatar = identity.Avatar
	user.UpdatedAt = time.Now()
	if err := h.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// syncGuildRoles replaces the stored role set with the member's current guild
// roles. A user who left the guild keeps their account but loses every role.
func (h *Handler) syncGuildRoles(ctx context.Context, user *models.User) error {
	if h.cfg.Discord.GuildID == "" {
		return nil
	}

	member, err := h.oauth.FetchGuildMember(ctx, h.cfg.Discord.GuildID, user.DiscordID)
	if err != nil {
		if errors.Is(err, discord.ErrMemberNotFound) {
			user.Roles = nil
			return h.users.ReplaceRoles(ctx, user.ID, nil)
		}
		return err
	}

	roles := make([]models.RoleReference, 0, len(member.Roles))
	for _, id := range member.Roles {
		if id == "" {
			continue
		}
		roles = append(roles, models.RoleReference{ID: id})
	}

	user.Roles = roles
	return h.users.ReplaceRoles(ctx, user.ID, roles)
}

func (h *Handler) secureCookies() bool {
	return strings.HasPrefix(h.cfg.Discord.RedirectURI, "https")
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func generateSecureState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
