// Package discord implements the OAuth2 code flow and the small slice of the
// Discord REST API the hub needs: resolving the authenticated user's identity
// and reading their guild roles.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrExchangeFailed is returned when the authorization code exchange fails
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrAPIRequestFailed is returned when a Discord API call fails
	ErrAPIRequestFailed = errors.New("discord API request failed")

	// ErrMemberNotFound is returned when the user is not a member of the guild
	ErrMemberNotFound = errors.New("guild member not found")
)

// Identity is the subset of the Discord user object the hub consumes
type Identity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// GuildMember holds a member's role ids within the configured guild
type GuildMember struct {
	Nick  string   `json:"nick"`
	Roles []string `json:"roles"`
}

// tokenResponse is the OAuth2 token endpoint payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Config holds configuration for the Discord client
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BotToken     string
	APIBaseURL   string
	HTTPTimeout  time.Duration
}

// Client talks to the Discord OAuth2 and REST endpoints
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	botToken     string
	apiBaseURL   string
	httpClient   *http.Client
}

// NewClient creates a new Discord client
func NewClient(cfg Config) *Client {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://discord.com/api/v10"
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		botToken:     cfg.BotToken,
		apiBaseURL:   strings.TrimSuffix(cfg.APIBaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// AuthURL builds the Discord authorization URL for the OAuth2 code flow
func (c *Client) AuthURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.clientID},
		"redirect_uri":  {c.redirectURI},
		"state":         {state},
		"scope":         {"identify"},
	}
	return c.apiBaseURL + "/oauth2/authorize?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for an access token
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.redirectURI},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrExchangeFailed, resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrExchangeFailed)
	}

	return token.AccessToken, nil
}

// FetchIdentity resolves the authenticated user via GET /users/@me
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var identity Identity
	if err := c.get(ctx, "/users/@me", "Bearer "+accessToken, &identity); err != nil {
		return nil, err
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("%w: identity response missing user id", ErrAPIRequestFailed)
	}
	return &identity, nil
}

// FetchGuildMember reads a member's roles in the given guild using the bot
// token. Returns ErrMemberNotFound when the user is not in the guild.
func (c *Client) FetchGuildMember(ctx context.Context, guildID, discordUserID string) (*GuildMember, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, discordUserID)
	var member GuildMember
	if err := c.get(ctx, path, "Bot "+c.botToken, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) get(ctx context.Context, path, authorization string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", authorization)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrMemberNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrAPIRequestFailed, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
