package portalsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the portal API. It covers the unauthenticated endpoints
// and creates Sessions for operator calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckScopes makes Sessions reject calls locally when a required scope
	// is missing. Tests turn it off to exercise the server-side check.
	CheckScopes bool
}

// NewClient creates a client with scope checking enabled.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		CheckScopes: true,
	}
}

// AuthenticateWithPassword signs in and returns a Session. fundID may be
// empty when the account belongs to a single fund.
func (c *Client) AuthenticateWithPassword(ctx context.Context, email, password, fundID string) (*Session, error) {
	tokenResp, err := c.PasswordGrant(ctx, email, password, fundID)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// AuthenticateWithRefreshToken resumes a session from a stored refresh token.
func (c *Client) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	tokenResp, err := c.RefreshGrant(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// NewSessionFromTokens wraps tokens obtained elsewhere, e.g. from CreateAccount.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken, scope string, expiresIn int) *Session {
	return newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		Scope:        scope,
	})
}
