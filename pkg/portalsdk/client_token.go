package portalsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// PasswordGrant exchanges email and password for tokens.
func (c *Client) PasswordGrant(ctx context.Context, email, password, fundID string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"email":      {email},
		"password":   {password},
	}
	if fundID != "" {
		data.Set("fund_id", fundID)
	}
	return c.requestToken(ctx, data)
}

// RefreshGrant rotates a refresh token. The old token stops working.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, data)
}

// RevokeToken revokes a refresh token. Unknown tokens are not an error.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	data := url.Values{"token": {token}}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/revoke", strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		if err := parseErrorResponse(resp, bodyBytes); err != nil {
			return err
		}
		return fmt.Errorf("revoke request failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/token", strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}
