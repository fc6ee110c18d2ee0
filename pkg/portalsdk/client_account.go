package portalsdk

import (
	"context"
	"net/http"
)

// VerifyAccountToken checks an emailed account creation token and returns
// the form prefill.
func (c *Client) VerifyAccountToken(ctx context.Context, token string) (*PrefillResponse, error) {
	var out PrefillResponse
	if err := c.postJSON(ctx, "/v1/account-creation/verify-token", VerifyTokenRequest{Token: token}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendVerificationCode emails a fresh six digit code to the token's address.
func (c *Client) SendVerificationCode(ctx context.Context, token string) (*SendCodeResponse, error) {
	var out SendCodeResponse
	if err := c.postJSON(ctx, "/v1/account-creation/send-code", SendCodeRequest{Token: token}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyCode checks a code ahead of CreateAccount.
func (c *Client) VerifyCode(ctx context.Context, token, code string) (*VerifyCodeResponse, error) {
	var out VerifyCodeResponse
	req := VerifyCodeRequest{Token: token, VerificationCode: code}
	if err := c.postJSON(ctx, "/v1/account-creation/verify-code", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAccount completes signup. The response carries a signed-in session,
// see NewSessionFromTokens.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResponse, error) {
	var out CreateAccountResponse
	if err := c.postJSON(ctx, "/v1/account-creation/create", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
