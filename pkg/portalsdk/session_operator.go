package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SendAccountInvite emails an account creation link for an application.
// Requires: invites:write scope on the application's fund.
func (s *Session) SendAccountInvite(ctx context.Context, req SendInviteRequest) (*SendInviteResponse, error) {
	var out SendInviteResponse
	if err := s.postJSON(ctx, "/v1/account-creation/send-invite", req, &out, http.StatusOK, "invites:write"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateApplication registers an approved KYC application.
// Requires: applications:write scope.
func (s *Session) CreateApplication(ctx context.Context, req CreateApplicationRequest) (*ApplicationResponse, error) {
	var out ApplicationResponse
	if err := s.postJSON(ctx, "/v1/applications", req, &out, http.StatusCreated, "applications:write"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetApplication fetches an application of the session's fund.
// Requires: applications:read scope.
func (s *Session) GetApplication(ctx context.Context, id string) (*ApplicationResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/applications/"+url.PathEscape(id), nil, nil, "applications:read")
	if err != nil {
		return nil, err
	}

	var out ApplicationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) postJSON(ctx context.Context, path string, in, out any, expectedStatus int, scopes ...string) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	}, scopes...)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}
