package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/harborfund/portal/pkg/slogx"
)

// TokenHandler serves POST /v1/auth/token.
// Accepts application/x-www-form-urlencoded like an OAuth2 token endpoint.
type TokenHandler struct {
	IdentityService *service.IdentityService
	SessionService  *service.SessionService
	Now             func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Token Endpoint
//	@Description	Issues access and refresh tokens for the password and refresh_token grants.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string						true	"Grant type"	Enums(password, refresh_token)
//	@Param			email			formData	string						false	"Email (required for password grant)"
//	@Param			password		formData	string						false	"Password (required for password grant)"
//	@Param			fund_id			formData	string						false	"Fund to sign in to, when the identity belongs to several"
//	@Param			refresh_token	formData	string						false	"Refresh token (required for refresh_token grant)"
//	@Success		200				{object}	portalsdk.TokenResponse		"access_token, refresh_token, token_type, expires_in, scope"
//	@Failure		400				{object}	portalsdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	portalsdk.ErrorResponse		"error, error_description"
//	@Failure		500				{object}	portalsdk.ErrorResponse		"error, error_description"
//	@Header			200				{string}	Cache-Control				"no-store"
//	@Header			200				{string}	Pragma						"no-cache"
//	@Router			/v1/auth/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		portalsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		portalsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	// 3. Handle the grant type
	switch r.Form.Get("grant_type") {
	case "password":
		h.handlePasswordGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		portalsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handlePasswordGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email := strings.TrimSpace(form.Get("email"))
	password := form.Get("password")
	fundID := strings.TrimSpace(form.Get("fund_id"))

	if email == "" || password == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.IdentityService.SignIn(ctx, email, password, fundID, h.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			portalsdk.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("password grant failed", slog.Any("error", err))
			portalsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenResponse(w, pair)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refresh := form.Get("refresh_token")
	if refresh == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.SessionService.Refresh(ctx, refresh, h.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			portalsdk.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("refresh grant failed", slog.Any("error", err))
			portalsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenResponse(w, pair)
}

func writeTokenResponse(w http.ResponseWriter, pair domain.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, portalsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
	})
}
