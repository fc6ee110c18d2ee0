package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/harborfund/portal/pkg/slogx"
)

// RevokeHandler serves POST /v1/auth/revoke. Only refresh tokens are
// revocable; access tokens expire on their own. Unknown tokens still get 200.
type RevokeHandler struct {
	SessionService *service.SessionService
	Now            func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Token Revocation Endpoint
//	@Description	Revokes a refresh token. Returns 200 OK even for unknown tokens.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token	formData	string	true	"The refresh token to revoke"
//	@Success		200		"Token revoked (or was already invalid)"
//	@Failure		400		{object}	portalsdk.ErrorResponse	"error, error_description"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

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

	token := r.Form.Get("token")
	if token == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Revoke
	if err := h.SessionService.Revoke(ctx, token, h.Now()); err != nil {
		log.Warn("revoke refresh failed", slog.Any("error", err))
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
