package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/harborfund/portal/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
	Now              func() time.Time
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the portal
//	@Description	Creates the first fund and its operator account. Only available when a bootstrap token is configured and only usable once.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string								true	"Bootstrap token for authorization"
//	@Param			request				body		portalsdk.BootstrapRequest			true	"Fund and operator"
//	@Success		201					{object}	portalsdk.BootstrapResponse			"Created fund and operator IDs"
//	@Failure		400					{object}	portalsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	portalsdk.ErrorResponse				"Missing or invalid bootstrap token, or already bootstrapped"
//	@Failure		404					{object}	portalsdk.ErrorResponse				"Bootstrap not enabled (no token configured)"
//	@Failure		500					{object}	portalsdk.ErrorResponse				"Failed to create fund or operator"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		portalsdk.NewAPIError(http.StatusNotFound, portalsdk.ErrorCodeNotFound,
			"Bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		portalsdk.NewAPIError(http.StatusUnauthorized, portalsdk.ErrorCodeUnauthorized,
			"Bootstrap token is required in X-Bootstrap-Token header").WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req portalsdk.BootstrapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, portalsdk.ValidationErrorResponse{
			Code:    "validation_error",
			Message: "validation failed for some fields",
			Details: errs,
		})
		return
	}

	// 4. Perform bootstrap
	res, err := h.BootstrapService.Bootstrap(
		r.Context(),
		token,
		domain.BootstrapData{
			FundName:         strings.TrimSpace(req.FundName),
			OperatorEmail:    strings.TrimSpace(req.OperatorEmail),
			OperatorPassword: req.OperatorPassword,
		},
		h.Now(),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			portalsdk.NewAPIError(http.StatusUnauthorized, portalsdk.ErrorCodeUnauthorized,
				"System has already been bootstrapped").WriteError(w)
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			portalsdk.NewAPIError(http.StatusUnauthorized, portalsdk.ErrorCodeUnauthorized,
				"Invalid bootstrap token").WriteError(w)
		case errors.Is(err, service.ErrBootstrapInvalid), errors.Is(err, service.ErrWeakPassword):
			portalsdk.NewAPIError(http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest,
				err.Error()).WriteError(w)
		default:
			portalsdk.NewAPIError(http.StatusInternalServerError, portalsdk.ErrorCodeServerError,
				"Failed to create fund or operator").WriteError(w)
		}
		return
	}

	// 5. Respond with created IDs
	httpx.WriteJSON(w, http.StatusCreated, portalsdk.BootstrapResponse{
		FundID:             res.FundID,
		OperatorIdentityID: res.IdentityID,
		OperatorUserID:     res.UserID,
	})
}
