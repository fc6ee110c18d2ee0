package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/harborfund/portal/pkg/slogx"
)

var errUnsupportedJSONMediaType = portalsdk.NewAPIError(
	http.StatusUnsupportedMediaType,
	portalsdk.ErrorCodeInvalidRequest,
	"content-type must be application/json",
)

// decodeJSON reads the request body into dst and writes the error response
// when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httpx.DecodeJSON(w, r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, httpx.ErrUnsupportedMediaType):
		errUnsupportedJSONMediaType.WriteError(w)
	default:
		portalsdk.ErrInvalidJSON.WriteError(w)
	}
	return false
}

func invalidRequest(w http.ResponseWriter, desc string) {
	portalsdk.NewAPIError(http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest, desc).WriteError(w)
}

func tokenDescription(reason service.TokenReason) string {
	switch reason {
	case service.TokenExpired:
		return "Token has expired"
	case service.TokenAlreadyUsed:
		return "Token has already been used"
	default:
		return "Token not found"
	}
}

// writeServiceError maps account creation errors onto responses. Anything
// unrecognised is logged and reported as a 500 with fallback as description.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		tokenErr *service.InvalidTokenError
		codeErr  *service.InvalidCodeError
	)

	switch {
	case errors.As(err, &tokenErr):
		portalsdk.NewAPIError(http.StatusBadRequest, portalsdk.ErrorCodeInvalidAccountToken,
			tokenDescription(tokenErr.Reason)).WriteError(w)
	case errors.As(err, &codeErr):
		portalsdk.NewAPIError(http.StatusBadRequest, portalsdk.ErrorCodeInvalidCode,
			codeErr.Error()).WriteError(w)
	case errors.Is(err, service.ErrWeakPassword):
		portalsdk.NewAPIError(http.StatusBadRequest, portalsdk.ErrorCodeWeakPassword,
			service.ErrWeakPassword.Error()).WriteError(w)
	case errors.Is(err, service.ErrIdentityExists):
		portalsdk.NewAPIError(http.StatusConflict, portalsdk.ErrorCodeAccountExists,
			service.ErrIdentityExists.Error()).WriteError(w)
	case errors.Is(err, service.ErrApplicationNotFound):
		portalsdk.ErrApplicationNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error(fallback, slog.Any("error", err))
		portalsdk.NewAPIError(http.StatusInternalServerError, portalsdk.ErrorCodeServerError,
			fallback).WriteError(w)
	}
}
