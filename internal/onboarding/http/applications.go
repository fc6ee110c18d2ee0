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
)

// ApplicationsHandler lets operators register and read KYC applications of
// their own fund.
type ApplicationsHandler struct {
	Service *service.ApplicationService
	Now     func() time.Time
}

// HandleCreate godoc
//
//	@Summary		Register a KYC application
//	@Description	Records an approved application so an account invite can be sent for it.
//	@Tags			Applications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		portalsdk.CreateApplicationRequest	true	"Application"
//	@Success		201		{object}	portalsdk.ApplicationResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Validation failed"
//	@Failure		401		"Missing or invalid bearer token"
//	@Failure		403		{object}	portalsdk.ErrorResponse	"Missing scope or fund mismatch"
//	@Failure		404		{object}	portalsdk.ErrorResponse	"Fund not found"
//	@Router			/v1/applications [post].
func (h *ApplicationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req portalsdk.CreateApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fundID := strings.TrimSpace(req.FundID); fundID != "" && fundID != claims.FundID {
		portalsdk.ErrFundMismatch.WriteError(w)
		return
	}

	app, err := h.Service.Create(ctx, service.NewApplication{
		FundID:          claims.FundID,
		ApplicantType:   domain.ApplicantType(strings.TrimSpace(req.ApplicantType)),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		EntityName:      req.EntityName,
		SignerFirstName: req.SignerFirstName,
		SignerLastName:  req.SignerLastName,
	}, h.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidApplication):
			invalidRequest(w, err.Error())
		case errors.Is(err, service.ErrFundNotFound):
			portalsdk.NewAPIError(http.StatusNotFound, portalsdk.ErrorCodeNotFound,
				"fund not found").WriteError(w)
		default:
			writeServiceError(w, r, err, "failed to register application")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// HandleGet godoc
//
//	@Summary		Get a KYC application
//	@Tags			Applications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Application ID"
//	@Success		200	{object}	portalsdk.ApplicationResponse
//	@Failure		401	"Missing or invalid bearer token"
//	@Failure		403	{object}	portalsdk.ErrorResponse	"Missing scope"
//	@Failure		404	{object}	portalsdk.ErrorResponse	"Application not found"
//	@Router			/v1/applications/{id} [get].
func (h *ApplicationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	app, err := h.Service.Get(ctx, r.PathValue("id"), claims.FundID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load application")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func toApplicationResponse(a domain.KYCApplication) portalsdk.ApplicationResponse {
	return portalsdk.ApplicationResponse{
		ID:              a.ID,
		FundID:          a.FundID,
		ApplicantType:   string(a.ApplicantType),
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		Phone:           a.Phone,
		EntityName:      a.EntityName,
		SignerFirstName: a.SignerFirstName,
		SignerLastName:  a.SignerLastName,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
