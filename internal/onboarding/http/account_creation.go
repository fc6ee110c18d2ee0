package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/portalsdk"
)

// AccountCreationHandler serves the investor signup flow under
// /v1/account-creation.
type AccountCreationHandler struct {
	Service *service.AccountCreationService
	Now     func() time.Time
}

// HandleVerifyToken godoc
//
//	@Summary		Verify an account creation token
//	@Description	Checks the token from the invite link and returns the read-only form prefill.
//	@Tags			Account Creation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.VerifyTokenRequest	true	"Invite token"
//	@Success		200		{object}	portalsdk.PrefillResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Token not found, expired or already used"
//	@Failure		404		{object}	portalsdk.ErrorResponse	"Application no longer exists"
//	@Failure		429		{object}	portalsdk.ErrorResponse
//	@Router			/v1/account-creation/verify-token [post].
func (h *AccountCreationHandler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.VerifyTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		invalidRequest(w, "token is required")
		return
	}

	prefill, err := h.Service.VerifyToken(r.Context(), token, h.Now())
	if err != nil {
		writeServiceError(w, r, err, "failed to verify token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toPrefillResponse(prefill))
}

// HandleSendCode godoc
//
//	@Summary		Send a verification code
//	@Description	Emails a 6-digit code to the address on the application. Sending again replaces the previous code.
//	@Tags			Account Creation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.SendCodeRequest	true	"Invite token"
//	@Success		200		{object}	portalsdk.SendCodeResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Invalid token"
//	@Failure		429		{object}	portalsdk.ErrorResponse
//	@Failure		500		{object}	portalsdk.ErrorResponse	"Email delivery failed"
//	@Router			/v1/account-creation/send-code [post].
func (h *AccountCreationHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.SendCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		invalidRequest(w, "token is required")
		return
	}

	delivery, err := h.Service.SendVerificationCode(r.Context(), token, h.Now())
	if err != nil {
		writeServiceError(w, r, err, "failed to send verification code")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, portalsdk.SendCodeResponse{
		Sent:      delivery.Sent,
		ExpiresIn: int(delivery.ExpiresIn.Seconds()),
	})
}

// HandleVerifyCode godoc
//
//	@Summary		Check a verification code
//	@Description	Verifies the emailed code before the password step. A code verified here is accepted by create for a short while.
//	@Tags			Account Creation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.VerifyCodeRequest	true	"Token and code"
//	@Success		200		{object}	portalsdk.VerifyCodeResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Invalid token or code"
//	@Failure		429		{object}	portalsdk.ErrorResponse
//	@Router			/v1/account-creation/verify-code [post].
func (h *AccountCreationHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.VerifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token := strings.TrimSpace(req.Token)
	code := strings.TrimSpace(req.VerificationCode)
	if token == "" || code == "" {
		invalidRequest(w, "token and verificationCode are required")
		return
	}

	if err := h.Service.VerifyCode(r.Context(), token, code, h.Now()); err != nil {
		writeServiceError(w, r, err, "failed to verify code")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, portalsdk.VerifyCodeResponse{Verified: true})
}

// HandleCreate godoc
//
//	@Summary		Create an investor account
//	@Description	Creates the login identity, fund membership and investor record, then signs the investor in.
//	@Tags			Account Creation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.CreateAccountRequest	true	"Signup form"
//	@Success		201		{object}	portalsdk.CreateAccountResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Invalid token, code or password"
//	@Failure		404		{object}	portalsdk.ErrorResponse	"Application no longer exists"
//	@Failure		409		{object}	portalsdk.ErrorResponse	"An account already exists for this email"
//	@Failure		429		{object}	portalsdk.ErrorResponse
//	@Failure		500		{object}	portalsdk.ErrorResponse
//	@Header			201		{string}	Cache-Control	"no-store"
//	@Router			/v1/account-creation/create [post].
func (h *AccountCreationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := service.CreateAccountInput{
		Token:            strings.TrimSpace(req.Token),
		VerificationCode: strings.TrimSpace(req.VerificationCode),
		Password:         req.Password,
		Phone:            strings.TrimSpace(req.Phone),
	}
	if in.Token == "" || in.VerificationCode == "" || in.Password == "" {
		invalidRequest(w, "token, verificationCode and password are required")
		return
	}

	created, err := h.Service.CreateAccount(r.Context(), in, h.Now())
	if err != nil {
		writeServiceError(w, r, err, "failed to create account")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, portalsdk.CreateAccountResponse{
		User:         toUserResponse(created.User),
		Investor:     toInvestorResponse(created.Investor),
		AccessToken:  created.Session.AccessToken,
		RefreshToken: created.Session.RefreshToken,
		TokenType:    created.Session.TokenType,
		ExpiresIn:    int(created.Session.ExpiresIn.Seconds()),
		Scope:        created.Session.Scope,
	})
}

// HandleSendInvite godoc
//
//	@Summary		Send an account creation invite
//	@Description	Issues a single-use signup link for an approved application and emails it to the applicant.
//	@Tags			Account Creation
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		portalsdk.SendInviteRequest	true	"Application to invite"
//	@Success		200		{object}	portalsdk.SendInviteResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Missing application id"
//	@Failure		401		"Missing or invalid bearer token"
//	@Failure		403		{object}	portalsdk.ErrorResponse	"Missing scope or fund mismatch"
//	@Failure		404		{object}	portalsdk.ErrorResponse	"Application not found"
//	@Failure		500		{object}	portalsdk.ErrorResponse
//	@Router			/v1/account-creation/send-invite [post].
func (h *AccountCreationHandler) HandleSendInvite(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req portalsdk.SendInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	appID := strings.TrimSpace(req.KYCApplicationID)
	if appID == "" {
		invalidRequest(w, "kycApplicationId is required")
		return
	}

	fundID := strings.TrimSpace(req.FundID)
	if fundID == "" {
		fundID = claims.FundID
	}
	if fundID != claims.FundID {
		portalsdk.ErrFundMismatch.WriteError(w)
		return
	}

	sent, err := h.Service.SendAccountInvite(r.Context(), appID, fundID, h.Now())
	if err != nil {
		writeServiceError(w, r, err, "failed to send account invite")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, portalsdk.SendInviteResponse{
		TokenID:   sent.TokenID,
		ExpiresAt: sent.ExpiresAt,
		EmailSent: sent.EmailSent,
	})
}

func toPrefillResponse(p domain.Prefill) portalsdk.PrefillResponse {
	return portalsdk.PrefillResponse{
		ApplicationID: p.ApplicationID,
		FundID:        p.FundID,
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Phone:         p.Phone,
		InvestorType:  string(p.InvestorType),
		EntityName:    p.EntityName,
	}
}

func toUserResponse(u domain.User) portalsdk.UserResponse {
	return portalsdk.UserResponse{
		ID:     u.ID,
		FundID: u.FundID,
		Email:  u.Email,
		Role:   string(u.Role),
	}
}

func toInvestorResponse(inv domain.Investor) portalsdk.InvestorResponse {
	return portalsdk.InvestorResponse{
		ID:            inv.ID,
		FundID:        inv.FundID,
		UserID:        inv.UserID,
		ApplicationID: inv.ApplicationID,
		FirstName:     inv.FirstName,
		LastName:      inv.LastName,
		Email:         inv.Email,
		Phone:         inv.Phone,
		InvestorType:  string(inv.InvestorType),
		EntityName:    inv.EntityName,
		Status:        string(inv.Status),
		CreatedAt:     inv.CreatedAt,
	}
}
