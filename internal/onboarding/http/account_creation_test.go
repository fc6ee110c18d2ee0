package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func TestAccountCreationFlow(t *testing.T) {
	env := newTestEnv(t, false)
	app := env.seedApplication(t, "a@example.com")

	// 1. Operator sends the invite
	rec := env.postJSON(t, "/v1/account-creation/send-invite", portalsdk.SendInviteRequest{
		KYCApplicationID: app.ID,
		FundID:           env.fundID,
	}, env.operatorToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := decode[portalsdk.SendInviteResponse](t, rec)
	require.NotEmpty(t, sent.TokenID)
	require.True(t, sent.EmailSent)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), sent.ExpiresAt, time.Minute)

	token, err := url.PathUnescape(env.outbox.last(t, inviteRe))
	require.NoError(t, err)

	// 2. Investor opens the link
	rec = env.postJSON(t, "/v1/account-creation/verify-token", portalsdk.VerifyTokenRequest{Token: token}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prefill := decode[portalsdk.PrefillResponse](t, rec)
	require.Equal(t, app.ID, prefill.ApplicationID)
	require.Equal(t, "a@example.com", prefill.Email)
	require.Equal(t, "Ada", prefill.FirstName)
	require.Equal(t, "individual", prefill.InvestorType)

	// 3. Code is emailed
	rec = env.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: token}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	delivery := decode[portalsdk.SendCodeResponse](t, rec)
	require.True(t, delivery.Sent)
	require.Equal(t, 600, delivery.ExpiresIn)
	code := env.outbox.last(t, codeRe)

	// 4. A wrong code counts an attempt
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = env.postJSON(t, "/v1/account-creation/verify-code", portalsdk.VerifyCodeRequest{
		Token: token, VerificationCode: wrong,
	}, "")
	body := requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidCode)
	require.Equal(t, "invalid code, 2 attempts remaining", body.ErrorDescription)

	rec = env.postJSON(t, "/v1/account-creation/verify-code", portalsdk.VerifyCodeRequest{
		Token: token, VerificationCode: code,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, decode[portalsdk.VerifyCodeResponse](t, rec).Verified)

	// 5. Account is created with the already verified code
	rec = env.postJSON(t, "/v1/account-creation/create", portalsdk.CreateAccountRequest{
		Token:            token,
		VerificationCode: code,
		Password:         investorPass,
		Phone:            "+61 411 111 111",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	created := decode[portalsdk.CreateAccountResponse](t, rec)
	require.Equal(t, "investor", created.User.Role)
	require.Equal(t, env.fundID, created.User.FundID)
	require.Equal(t, app.ID, created.Investor.ApplicationID)
	require.Equal(t, "+61 411 111 111", created.Investor.Phone)
	require.Equal(t, "Bearer", created.TokenType)
	require.Equal(t, 900, created.ExpiresIn)
	require.NotEmpty(t, created.AccessToken)
	require.NotEmpty(t, created.RefreshToken)

	claims, err := env.keys.Verifier.Verify(created.AccessToken, time.Now())
	require.NoError(t, err)
	require.Equal(t, "investor", claims.Role)
	require.Equal(t, env.fundID, claims.FundID)

	// 6. The link is single use
	rec = env.postJSON(t, "/v1/account-creation/verify-token", portalsdk.VerifyTokenRequest{Token: token}, "")
	body = requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidAccountToken)
	require.Equal(t, "Token has already been used", body.ErrorDescription)

	stored, err := env.store.Applications().GetApplicationByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationAccountCreated, stored.Status)

	// 7. The new investor can sign in with the chosen password
	rec = env.postForm(t, "/v1/auth/token", url.Values{
		"grant_type": {"password"},
		"email":      {"a@example.com"},
		"password":   {investorPass},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAccountCreationErrors(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		env := newTestEnv(t, false)
		rec := env.postJSON(t, "/v1/account-creation/verify-token", portalsdk.VerifyTokenRequest{Token: "nope"}, "")
		body := requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidAccountToken)
		require.Equal(t, "Token not found", body.ErrorDescription)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t, false)
		rec := env.postJSON(t, "/v1/account-creation/verify-token", portalsdk.VerifyTokenRequest{}, "")
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest)

		rec = env.postJSON(t, "/v1/account-creation/create", portalsdk.CreateAccountRequest{Token: "x"}, "")
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest)
	})

	t.Run("bad bodies", func(t *testing.T) {
		env := newTestEnv(t, false)

		req := httptest.NewRequest(http.MethodPost, "/v1/account-creation/send-code", strings.NewReader("token=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		requireError(t, env.serve(req), http.StatusUnsupportedMediaType, portalsdk.ErrorCodeInvalidRequest)

		req = httptest.NewRequest(http.MethodPost, "/v1/account-creation/send-code", strings.NewReader(`{"token":"x","extra":1}`))
		req.Header.Set("Content-Type", "application/json")
		requireError(t, env.serve(req), http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest)
	})

	t.Run("weak password", func(t *testing.T) {
		env := newTestEnv(t, false)
		app := env.seedApplication(t, "a@example.com")
		token := env.invite(t, app.ID)

		rec := env.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: token}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.postJSON(t, "/v1/account-creation/create", portalsdk.CreateAccountRequest{
			Token: token, VerificationCode: env.outbox.last(t, codeRe), Password: "short",
		}, "")
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeWeakPassword)
	})

	t.Run("existing account", func(t *testing.T) {
		env := newTestEnv(t, false)
		app := env.seedApplication(t, operatorEmail)
		token := env.invite(t, app.ID)

		rec := env.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: token}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.postJSON(t, "/v1/account-creation/create", portalsdk.CreateAccountRequest{
			Token: token, VerificationCode: env.outbox.last(t, codeRe), Password: investorPass,
		}, "")
		requireError(t, rec, http.StatusConflict, portalsdk.ErrorCodeAccountExists)

		// The token survives so the investor can be helped without a new invite
		rec = env.postJSON(t, "/v1/account-creation/verify-token", portalsdk.VerifyTokenRequest{Token: token}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("email failure", func(t *testing.T) {
		env := newTestEnv(t, false)
		app := env.seedApplication(t, "a@example.com")
		token := env.invite(t, app.ID)

		env.outbox.err = errors.New("relay down")
		rec := env.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: token}, "")
		body := requireError(t, rec, http.StatusInternalServerError, portalsdk.ErrorCodeServerError)
		require.Equal(t, "failed to send verification code", body.ErrorDescription)
		require.NotContains(t, rec.Body.String(), "relay down")
	})
}

func TestSendInviteAuthorization(t *testing.T) {
	env := newTestEnv(t, false)
	app := env.seedApplication(t, "a@example.com")
	path := "/v1/account-creation/send-invite"

	t.Run("requires a bearer token", func(t *testing.T) {
		rec := env.postJSON(t, path, portalsdk.SendInviteRequest{KYCApplicationID: app.ID}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("requires invites scope", func(t *testing.T) {
		investor := env.signUp(t, "b@example.com")
		rec := env.postJSON(t, path, portalsdk.SendInviteRequest{KYCApplicationID: app.ID}, investor)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("fund must match token", func(t *testing.T) {
		rec := env.postJSON(t, path, portalsdk.SendInviteRequest{
			KYCApplicationID: app.ID, FundID: "other-fund",
		}, env.operatorToken)
		requireError(t, rec, http.StatusForbidden, portalsdk.ErrorCodeFundMismatch)
	})

	t.Run("unknown application", func(t *testing.T) {
		rec := env.postJSON(t, path, portalsdk.SendInviteRequest{
			KYCApplicationID: "ghost", FundID: env.fundID,
		}, env.operatorToken)
		requireError(t, rec, http.StatusNotFound, portalsdk.ErrorCodeApplicationNotFound)
	})

	t.Run("fund defaults to the token's", func(t *testing.T) {
		rec := env.postJSON(t, path, portalsdk.SendInviteRequest{KYCApplicationID: app.ID}, env.operatorToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

// signUp runs the whole flow for a new application and returns the access token.
func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	app := e.seedApplication(t, email)
	token := e.invite(t, app.ID)

	rec := e.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: token}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.postJSON(t, "/v1/account-creation/create", portalsdk.CreateAccountRequest{
		Token: token, VerificationCode: e.outbox.last(t, codeRe), Password: investorPass,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[portalsdk.CreateAccountResponse](t, rec).AccessToken
}

func TestStrictRateLimit(t *testing.T) {
	env := newTestEnv(t, true)

	for i := range 5 {
		rec := env.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: "nope"}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "request %d", i+1)
	}

	rec := env.postJSON(t, "/v1/account-creation/send-code", portalsdk.SendCodeRequest{Token: "nope"}, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}
