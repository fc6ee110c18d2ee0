package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func TestTokenEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	signIn := func(t *testing.T, password string) *httptest.ResponseRecorder {
		return env.postForm(t, "/v1/auth/token", url.Values{
			"grant_type": {"password"},
			"email":      {operatorEmail},
			"password":   {password},
			"fund_id":    {env.fundID},
		})
	}

	t.Run("password grant", func(t *testing.T) {
		rec := signIn(t, operatorPass)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		tok := decode[portalsdk.TokenResponse](t, rec)
		require.Equal(t, "Bearer", tok.TokenType)
		require.Equal(t, 900, tok.ExpiresIn)
		require.Contains(t, strings.Fields(tok.Scope), "invites:write")
		require.NotEmpty(t, tok.RefreshToken)
	})

	t.Run("bad credentials", func(t *testing.T) {
		requireError(t, signIn(t, "wrong password"), http.StatusUnauthorized, portalsdk.ErrorCodeInvalidGrant)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.postForm(t, "/v1/auth/token", url.Values{"grant_type": {"password"}})
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest)
	})

	t.Run("unsupported grant", func(t *testing.T) {
		rec := env.postForm(t, "/v1/auth/token", url.Values{"grant_type": {"client_credentials"}})
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeUnsupportedGrantType)
	})

	t.Run("json body rejected", func(t *testing.T) {
		rec := env.postJSON(t, "/v1/auth/token", map[string]string{"grant_type": "password"}, "")
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest)
	})

	t.Run("refresh rotates and revoke ends the session", func(t *testing.T) {
		first := decode[portalsdk.TokenResponse](t, signIn(t, operatorPass))

		rec := env.postForm(t, "/v1/auth/token", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {first.RefreshToken},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		second := decode[portalsdk.TokenResponse](t, rec)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		rec = env.postForm(t, "/v1/auth/revoke", url.Values{"token": {second.RefreshToken}})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "{}", rec.Body.String())

		rec = env.postForm(t, "/v1/auth/token", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {second.RefreshToken},
		})
		requireError(t, rec, http.StatusUnauthorized, portalsdk.ErrorCodeInvalidGrant)
	})

	t.Run("revoke unknown token", func(t *testing.T) {
		rec := env.postForm(t, "/v1/auth/revoke", url.Values{"token": {"unknown"}})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.postForm(t, "/v1/auth/revoke", url.Values{})
		requireError(t, rec, http.StatusBadRequest, portalsdk.ErrorCodeInvalidRequest)
	})
}

func TestJWKS(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.get(t, "/.well-known/jwks.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jwks := decode[portalsdk.JWKSResponse](t, rec)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "EdDSA", jwks.Keys[0].Alg)
}
