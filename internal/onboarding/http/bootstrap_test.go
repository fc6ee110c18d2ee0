package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func TestBootstrapEndpoint(t *testing.T) {
	req := portalsdk.BootstrapRequest{
		FundName:         "Harbor Fund II",
		OperatorEmail:    "ops2@harbor.example",
		OperatorPassword: "another password",
	}

	bootstrap := func(env *testEnv, token string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/v1/bootstrap", bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
		if token != "" {
			r.Header.Set("X-Bootstrap-Token", token)
		}
		return env.serve(r)
	}

	t.Run("creates fund and operator once", func(t *testing.T) {
		env := newBareEnv(t, false)

		rec := bootstrap(env, bootstrapToken, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		res := decode[portalsdk.BootstrapResponse](t, rec)
		require.NotEmpty(t, res.FundID)
		require.NotEmpty(t, res.OperatorUserID)

		rec = bootstrap(env, bootstrapToken, req)
		body := requireError(t, rec, http.StatusUnauthorized, portalsdk.ErrorCodeUnauthorized)
		require.Equal(t, "System has already been bootstrapped", body.ErrorDescription)
	})

	t.Run("token checks", func(t *testing.T) {
		env := newBareEnv(t, false)

		requireError(t, bootstrap(env, "", req), http.StatusUnauthorized, portalsdk.ErrorCodeUnauthorized)
		body := requireError(t, bootstrap(env, "wrong", req), http.StatusUnauthorized, portalsdk.ErrorCodeUnauthorized)
		require.Equal(t, "Invalid bootstrap token", body.ErrorDescription)
	})

	t.Run("validation", func(t *testing.T) {
		env := newBareEnv(t, false)

		rec := bootstrap(env, bootstrapToken, portalsdk.BootstrapRequest{OperatorEmail: "nope"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[portalsdk.ValidationErrorResponse](t, rec)
		require.Equal(t, "validation_error", body.Code)
		require.Contains(t, body.Details, "fundName")
		require.Contains(t, body.Details, "operatorEmail")
		require.Contains(t, body.Details, "operatorPassword")
	})

	t.Run("disabled without a configured token", func(t *testing.T) {
		env := newBareEnv(t, false)
		env.router.BootstrapService.Token = ""

		requireError(t, bootstrap(env, "anything", req), http.StatusNotFound, portalsdk.ErrorCodeNotFound)
	})
}
