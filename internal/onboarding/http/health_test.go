package http

import (
	"net/http"
	"testing"

	"github.com/harborfund/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	env := newBareEnv(t, false)

	rec := env.get(t, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)
	live := decode[portalsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)
	require.Nil(t, live.Checks)

	rec = env.get(t, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[portalsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)

	require.NoError(t, env.store.Close())
	rec = env.get(t, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ready = decode[portalsdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", ready.Status)
	require.Contains(t, ready.Checks.Database, "error")
}
