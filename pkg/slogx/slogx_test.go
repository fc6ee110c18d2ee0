package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harborfund/portal/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesServiceFields(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "onboarding", Version: "v1", Env: "test", Level: "debug", Output: &buf})
	logger.Debug("hello", slog.String("k", "v"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "onboarding", line["service"])
	require.Equal(t, "hello", line["msg"])
	require.Equal(t, "v", line["k"])
}

func TestNew_LevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Level: "warn", Format: "text", Output: &buf})
	logger.Info("dropped")
	require.Empty(t, buf.String())

	logger.Warn("kept")
	require.Contains(t, buf.String(), "kept")
}

func TestFromContext_DefaultsAndOverrides(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := slogx.With(slogx.WithContext(context.Background(), l), "step", "verify_token")
	slogx.FromContext(ctx).Info("x")
	require.Contains(t, buf.String(), `"step":"verify_token"`)
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var sawLogger bool
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = slogx.FromContext(r.Context()) != slog.Default()
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, sawLogger)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	require.Contains(t, buf.String(), `"req_id":"req-123"`)
	require.Contains(t, buf.String(), `"status":418`)
}
