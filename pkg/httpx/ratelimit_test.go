package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	fixed := func(string) httpx.KeyExtractor {
		return func(*http.Request) string { return "alice" }
	}

	key := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, fixed("alice"))(req)
	require.Equal(t, "192.168.1.1:alice", key)

	// No authenticated user: only the IP remains.
	key = httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, httpx.IPKeyExtractor)(req)
	require.Equal(t, "192.168.1.1", key)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
	h := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler())

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/account-creation/send-code", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for range 3 {
		require.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	}

	rec := do("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// Other clients have their own budget.
	require.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestRateLimit_EmptyKeyPassesThrough(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := httpx.RateLimitMiddleware(config, func(*http.Request) string { return "" })(okHandler())

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (httpx.Decision, error) {
	return httpx.Decision{}, errors.New("backend down")
}

func TestRateLimit_FailsOpenOnBackendError(t *testing.T) {
	h := httpx.RateLimit(failingLimiter{}, httpx.StrictLimit, httpx.IPKeyExtractor)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	t.Setenv("RATELIMIT_TESTPROFILE_REQUESTS", "50")
	t.Setenv("RATELIMIT_TESTPROFILE_WINDOW_SEC", "10")
	t.Setenv("RATELIMIT_TESTPROFILE_BURST", "-3")

	got := httpx.ParseRateLimitFromEnv("TESTPROFILE", def)
	require.Equal(t, 50, got.RequestsPerWindow)
	require.Equal(t, 10*time.Second, got.Window)
	require.Equal(t, 5, got.Burst)
}

func newRedisLimiterForTest(t *testing.T, cfg httpx.RateLimitConfig) (*miniredis.Miniredis, *httpx.RedisLimiter) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, httpx.NewRedisLimiter(client, "rl_test", cfg)
}

func TestRedisLimiter_AllowThenDeny(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute}
	m, limiter := newRedisLimiterForTest(t, cfg)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)

	d, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Positive(t, d.RetryAfter)

	// A new window opens once the key expires.
	m.FastForward(time.Minute + time.Second)
	d, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute}
	m := miniredis.RunT(t)

	clientA := redis.NewClient(&redis.Options{Addr: m.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = clientA.Close()
		_ = clientB.Close()
	})

	a := httpx.NewRedisLimiter(clientA, "rl", cfg)
	b := httpx.NewRedisLimiter(clientB, "rl", cfg)

	d, err := a.Allow(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = b.Allow(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestRedisLimiter_Errors(t *testing.T) {
	_, err := httpx.NewRedisLimiter(nil, "", httpx.StrictLimit).Allow(context.Background(), "k")
	require.Error(t, err)

	bad := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 20 * time.Millisecond})
	t.Cleanup(func() { _ = bad.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = httpx.NewRedisLimiter(bad, "", httpx.StrictLimit).Allow(ctx, "k")
	require.Error(t, err)
}
