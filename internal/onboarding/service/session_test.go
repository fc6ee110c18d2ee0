package service

import (
	"context"
	"testing"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// bootstrapOperator creates a fund with an operator and returns its ids.
func bootstrapOperator(t *testing.T, env *testEnv) BootstrapResult {
	t.Helper()
	bs := &BootstrapService{Store: env.store, Token: "boot"}
	res, err := bs.Bootstrap(context.Background(), "boot", domain.BootstrapData{
		FundName:         "Harbor Fund I",
		OperatorEmail:    "ops@harbor.example",
		OperatorPassword: testPassword,
	}, t0)
	require.NoError(t, err)
	return res
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("operator session carries fund scopes", func(t *testing.T) {
		env := newTestEnv(t)
		res := bootstrapOperator(t, env)

		pair, err := env.identity.SignIn(ctx, "OPS@harbor.example", testPassword, "", t0)
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, jwtx.DefaultAccessTokenTTL, pair.ExpiresIn)
		require.Contains(t, pair.Scope, domain.ScopeInvitesWrite)

		claims, err := env.keys.Verifier.Verify(pair.AccessToken, t0)
		require.NoError(t, err)
		require.Equal(t, res.IdentityID, claims.Subject)
		require.Equal(t, res.FundID, claims.FundID)
		require.Equal(t, string(domain.RoleOperator), claims.Role)
		require.True(t, claims.HasScope(domain.ScopeInvitesWrite))
		require.Equal(t, []string{jwtx.AMRPassword}, claims.AMR)
		require.NotEmpty(t, claims.SID)

		rt, err := env.store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(pair.RefreshToken))
		require.NoError(t, err)
		require.Equal(t, claims.SID, rt.SessionID)
		require.Equal(t, res.UserID, rt.UserID)
	})

	t.Run("bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		res := bootstrapOperator(t, env)

		_, err := env.identity.SignIn(ctx, "ops@harbor.example", "wrong password", "", t0)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = env.identity.SignIn(ctx, "nobody@harbor.example", testPassword, "", t0)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = env.identity.SignIn(ctx, "ops@harbor.example", testPassword, "other-fund", t0)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = env.identity.SignIn(ctx, "ops@harbor.example", testPassword, res.FundID, t0)
		require.NoError(t, err)
	})

	t.Run("unconfirmed email cannot sign in", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.identity.CreateIdentity(ctx, "new@example.com", testPassword, false, t0)
		require.NoError(t, err)

		_, err = env.identity.SignIn(ctx, "new@example.com", testPassword, "", t0)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("create identity", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.identity.CreateIdentity(ctx, "new@example.com", "short", true, t0)
		require.ErrorIs(t, err, ErrWeakPassword)

		ident, err := env.identity.CreateIdentity(ctx, "New@Example.com", testPassword, true, t0)
		require.NoError(t, err)
		require.Equal(t, "new@example.com", ident.Email)
		require.NotContains(t, ident.PasswordHash, testPassword)

		_, err = env.identity.CreateIdentity(ctx, "new@example.com", testPassword, true, t0)
		require.ErrorIs(t, err, ErrIdentityExists)

		require.NoError(t, env.identity.DeleteIdentity(ctx, ident.ID))
		_, err = env.identity.CreateIdentity(ctx, "new@example.com", testPassword, true, t0)
		require.NoError(t, err)
	})
}

func TestSessionRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation keeps the session", func(t *testing.T) {
		env := newTestEnv(t)
		bootstrapOperator(t, env)
		pair, err := env.identity.SignIn(ctx, "ops@harbor.example", testPassword, "", t0)
		require.NoError(t, err)
		first, err := env.keys.Verifier.Verify(pair.AccessToken, t0)
		require.NoError(t, err)

		later := t0.Add(10 * time.Minute)
		next, err := env.sessions.Refresh(ctx, pair.RefreshToken, later)
		require.NoError(t, err)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		claims, err := env.keys.Verifier.Verify(next.AccessToken, later)
		require.NoError(t, err)
		require.Equal(t, first.SID, claims.SID)
		require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMRRefresh}, claims.AMR)
	})

	t.Run("replayed token revokes the session", func(t *testing.T) {
		env := newTestEnv(t)
		bootstrapOperator(t, env)
		pair, err := env.identity.SignIn(ctx, "ops@harbor.example", testPassword, "", t0)
		require.NoError(t, err)

		next, err := env.sessions.Refresh(ctx, pair.RefreshToken, t0)
		require.NoError(t, err)

		_, err = env.sessions.Refresh(ctx, pair.RefreshToken, t0)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		_, err = env.sessions.Refresh(ctx, next.RefreshToken, t0)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("expired and unknown tokens", func(t *testing.T) {
		env := newTestEnv(t)
		bootstrapOperator(t, env)
		pair, err := env.identity.SignIn(ctx, "ops@harbor.example", testPassword, "", t0)
		require.NoError(t, err)

		_, err = env.sessions.Refresh(ctx, pair.RefreshToken, t0.Add(jwtx.DefaultRefreshTokenTTL))
		require.ErrorIs(t, err, ErrInvalidRefresh)

		_, err = env.sessions.Refresh(ctx, "unknown", t0)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("revoked token cannot refresh", func(t *testing.T) {
		env := newTestEnv(t)
		bootstrapOperator(t, env)
		pair, err := env.identity.SignIn(ctx, "ops@harbor.example", testPassword, "", t0)
		require.NoError(t, err)

		require.NoError(t, env.sessions.Revoke(ctx, pair.RefreshToken, t0))
		require.NoError(t, env.sessions.Revoke(ctx, "unknown", t0))

		_, err = env.sessions.Refresh(ctx, pair.RefreshToken, t0)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}
