package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestAccountTokenService(t *testing.T) {
	ctx := context.Background()

	t.Run("issue stores only the fingerprint", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProspect(t)

		issued, err := env.tokens.Issue(ctx, "prospect-1", "fund-1", "A@Example.com", t0)
		require.NoError(t, err)
		require.Len(t, issued.Token, 43)
		require.Equal(t, t0.Add(AccountTokenTTL), issued.ExpiresAt)

		row, err := env.store.AccountTokens().GetAccountTokenByHash(ctx, cryptox.FingerprintToken(issued.Token))
		require.NoError(t, err)
		require.Equal(t, issued.ID, row.ID)
		require.NotEqual(t, issued.Token, row.TokenHash)
		require.Equal(t, "a@example.com", row.Email)
		require.Nil(t, row.UsedAt)
	})

	t.Run("verify is usable until the expiry instant", func(t *testing.T) {
		env := newTestEnv(t)
		issued, err := env.tokens.Issue(ctx, "prospect-1", "fund-1", "a@example.com", t0)
		require.NoError(t, err)

		row, err := env.tokens.Verify(ctx, issued.Token, issued.ExpiresAt.Add(-time.Nanosecond))
		require.NoError(t, err)
		require.Equal(t, "prospect-1", row.ApplicationID)
		require.Equal(t, "fund-1", row.FundID)

		_, err = env.tokens.Verify(ctx, issued.Token, issued.ExpiresAt)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("unknown and empty tokens are not found", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.tokens.Verify(ctx, "", t0)
		require.ErrorIs(t, err, ErrTokenNotFound)

		_, err = env.tokens.Verify(ctx, "no-such-token", t0)
		require.ErrorIs(t, err, ErrTokenNotFound)

		var tokErr *InvalidTokenError
		require.True(t, errors.As(err, &tokErr))
		require.Equal(t, TokenNotFound, tokErr.Reason)
		require.Equal(t, "invalid token: not found", err.Error())
	})

	t.Run("a token is consumed exactly once", func(t *testing.T) {
		env := newTestEnv(t)
		issued, err := env.tokens.Issue(ctx, "prospect-1", "fund-1", "a@example.com", t0)
		require.NoError(t, err)

		require.NoError(t, env.tokens.MarkUsed(ctx, issued.Token, t0.Add(time.Hour)))

		_, err = env.tokens.Verify(ctx, issued.Token, t0.Add(2*time.Hour))
		require.ErrorIs(t, err, ErrTokenUsed)

		err = env.tokens.MarkUsed(ctx, issued.Token, t0.Add(2*time.Hour))
		require.ErrorIs(t, err, ErrTokenUsed)

		require.ErrorIs(t, env.tokens.MarkUsed(ctx, "no-such-token", t0), ErrTokenNotFound)
	})

	t.Run("concurrent consumers have one winner", func(t *testing.T) {
		env := newTestEnv(t)
		issued, err := env.tokens.Issue(ctx, "prospect-1", "fund-1", "a@example.com", t0)
		require.NoError(t, err)

		const n = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
			used int
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := env.tokens.MarkUsed(ctx, issued.Token, t0)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, ErrTokenUsed):
					used++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, wins)
		require.Equal(t, n-1, used)
	})

	t.Run("expiry is reported before use", func(t *testing.T) {
		env := newTestEnv(t)
		issued, err := env.tokens.Issue(ctx, "prospect-1", "fund-1", "a@example.com", t0)
		require.NoError(t, err)
		require.NoError(t, env.tokens.MarkUsed(ctx, issued.Token, t0))

		_, err = env.tokens.Verify(ctx, issued.Token, issued.ExpiresAt.Add(time.Hour))
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("storage failures are wrapped", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.store.Close())

		_, err := env.tokens.Issue(ctx, "prospect-1", "fund-1", "a@example.com", t0)
		require.ErrorIs(t, err, ErrStorage)

		_, err = env.tokens.Verify(ctx, "anything", t0)
		require.ErrorIs(t, err, ErrStorage)
	})
}
