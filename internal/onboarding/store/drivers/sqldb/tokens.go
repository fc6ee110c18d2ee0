package sqldb

import (
	"context"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type accountTokensRepo struct{ repo }

func (r *accountTokensRepo) CreateAccountToken(ctx context.Context, t domain.AccountCreationToken) error {
	return r.mapWrite(r.q.CreateAccountToken(ctx, gen.CreateAccountTokenParams{
		ID:            t.ID,
		TokenHash:     t.TokenHash,
		ApplicationID: t.ApplicationID,
		FundID:        t.FundID,
		Email:         t.Email,
		CreatedAt:     dbTime(t.CreatedAt),
		ExpiresAt:     dbTime(t.ExpiresAt),
	}))
}

func (r *accountTokensRepo) GetAccountTokenByHash(
	ctx context.Context,
	hash string,
) (domain.AccountCreationToken, error) {
	row, err := r.q.GetAccountTokenByHash(ctx, hash)
	if err != nil {
		return domain.AccountCreationToken{}, mapNotFound(err)
	}
	return mapAccountToken(row), nil
}

func (r *accountTokensRepo) MarkAccountTokenUsed(ctx context.Context, hash string, at time.Time) error {
	return mapAffected(r.q.MarkAccountTokenUsed(ctx, gen.MarkAccountTokenUsedParams{
		UsedAt:    dbTime(at),
		TokenHash: hash,
	}))
}

type refreshTokensRepo struct{ repo }

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	return r.mapWrite(r.q.CreateRefreshToken(ctx, gen.CreateRefreshTokenParams{
		ID:         t.ID,
		IdentityID: t.IdentityID,
		UserID:     t.UserID,
		FundID:     t.FundID,
		TokenHash:  t.TokenHash,
		SessionID:  t.SessionID,
		Scopes:     strings.Join(t.Scopes, " "),
		ExpiresAt:  dbTime(t.ExpiresAt),
		CreatedAt:  dbTime(t.CreatedAt),
	}))
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row, err := r.q.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error {
	return r.q.RevokeRefreshToken(ctx, gen.RevokeRefreshTokenParams{
		RevokedAt: dbTime(at),
		TokenHash: hash,
	})
}

func (r *refreshTokensRepo) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	return r.q.RevokeSession(ctx, gen.RevokeSessionParams{
		RevokedAt: dbTime(at),
		SessionID: sessionID,
	})
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteExpiredRefreshTokens(ctx, dbTime(before))
}
