package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/harborfund/portal/pkg/idx"
	"github.com/harborfund/portal/pkg/slogx"
)

// AccountTokenTTL is how long an emailed account creation link stays valid.
const AccountTokenTTL = 7 * 24 * time.Hour

// IssuedToken is returned once; only its fingerprint is stored.
type IssuedToken struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

// AccountTokenService manages single-use account creation tokens. Rows are
// never deleted and serve as the invite audit trail.
type AccountTokenService struct {
	Store store.Store
}

// Issue mints a token for an application. The token is returned only after
// its row is written.
func (s *AccountTokenService) Issue(
	ctx context.Context,
	applicationID, fundID, email string,
	now time.Time,
) (IssuedToken, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return IssuedToken{}, err
	}

	row := domain.AccountCreationToken{
		ID:            idx.NewAt(now).String(),
		TokenHash:     cryptox.FingerprintToken(token),
		ApplicationID: applicationID,
		FundID:        fundID,
		Email:         domain.NormalizeEmail(email),
		CreatedAt:     now,
		ExpiresAt:     now.Add(AccountTokenTTL),
	}
	if err := s.Store.AccountTokens().CreateAccountToken(ctx, row); err != nil {
		return IssuedToken{}, storageErr("issue account token", err)
	}

	slogx.FromContext(ctx).Info("account creation token issued",
		slog.String("token_id", row.ID),
		slog.String("application_id", applicationID),
		slog.String("fund_id", fundID),
	)

	return IssuedToken{ID: row.ID, Token: token, ExpiresAt: row.ExpiresAt}, nil
}

// Verify returns the token row if it is usable at now. It never mutates.
// Rejections are checked in order: not found, expired, already used.
func (s *AccountTokenService) Verify(
	ctx context.Context,
	token string,
	now time.Time,
) (domain.AccountCreationToken, error) {
	if token == "" {
		return domain.AccountCreationToken{}, ErrTokenNotFound
	}

	row, err := s.Store.AccountTokens().GetAccountTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccountCreationToken{}, ErrTokenNotFound
		}
		return domain.AccountCreationToken{}, storageErr("verify account token", err)
	}

	if row.Expired(now) {
		return domain.AccountCreationToken{}, ErrTokenExpired
	}
	if row.Used() {
		return domain.AccountCreationToken{}, ErrTokenUsed
	}
	return row, nil
}

// MarkUsed consumes the token. Only one caller can win; the rest get
// ErrTokenUsed.
func (s *AccountTokenService) MarkUsed(ctx context.Context, token string, now time.Time) error {
	hash := cryptox.FingerprintToken(token)

	err := s.Store.AccountTokens().MarkAccountTokenUsed(ctx, hash, now)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return storageErr("mark account token used", err)
	}

	// Nothing unused matched: tell a consumed token apart from an unknown one.
	if _, err := s.Store.AccountTokens().GetAccountTokenByHash(ctx, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenNotFound
		}
		return storageErr("mark account token used", err)
	}
	return ErrTokenUsed
}
