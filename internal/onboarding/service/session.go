package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/harborfund/portal/pkg/idx"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/harborfund/portal/pkg/slogx"
)

// SessionService issues access JWTs and opaque, rotating refresh tokens.
type SessionService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue starts a new session for a fund membership.
func (s *SessionService) Issue(
	ctx context.Context,
	ident domain.Identity,
	u domain.User,
	amr []string,
	now time.Time,
) (domain.TokenPair, error) {
	sessionID := idx.NewAt(now).String()
	scopes := u.Role.Scopes()

	accessToken, err := s.signAccess(ident, u, sessionID, scopes, amr, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refreshOpaque, rt, err := s.newRefresh(ident, u, sessionID, scopes, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return domain.TokenPair{}, storageErr("store refresh token", err)
	}

	slogx.FromContext(ctx).Info("session issued",
		slog.String("user_id", u.ID),
		slog.String("fund_id", u.FundID),
		slog.String("sid", sessionID),
	)

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        strings.Join(scopes, " "),
	}, nil
}

// Refresh rotates a refresh token. Presenting a revoked token revokes the
// whole session since it has likely been replayed.
func (s *SessionService) Refresh(ctx context.Context, refreshOpaque string, now time.Time) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	// 1. Lookup the persisted refresh row by token fingerprint
	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, storageErr("load refresh token", err)
	}

	// 2. Validate token is not expired or revoked
	if rt.Revoked {
		log.Warn("revoked refresh token presented, revoking session", slog.String("sid", rt.SessionID))
		if err := s.Store.RefreshTokens().RevokeSession(ctx, rt.SessionID, now); err != nil {
			log.Error("failed to revoke session", slog.Any("error", err))
		}
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if !now.Before(rt.ExpiresAt) {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	// 3. Reload the membership so role changes take effect
	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, storageErr("load user", err)
	}
	ident, err := s.Store.Identities().GetIdentityByID(ctx, rt.IdentityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, storageErr("load identity", err)
	}
	scopes := u.Role.Scopes()

	// 4. Sign a new access token on the same session
	accessToken, err := s.signAccess(ident, u, rt.SessionID, scopes, []string{jwtx.AMRPassword, jwtx.AMRRefresh}, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// 5. Rotate: revoke the old row and store the new one atomically
	newOpaque, newRT, err := s.newRefresh(ident, u, rt.SessionID, scopes, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp, now); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	}); err != nil {
		return domain.TokenPair{}, storageErr("rotate refresh token", err)
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        strings.Join(scopes, " "),
	}, nil
}

// Revoke revokes a single refresh token. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, refreshOpaque string, now time.Time) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp, now); err != nil {
		return storageErr("revoke refresh token", err)
	}
	return nil
}

func (s *SessionService) signAccess(
	ident domain.Identity,
	u domain.User,
	sessionID string,
	scopes []string,
	amr []string,
	now time.Time,
) (string, error) {
	claims := jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject: ident.ID,
		SID:     sessionID,
		FundID:  u.FundID,
		Role:    string(u.Role),
		Email:   ident.Email,
		Scopes:  scopes,
		AMR:     amr,
	}, s.Issuer, s.Audience, s.AccessTTL, now)

	// GetSigner spreads signing across the active keys
	return s.KeyManager.GetSigner().Sign(claims)
}

func (s *SessionService) newRefresh(
	ident domain.Identity,
	u domain.User,
	sessionID string,
	scopes []string,
	now time.Time,
) (string, domain.RefreshToken, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}
	return opaque, domain.RefreshToken{
		ID:         idx.NewAt(now).String(),
		IdentityID: ident.ID,
		UserID:     u.ID,
		FundID:     u.FundID,
		TokenHash:  cryptox.FingerprintToken(opaque),
		SessionID:  sessionID,
		Scopes:     scopes,
		ExpiresAt:  now.Add(s.RefreshTTL),
		CreatedAt:  now,
	}, nil
}
