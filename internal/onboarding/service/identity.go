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
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/harborfund/portal/pkg/slogx"
)

// MinPasswordLength is the only password policy enforced at signup.
const MinPasswordLength = 8

// IdentityService is the store-backed identity provider. An identity is
// shared by every fund membership of the same email.
type IdentityService struct {
	Store    store.Store
	Sessions *SessionService
}

// CreateIdentity registers email with an argon2id password hash.
// Confirmed identities have their email marked verified at now.
func (s *IdentityService) CreateIdentity(
	ctx context.Context,
	email, password string,
	confirmed bool,
	now time.Time,
) (domain.Identity, error) {
	if len(password) < MinPasswordLength {
		return domain.Identity{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Identity{}, err
	}

	ident := domain.Identity{
		ID:           idx.NewAt(now).String(),
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if confirmed {
		at := now
		ident.EmailConfirmedAt = &at
	}

	if err := s.Store.Identities().CreateIdentity(ctx, ident); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Identity{}, ErrIdentityExists
		}
		return domain.Identity{}, storageErr("create identity", err)
	}

	slogx.FromContext(ctx).Info("identity created", slog.String("identity_id", ident.ID))
	return ident, nil
}

// DeleteIdentity removes the identity along with its memberships and sessions.
func (s *IdentityService) DeleteIdentity(ctx context.Context, id string) error {
	if err := s.Store.Identities().DeleteIdentity(ctx, id); err != nil {
		return storageErr("delete identity", err)
	}
	return nil
}

// SignIn checks the password and opens a session on the fund membership.
// An empty fundID is accepted when the identity belongs to exactly one fund.
func (s *IdentityService) SignIn(
	ctx context.Context,
	email, password, fundID string,
	now time.Time,
) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	ident, err := s.Store.Identities().GetIdentityByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, storageErr("load identity", err)
	}

	if err := cryptox.VerifyPassword(password, ident.PasswordHash); err != nil {
		log.Info("password sign-in failed", slog.String("identity_id", ident.ID))
		return domain.TokenPair{}, ErrInvalidCredentials
	}
	if ident.EmailConfirmedAt == nil {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	u, err := s.membership(ctx, ident.ID, fundID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return s.Sessions.Issue(ctx, ident, u, []string{jwtx.AMRPassword}, now)
}

func (s *IdentityService) membership(ctx context.Context, identityID, fundID string) (domain.User, error) {
	if fundID != "" {
		u, err := s.Store.Users().GetUserByIdentityAndFund(ctx, identityID, fundID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, ErrInvalidCredentials
			}
			return domain.User{}, storageErr("load membership", err)
		}
		return u, nil
	}

	users, err := s.Store.Users().ListUsersByIdentity(ctx, identityID)
	if err != nil {
		return domain.User{}, storageErr("list memberships", err)
	}
	if len(users) != 1 {
		return domain.User{}, ErrInvalidCredentials
	}
	return users[0], nil
}
