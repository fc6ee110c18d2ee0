package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/harborfund/portal/pkg/idx"
	"github.com/harborfund/portal/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapInvalid      = errors.New("invalid bootstrap request")
)

// BootstrapResult names the records created by Bootstrap.
type BootstrapResult struct {
	FundID     string
	IdentityID string
	UserID     string
}

type BootstrapService struct {
	Store store.Store
	Token string // pre-configured bootstrap token
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Funds().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the first fund and its operator in one transaction.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	req domain.BootstrapData,
	now time.Time,
) (BootstrapResult, error) {
	l := slogx.FromContext(ctx)

	// 1. Validate provided token
	if s.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return BootstrapResult{}, ErrBootstrapUnauthorized
	}

	// 2. Check if already bootstrapped
	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return BootstrapResult{}, storageErr("check bootstrap", err)
	} else if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return BootstrapResult{}, ErrBootstrapAlready
	}

	// 3. Validate request
	req.FundName = strings.TrimSpace(req.FundName)
	req.OperatorEmail = domain.NormalizeEmail(req.OperatorEmail)
	if req.FundName == "" || req.OperatorEmail == "" {
		return BootstrapResult{}, ErrBootstrapInvalid
	}
	if len(req.OperatorPassword) < MinPasswordLength {
		return BootstrapResult{}, ErrWeakPassword
	}

	// 4. Hash password
	passHash, err := cryptox.HashPassword(req.OperatorPassword)
	if err != nil {
		l.Error("failed to hash operator password", slog.Any("error", err))
		return BootstrapResult{}, err
	}

	// 5. Create fund, identity and operator membership in a transaction
	confirmed := now
	res := BootstrapResult{
		FundID:     idx.NewAt(now).String(),
		IdentityID: idx.NewAt(now).String(),
		UserID:     idx.NewAt(now).String(),
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Funds().CreateFund(ctx, domain.Fund{ID: res.FundID, Name: req.FundName, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.Identities().CreateIdentity(ctx, domain.Identity{
			ID:               res.IdentityID,
			Email:            req.OperatorEmail,
			PasswordHash:     passHash,
			EmailConfirmedAt: &confirmed,
			CreatedAt:        now,
		}); err != nil {
			return err
		}
		return tx.Users().CreateUser(ctx, domain.User{
			ID:         res.UserID,
			IdentityID: res.IdentityID,
			FundID:     res.FundID,
			Email:      req.OperatorEmail,
			Role:       domain.RoleOperator,
			CreatedAt:  now,
		})
	})
	if err != nil {
		l.Error("bootstrap failed", slog.Any("error", err))
		return BootstrapResult{}, storageErr("bootstrap", err)
	}

	l.Info("successfully bootstrapped system",
		slog.String("fund_id", res.FundID),
		slog.String("operator_user_id", res.UserID),
	)
	return res, nil
}
