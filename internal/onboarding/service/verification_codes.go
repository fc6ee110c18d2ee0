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

const (
	CodeTTL                  = 10 * time.Minute
	MaxCodeAttempts          = 3
	RecentVerificationWindow = 5 * time.Minute

	codeMin = 100000
	codeMax = 999999

	// issueRetries bounds retries when a concurrent issuer inserts the live
	// code between our delete and insert.
	issueRetries = 3
)

// IssuedCode is the plaintext code to deliver and how long it lives.
type IssuedCode struct {
	Code      string
	ExpiresIn time.Duration
}

// VerificationCodeService manages six-digit one-time codes per (email, purpose).
type VerificationCodeService struct {
	Store store.Store

	// ConstantTime switches code comparison to a constant-time compare.
	ConstantTime bool
}

// Issue replaces any live code for (email, purpose) with a fresh one.
func (s *VerificationCodeService) Issue(
	ctx context.Context,
	email string,
	purpose domain.Purpose,
	now time.Time,
) (IssuedCode, error) {
	if !purpose.Valid() {
		return IssuedCode{}, ErrInvalidPurpose
	}
	email = domain.NormalizeEmail(email)

	code, err := cryptox.GenerateNumericCode(codeMin, codeMax)
	if err != nil {
		return IssuedCode{}, err
	}

	row := domain.VerificationCode{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
	}

	for attempt := 1; ; attempt++ {
		row.ID = idx.NewAt(now).String()
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.VerificationCodes().DeleteUnverifiedCodes(ctx, email, purpose); err != nil {
				return err
			}
			return tx.VerificationCodes().CreateVerificationCode(ctx, row)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt >= issueRetries {
			return IssuedCode{}, storageErr("issue verification code", err)
		}
	}

	slogx.FromContext(ctx).Info("verification code issued",
		slog.String("code_id", row.ID),
		slog.String("purpose", string(purpose)),
	)

	return IssuedCode{Code: code, ExpiresIn: CodeTTL}, nil
}

// Verify checks code against the live code for (email, purpose). A mismatch
// costs one attempt; a match marks the code verified.
func (s *VerificationCodeService) Verify(
	ctx context.Context,
	email, code string,
	purpose domain.Purpose,
	now time.Time,
) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}
	email = domain.NormalizeEmail(email)
	log := slogx.FromContext(ctx)

	// 1. Fetch the live code
	row, err := s.Store.VerificationCodes().GetLatestUnverifiedCode(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeNotFound
		}
		return storageErr("verify code", err)
	}

	// 2. Reject expired or locked codes before comparing
	if row.Expired(now) {
		return ErrCodeExpired
	}
	if row.Attempts >= MaxCodeAttempts {
		return ErrCodeTooManyAttempts
	}

	// 3. Mismatch costs one attempt
	if !s.equal(row.Code, code) {
		updated, err := s.Store.VerificationCodes().IncrementCodeAttempts(ctx, row.ID)
		if err != nil {
			return storageErr("record failed code attempt", err)
		}
		remaining := max(MaxCodeAttempts-updated.Attempts, 0)
		log.Warn("verification code mismatch",
			slog.String("code_id", row.ID),
			slog.Int("attempts", updated.Attempts),
		)
		return &InvalidCodeError{Reason: CodeMismatch, Remaining: remaining}
	}

	// 4. Match
	if err := s.Store.VerificationCodes().MarkCodeVerified(ctx, row.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Verified or superseded by a concurrent request.
			return ErrCodeNotFound
		}
		return storageErr("mark code verified", err)
	}
	return nil
}

// WasRecentlyVerified reports whether (email, purpose) had a code verified
// within RecentVerificationWindow of now. Read errors count as false.
func (s *VerificationCodeService) WasRecentlyVerified(
	ctx context.Context,
	email string,
	purpose domain.Purpose,
	now time.Time,
) bool {
	_, ok := s.recentlyVerified(ctx, email, purpose, now)
	return ok
}

// MatchesRecentlyVerified reports whether code is the code verified for
// (email, purpose) within RecentVerificationWindow of now.
func (s *VerificationCodeService) MatchesRecentlyVerified(
	ctx context.Context,
	email, code string,
	purpose domain.Purpose,
	now time.Time,
) bool {
	row, ok := s.recentlyVerified(ctx, email, purpose, now)
	return ok && code != "" && s.equal(row.Code, code)
}

func (s *VerificationCodeService) recentlyVerified(
	ctx context.Context,
	email string,
	purpose domain.Purpose,
	now time.Time,
) (domain.VerificationCode, bool) {
	row, err := s.Store.VerificationCodes().GetLatestVerifiedCode(ctx, domain.NormalizeEmail(email), purpose)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("failed to check recent verification", slog.Any("error", err))
		}
		return domain.VerificationCode{}, false
	}
	if row.VerifiedAt == nil {
		return domain.VerificationCode{}, false
	}
	since := now.Sub(*row.VerifiedAt)
	if since < 0 || since > RecentVerificationWindow {
		return domain.VerificationCode{}, false
	}
	return row, true
}

func (s *VerificationCodeService) equal(stored, submitted string) bool {
	if s.ConstantTime {
		return cryptox.EqualConstantTime(stored, submitted)
	}
	return stored == submitted
}
