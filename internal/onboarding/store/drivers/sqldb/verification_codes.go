package sqldb

import (
	"context"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type verificationCodesRepo struct{ repo }

func (r *verificationCodesRepo) CreateVerificationCode(ctx context.Context, c domain.VerificationCode) error {
	return r.mapWrite(r.q.CreateVerificationCode(ctx, gen.CreateVerificationCodeParams{
		ID:        c.ID,
		Email:     c.Email,
		Purpose:   string(c.Purpose),
		Code:      c.Code,
		CreatedAt: dbTime(c.CreatedAt),
		ExpiresAt: dbTime(c.ExpiresAt),
	}))
}

func (r *verificationCodesRepo) DeleteUnverifiedCodes(
	ctx context.Context,
	email string,
	purpose domain.Purpose,
) (int64, error) {
	return r.q.DeleteUnverifiedCodes(ctx, gen.DeleteUnverifiedCodesParams{
		Email:   email,
		Purpose: string(purpose),
	})
}

func (r *verificationCodesRepo) GetLatestUnverifiedCode(
	ctx context.Context,
	email string,
	purpose domain.Purpose,
) (domain.VerificationCode, error) {
	row, err := r.q.GetLatestUnverifiedCode(ctx, gen.GetLatestUnverifiedCodeParams{
		Email:   email,
		Purpose: string(purpose),
	})
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return mapVerificationCode(row), nil
}

func (r *verificationCodesRepo) GetLatestVerifiedCode(
	ctx context.Context,
	email string,
	purpose domain.Purpose,
) (domain.VerificationCode, error) {
	row, err := r.q.GetLatestVerifiedCode(ctx, gen.GetLatestVerifiedCodeParams{
		Email:   email,
		Purpose: string(purpose),
	})
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return mapVerificationCode(row), nil
}

func (r *verificationCodesRepo) IncrementCodeAttempts(ctx context.Context, id string) (domain.VerificationCode, error) {
	row, err := r.q.IncrementCodeAttempts(ctx, id)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return mapVerificationCode(row), nil
}

func (r *verificationCodesRepo) MarkCodeVerified(ctx context.Context, id string, at time.Time) error {
	return mapAffected(r.q.MarkCodeVerified(ctx, gen.MarkCodeVerifiedParams{
		VerifiedAt: dbTime(at),
		ID:         id,
	}))
}

func (r *verificationCodesRepo) DeleteExpiredCodes(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteExpiredCodes(ctx, dbTime(before))
}

func (r *verificationCodesRepo) DeleteVerifiedCodesBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteVerifiedCodesBefore(ctx, dbTime(before))
}
