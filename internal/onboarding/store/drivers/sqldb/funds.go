package sqldb

import (
	"context"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type fundsRepo struct{ repo }

func (r *fundsRepo) CreateFund(ctx context.Context, f domain.Fund) error {
	return r.mapWrite(r.q.CreateFund(ctx, gen.CreateFundParams{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: dbTime(f.CreatedAt),
	}))
}

func (r *fundsRepo) GetFundByID(ctx context.Context, id string) (domain.Fund, error) {
	row, err := r.q.GetFundByID(ctx, id)
	if err != nil {
		return domain.Fund{}, mapNotFound(err)
	}
	return mapFund(row), nil
}

func (r *fundsRepo) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.q.CountFunds(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

type applicationsRepo struct{ repo }

func (r *applicationsRepo) CreateApplication(ctx context.Context, a domain.KYCApplication) error {
	return r.mapWrite(r.q.CreateApplication(ctx, gen.CreateApplicationParams{
		ID:              a.ID,
		FundID:          a.FundID,
		ApplicantType:   string(a.ApplicantType),
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		Phone:           mapStringNull(a.Phone),
		EntityName:      mapStringNull(a.EntityName),
		SignerFirstName: mapStringNull(a.SignerFirstName),
		SignerLastName:  mapStringNull(a.SignerLastName),
		Status:          string(a.Status),
		CreatedAt:       dbTime(a.CreatedAt),
		UpdatedAt:       dbTime(a.UpdatedAt),
	}))
}

func (r *applicationsRepo) GetApplicationByID(ctx context.Context, id string) (domain.KYCApplication, error) {
	row, err := r.q.GetApplicationByID(ctx, id)
	if err != nil {
		return domain.KYCApplication{}, mapNotFound(err)
	}
	return mapApplication(row), nil
}

func (r *applicationsRepo) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status domain.ApplicationStatus,
	at time.Time,
) error {
	return mapAffected(r.q.UpdateApplicationStatus(ctx, gen.UpdateApplicationStatusParams{
		Status:    string(status),
		UpdatedAt: dbTime(at),
		ID:        id,
	}))
}
