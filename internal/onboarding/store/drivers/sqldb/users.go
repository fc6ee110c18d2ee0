package sqldb

import (
	"context"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type identitiesRepo struct{ repo }

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	return r.mapWrite(r.q.CreateIdentity(ctx, gen.CreateIdentityParams{
		ID:               i.ID,
		Email:            i.Email,
		PasswordHash:     i.PasswordHash,
		EmailConfirmedAt: mapOptionalTime(i.EmailConfirmedAt),
		CreatedAt:        dbTime(i.CreatedAt),
	}))
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	row, err := r.q.GetIdentityByID(ctx, id)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return mapIdentity(row), nil
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	row, err := r.q.GetIdentityByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return mapIdentity(row), nil
}

func (r *identitiesRepo) DeleteIdentity(ctx context.Context, id string) error {
	return mapAffected(r.q.DeleteIdentity(ctx, id))
}

type usersRepo struct{ repo }

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	return r.mapWrite(r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:         u.ID,
		IdentityID: u.IdentityID,
		FundID:     u.FundID,
		Email:      u.Email,
		Role:       string(u.Role),
		CreatedAt:  dbTime(u.CreatedAt),
	}))
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByIdentityAndFund(ctx context.Context, identityID, fundID string) (domain.User, error) {
	row, err := r.q.GetUserByIdentityAndFund(ctx, gen.GetUserByIdentityAndFundParams{
		IdentityID: identityID,
		FundID:     fundID,
	})
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) ListUsersByIdentity(ctx context.Context, identityID string) ([]domain.User, error) {
	rows, err := r.q.ListUsersByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapUser(row))
	}
	return out, nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	return mapAffected(r.q.DeleteUser(ctx, id))
}

type investorsRepo struct{ repo }

func (r *investorsRepo) CreateInvestor(ctx context.Context, inv domain.Investor) error {
	return r.mapWrite(r.q.CreateInvestor(ctx, gen.CreateInvestorParams{
		ID:            inv.ID,
		FundID:        inv.FundID,
		UserID:        inv.UserID,
		ApplicationID: inv.ApplicationID,
		FirstName:     inv.FirstName,
		LastName:      inv.LastName,
		Email:         inv.Email,
		Phone:         mapStringNull(inv.Phone),
		InvestorType:  string(inv.InvestorType),
		EntityName:    mapStringNull(inv.EntityName),
		Status:        string(inv.Status),
		CreatedAt:     dbTime(inv.CreatedAt),
	}))
}

func (r *investorsRepo) GetInvestorByID(ctx context.Context, id string) (domain.Investor, error) {
	row, err := r.q.GetInvestorByID(ctx, id)
	if err != nil {
		return domain.Investor{}, mapNotFound(err)
	}
	return mapInvestor(row), nil
}

func (r *investorsRepo) GetInvestorByApplicationID(ctx context.Context, applicationID string) (domain.Investor, error) {
	row, err := r.q.GetInvestorByApplicationID(ctx, applicationID)
	if err != nil {
		return domain.Investor{}, mapNotFound(err)
	}
	return mapInvestor(row), nil
}
