package service

import (
	"context"
	"testing"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/stretchr/testify/require"
)

func TestApplicationService(t *testing.T) {
	ctx := context.Background()

	valid := NewApplication{
		FundID:        "fund-1",
		ApplicantType: domain.ApplicantIndividual,
		FirstName:     " Ada ",
		LastName:      "Lovelace",
		Email:         "A@Example.com",
		Phone:         "+61 400 000 000",
	}

	t.Run("create and get", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.store.Funds().CreateFund(ctx, domain.Fund{ID: "fund-1", Name: "Harbor", CreatedAt: t0}))
		svc := &ApplicationService{Store: env.store}

		app, err := svc.Create(ctx, valid, t0)
		require.NoError(t, err)
		require.Equal(t, "Ada", app.FirstName)
		require.Equal(t, "a@example.com", app.Email)
		require.Equal(t, domain.ApplicationApproved, app.Status)

		got, err := svc.Get(ctx, app.ID, "fund-1")
		require.NoError(t, err)
		require.Equal(t, app.ID, got.ID)

		_, err = svc.Get(ctx, app.ID, "fund-2")
		require.ErrorIs(t, err, ErrApplicationNotFound)

		_, err = svc.Get(ctx, "ghost", "fund-1")
		require.ErrorIs(t, err, ErrApplicationNotFound)
	})

	t.Run("unknown fund", func(t *testing.T) {
		env := newTestEnv(t)
		svc := &ApplicationService{Store: env.store}

		_, err := svc.Create(ctx, valid, t0)
		require.ErrorIs(t, err, ErrFundNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		svc := &ApplicationService{Store: env.store}

		cases := map[string]func(*NewApplication){
			"missing fund":     func(a *NewApplication) { a.FundID = "" },
			"missing name":     func(a *NewApplication) { a.LastName = " " },
			"bad email":        func(a *NewApplication) { a.Email = "not-an-email" },
			"unknown type":     func(a *NewApplication) { a.ApplicantType = "trust" },
			"entity no name":   func(a *NewApplication) { a.ApplicantType = domain.ApplicantEntity },
			"entity no signer": func(a *NewApplication) { a.ApplicantType, a.EntityName = domain.ApplicantEntity, "Engines LLC" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				in := valid
				mutate(&in)
				_, err := svc.Create(ctx, in, t0)
				require.ErrorIs(t, err, ErrInvalidApplication)
			})
		}
	})
}
