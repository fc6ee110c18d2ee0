// Package storetest is a conformance suite run against every store driver.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/idx"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Run exercises s, which must be freshly migrated and empty.
func Run(t *testing.T, s store.Store) {
	t.Run("funds", func(t *testing.T) { testFunds(t, s) })
	t.Run("applications", func(t *testing.T) { testApplications(t, s) })
	t.Run("account tokens", func(t *testing.T) { testAccountTokens(t, s) })
	t.Run("verification codes", func(t *testing.T) { testVerificationCodes(t, s) })
	t.Run("identities and users", func(t *testing.T) { testIdentitiesAndUsers(t, s) })
	t.Run("investors", func(t *testing.T) { testInvestors(t, s) })
	t.Run("refresh tokens", func(t *testing.T) { testRefreshTokens(t, s) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, s) })
}

// SeedApplication inserts a fund (if missing) and an individual application.
func SeedApplication(t *testing.T, s store.Store, fundID, appID, email string) domain.KYCApplication {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Funds().GetFundByID(ctx, fundID); errors.Is(err, store.ErrNotFound) {
		require.NoError(t, s.Funds().CreateFund(ctx, domain.Fund{ID: fundID, Name: "Fund " + fundID, CreatedAt: t0}))
	} else {
		require.NoError(t, err)
	}

	app := domain.KYCApplication{
		ID:            appID,
		FundID:        fundID,
		ApplicantType: domain.ApplicantIndividual,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         email,
		Phone:         "+61 400 000 000",
		Status:        domain.ApplicationApproved,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	require.NoError(t, s.Applications().CreateApplication(ctx, app))
	return app
}

func testFunds(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.Funds().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	f := domain.Fund{ID: "fund-funds", Name: "Harbor I", CreatedAt: t0}
	require.NoError(t, s.Funds().CreateFund(ctx, f))
	require.ErrorIs(t, s.Funds().CreateFund(ctx, f), store.ErrAlreadyExists)

	got, err := s.Funds().GetFundByID(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, f, got)

	empty, err = s.Funds().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	_, err = s.Funds().GetFundByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testApplications(t *testing.T, s store.Store) {
	ctx := context.Background()
	app := SeedApplication(t, s, "fund-apps", "app-apps", "apps@example.com")

	got, err := s.Applications().GetApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, app, got)

	later := t0.Add(time.Hour)
	require.NoError(t, s.Applications().UpdateApplicationStatus(ctx, app.ID, domain.ApplicationAccountInviteSent, later))
	got, err = s.Applications().GetApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationAccountInviteSent, got.Status)
	require.True(t, later.Equal(got.UpdatedAt))

	err = s.Applications().UpdateApplicationStatus(ctx, "missing", domain.ApplicationAccountCreated, later)
	require.ErrorIs(t, err, store.ErrNotFound)

	entity := domain.KYCApplication{
		ID:              "app-entity",
		FundID:          "fund-apps",
		ApplicantType:   domain.ApplicantEntity,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "entity@example.com",
		EntityName:      "Analytical Engines LLC",
		SignerFirstName: "Charles",
		SignerLastName:  "Babbage",
		Status:          domain.ApplicationApproved,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	}
	require.NoError(t, s.Applications().CreateApplication(ctx, entity))
	got, err = s.Applications().GetApplicationByID(ctx, entity.ID)
	require.NoError(t, err)
	require.Equal(t, entity, got)
}

func testAccountTokens(t *testing.T, s store.Store) {
	ctx := context.Background()

	tok := domain.AccountCreationToken{
		ID:            idx.New().String(),
		TokenHash:     "hash-1",
		ApplicationID: "prospect-1",
		FundID:        "fund-1",
		Email:         "a@example.com",
		CreatedAt:     t0,
		ExpiresAt:     t0.Add(7 * 24 * time.Hour),
	}
	require.NoError(t, s.AccountTokens().CreateAccountToken(ctx, tok))

	dup := tok
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.AccountTokens().CreateAccountToken(ctx, dup), store.ErrAlreadyExists)

	got, err := s.AccountTokens().GetAccountTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, tok, got)
	require.Nil(t, got.UsedAt)

	usedAt := t0.Add(time.Hour)
	require.NoError(t, s.AccountTokens().MarkAccountTokenUsed(ctx, "hash-1", usedAt))
	require.ErrorIs(t, s.AccountTokens().MarkAccountTokenUsed(ctx, "hash-1", usedAt), store.ErrNotFound)

	got, err = s.AccountTokens().GetAccountTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)
	require.True(t, usedAt.Equal(*got.UsedAt))

	_, err = s.AccountTokens().GetAccountTokenByHash(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testVerificationCodes(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.VerificationCodes()
	email := "codes@example.com"
	purpose := domain.PurposeAccountCreation

	first := domain.VerificationCode{
		ID:        idx.New().String(),
		Email:     email,
		Purpose:   purpose,
		Code:      "123456",
		CreatedAt: t0,
		ExpiresAt: t0.Add(10 * time.Minute),
	}
	require.NoError(t, repo.CreateVerificationCode(ctx, first))

	second := first
	second.ID = idx.New().String()
	second.Code = "654321"
	require.ErrorIs(t, repo.CreateVerificationCode(ctx, second), store.ErrAlreadyExists)

	// Another purpose has its own live code.
	other := first
	other.ID = idx.New().String()
	other.Purpose = domain.PurposeLogin
	require.NoError(t, repo.CreateVerificationCode(ctx, other))

	n, err := repo.DeleteUnverifiedCodes(ctx, email, purpose)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, repo.CreateVerificationCode(ctx, second))

	live, err := repo.GetLatestUnverifiedCode(ctx, email, purpose)
	require.NoError(t, err)
	require.Equal(t, second.ID, live.ID)
	require.Equal(t, "654321", live.Code)
	require.Zero(t, live.Attempts)

	bumped, err := repo.IncrementCodeAttempts(ctx, live.ID)
	require.NoError(t, err)
	require.Equal(t, 1, bumped.Attempts)
	bumped, err = repo.IncrementCodeAttempts(ctx, live.ID)
	require.NoError(t, err)
	require.Equal(t, 2, bumped.Attempts)

	_, err = repo.IncrementCodeAttempts(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	verifiedAt := t0.Add(2 * time.Minute)
	require.NoError(t, repo.MarkCodeVerified(ctx, live.ID, verifiedAt))
	require.ErrorIs(t, repo.MarkCodeVerified(ctx, live.ID, verifiedAt), store.ErrNotFound)

	_, err = repo.GetLatestUnverifiedCode(ctx, email, purpose)
	require.ErrorIs(t, err, store.ErrNotFound)

	done, err := repo.GetLatestVerifiedCode(ctx, email, purpose)
	require.NoError(t, err)
	require.Equal(t, live.ID, done.ID)
	require.NotNil(t, done.VerifiedAt)
	require.True(t, verifiedAt.Equal(*done.VerifiedAt))

	// A verified row no longer blocks a new live code.
	third := first
	third.ID = idx.New().String()
	require.NoError(t, repo.CreateVerificationCode(ctx, third))

	n, err = repo.DeleteExpiredCodes(ctx, t0.Add(11*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, n) // third and the login code

	n, err = repo.DeleteVerifiedCodesBefore(ctx, verifiedAt.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = repo.GetLatestVerifiedCode(ctx, email, purpose)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testIdentitiesAndUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedApplication(t, s, "fund-users", "app-users", "users@example.com")

	confirmed := t0
	ident := domain.Identity{
		ID:               idx.New().String(),
		Email:            "users@example.com",
		PasswordHash:     "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		EmailConfirmedAt: &confirmed,
		CreatedAt:        t0,
	}
	require.NoError(t, s.Identities().CreateIdentity(ctx, ident))

	dup := ident
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Identities().CreateIdentity(ctx, dup), store.ErrAlreadyExists)

	byEmail, err := s.Identities().GetIdentityByEmail(ctx, ident.Email)
	require.NoError(t, err)
	require.Equal(t, ident.ID, byEmail.ID)
	require.NotNil(t, byEmail.EmailConfirmedAt)

	u := domain.User{
		ID:         idx.New().String(),
		IdentityID: ident.ID,
		FundID:     "fund-users",
		Email:      ident.Email,
		Role:       domain.RoleInvestor,
		CreatedAt:  t0,
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByIdentityAndFund(ctx, ident.ID, "fund-users")
	require.NoError(t, err)
	require.Equal(t, u, got)

	list, err := s.Users().ListUsersByIdentity(ctx, ident.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:         idx.New().String(),
		IdentityID: ident.ID,
		UserID:     u.ID,
		FundID:     "fund-users",
		TokenHash:  "refresh-users",
		SessionID:  "sid-users",
		Scopes:     []string{domain.ScopePortalRead},
		ExpiresAt:  t0.Add(time.Hour),
		CreatedAt:  t0,
	}))

	// Deleting the identity cascades to memberships and sessions.
	require.NoError(t, s.Identities().DeleteIdentity(ctx, ident.ID))
	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "refresh-users")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Identities().DeleteIdentity(ctx, ident.ID), store.ErrNotFound)
	require.ErrorIs(t, s.Users().DeleteUser(ctx, u.ID), store.ErrNotFound)
}

func testInvestors(t *testing.T, s store.Store) {
	ctx := context.Background()
	app := SeedApplication(t, s, "fund-inv", "app-inv", "inv@example.com")

	ident := domain.Identity{ID: idx.New().String(), Email: app.Email, PasswordHash: "x", CreatedAt: t0}
	require.NoError(t, s.Identities().CreateIdentity(ctx, ident))
	u := domain.User{ID: idx.New().String(), IdentityID: ident.ID, FundID: app.FundID, Email: app.Email, Role: domain.RoleInvestor, CreatedAt: t0}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	inv := domain.Investor{
		ID:            idx.New().String(),
		FundID:        app.FundID,
		UserID:        u.ID,
		ApplicationID: app.ID,
		FirstName:     app.FirstName,
		LastName:      app.LastName,
		Email:         app.Email,
		Phone:         app.Phone,
		InvestorType:  app.ApplicantType,
		Status:        domain.InvestorAccountCreated,
		CreatedAt:     t0,
	}
	require.NoError(t, s.Investors().CreateInvestor(ctx, inv))

	got, err := s.Investors().GetInvestorByApplicationID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, inv, got)

	again := inv
	again.ID = idx.New().String()
	require.ErrorIs(t, s.Investors().CreateInvestor(ctx, again), store.ErrAlreadyExists)

	_, err = s.Investors().GetInvestorByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testRefreshTokens(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedApplication(t, s, "fund-rt", "app-rt", "rt@example.com")

	ident := domain.Identity{ID: idx.New().String(), Email: "rt@example.com", PasswordHash: "x", CreatedAt: t0}
	require.NoError(t, s.Identities().CreateIdentity(ctx, ident))
	u := domain.User{ID: idx.New().String(), IdentityID: ident.ID, FundID: "fund-rt", Email: ident.Email, Role: domain.RoleInvestor, CreatedAt: t0}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	mk := func(hash, sid string, exp time.Time) domain.RefreshToken {
		rt := domain.RefreshToken{
			ID:         idx.New().String(),
			IdentityID: ident.ID,
			UserID:     u.ID,
			FundID:     "fund-rt",
			TokenHash:  hash,
			SessionID:  sid,
			Scopes:     []string{"portal:read", "applications:read"},
			ExpiresAt:  exp,
			CreatedAt:  t0,
		}
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))
		return rt
	}

	a := mk("rt-a", "sid-1", t0.Add(time.Hour))
	mk("rt-b", "sid-1", t0.Add(time.Hour))
	mk("rt-c", "sid-2", t0.Add(-time.Hour))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "rt-a")
	require.NoError(t, err)
	require.Equal(t, a, got)

	require.NoError(t, s.RefreshTokens().RevokeSession(ctx, "sid-1", t0))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "rt-b")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, t0)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Funds().CreateFund(ctx, domain.Fund{ID: "fund-rolled-back", Name: "x", CreatedAt: t0}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.Funds().GetFundByID(ctx, "fund-rolled-back")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Funds().CreateFund(ctx, domain.Fund{ID: "fund-committed", Name: "x", CreatedAt: t0})
	})
	require.NoError(t, err)
	_, err = s.Funds().GetFundByID(ctx, "fund-committed")
	require.NoError(t, err)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	})
	require.Error(t, err)
}
