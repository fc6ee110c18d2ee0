package store

import (
	"context"
	"errors"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

type Store interface {
	Funds() Funds
	Applications() Applications
	AccountTokens() AccountTokens
	VerificationCodes() VerificationCodes
	Identities() Identities
	Users() Users
	Investors() Investors
	RefreshTokens() RefreshTokens

	// ApplyMigrations brings the schema up to date.
	ApplyMigrations() error

	// Tx starts a transaction. Callers must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Funds interface {
	// CreateFund inserts a fund.
	CreateFund(ctx context.Context, f domain.Fund) error

	// GetFundByID fetches a fund.
	GetFundByID(ctx context.Context, id string) (domain.Fund, error)

	// IsEmpty reports whether no fund exists yet (bootstrap guard).
	IsEmpty(ctx context.Context) (bool, error)
}

type Applications interface {
	// CreateApplication inserts a KYC application.
	CreateApplication(ctx context.Context, a domain.KYCApplication) error

	// GetApplicationByID fetches a KYC application.
	GetApplicationByID(ctx context.Context, id string) (domain.KYCApplication, error)

	// UpdateApplicationStatus sets status and updated_at.
	UpdateApplicationStatus(ctx context.Context, id string, status domain.ApplicationStatus, at time.Time) error
}

type AccountTokens interface {
	// CreateAccountToken stores a token row. token_hash is the fingerprint of the opaque token.
	CreateAccountToken(ctx context.Context, t domain.AccountCreationToken) error

	// GetAccountTokenByHash fetches a token regardless of expiry or use.
	GetAccountTokenByHash(ctx context.Context, hash string) (domain.AccountCreationToken, error)

	// MarkAccountTokenUsed sets used_at on an unused token.
	// Returns ErrNotFound when no unused token has the hash.
	MarkAccountTokenUsed(ctx context.Context, hash string, at time.Time) error
}

type VerificationCodes interface {
	// CreateVerificationCode inserts a code. At most one unverified code may exist
	// per (email, purpose); a second insert returns ErrAlreadyExists.
	CreateVerificationCode(ctx context.Context, c domain.VerificationCode) error

	// DeleteUnverifiedCodes removes the live code for (email, purpose).
	DeleteUnverifiedCodes(ctx context.Context, email string, purpose domain.Purpose) (int64, error)

	// GetLatestUnverifiedCode returns the newest unverified code for (email, purpose).
	GetLatestUnverifiedCode(ctx context.Context, email string, purpose domain.Purpose) (domain.VerificationCode, error)

	// GetLatestVerifiedCode returns the most recently verified code for (email, purpose).
	GetLatestVerifiedCode(ctx context.Context, email string, purpose domain.Purpose) (domain.VerificationCode, error)

	// IncrementCodeAttempts adds one failed attempt and returns the updated row.
	IncrementCodeAttempts(ctx context.Context, id string) (domain.VerificationCode, error)

	// MarkCodeVerified sets verified_at on an unverified code.
	MarkCodeVerified(ctx context.Context, id string, at time.Time) error

	// DeleteExpiredCodes removes unverified codes that expired before the cutoff.
	DeleteExpiredCodes(ctx context.Context, before time.Time) (int64, error)

	// DeleteVerifiedCodesBefore removes codes verified before the cutoff.
	DeleteVerifiedCodesBefore(ctx context.Context, before time.Time) (int64, error)
}

type Identities interface {
	// CreateIdentity inserts an identity. Email is unique.
	CreateIdentity(ctx context.Context, i domain.Identity) error
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)

	// DeleteIdentity removes the identity and its refresh tokens.
	DeleteIdentity(ctx context.Context, id string) error
}

type Users interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentityAndFund resolves an identity's membership in a fund.
	GetUserByIdentityAndFund(ctx context.Context, identityID, fundID string) (domain.User, error)

	// ListUsersByIdentity returns every fund membership of an identity.
	ListUsersByIdentity(ctx context.Context, identityID string) ([]domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type Investors interface {
	CreateInvestor(ctx context.Context, inv domain.Investor) error
	GetInvestorByID(ctx context.Context, id string) (domain.Investor, error)
	GetInvestorByApplicationID(ctx context.Context, applicationID string) (domain.Investor, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a refresh token (token_hash is the fingerprint).
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash fetches a token including revoked ones.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken sets revoked_at on a token.
	RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error

	// RevokeSession revokes every token sharing a session id.
	RevokeSession(ctx context.Context, sessionID string, at time.Time) error

	// DeleteExpiredRefreshTokens is housekeeping for expired or revoked tokens.
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}
