package gen

import (
	"database/sql"
	"time"
)

type AccountCreationToken struct {
	ID            string
	TokenHash     string
	ApplicationID string
	FundID        string
	Email         string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	UsedAt        sql.NullTime
}

type Fund struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Identity struct {
	ID               string
	Email            string
	PasswordHash     string
	EmailConfirmedAt sql.NullTime
	CreatedAt        time.Time
}

type Investor struct {
	ID            string
	FundID        string
	UserID        string
	ApplicationID string
	FirstName     string
	LastName      string
	Email         string
	Phone         sql.NullString
	InvestorType  string
	EntityName    sql.NullString
	Status        string
	CreatedAt     time.Time
}

type KycApplication struct {
	ID              string
	FundID          string
	ApplicantType   string
	FirstName       string
	LastName        string
	Email           string
	Phone           sql.NullString
	EntityName      sql.NullString
	SignerFirstName sql.NullString
	SignerLastName  sql.NullString
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type RefreshToken struct {
	ID         string
	IdentityID string
	UserID     string
	FundID     string
	TokenHash  string
	SessionID  string
	Scopes     string
	ExpiresAt  time.Time
	RevokedAt  sql.NullTime
	CreatedAt  time.Time
}

type User struct {
	ID         string
	IdentityID string
	FundID     string
	Email      string
	Role       string
	CreatedAt  time.Time
}

type VerificationCode struct {
	ID         string
	Email      string
	Purpose    string
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Attempts   int64
	VerifiedAt sql.NullTime
}
