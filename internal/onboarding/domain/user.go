package domain

import "time"

// Identity is a login credential, shared by every fund the person belongs to.
type Identity struct {
	ID               string
	Email            string
	PasswordHash     string // argon2id PHC string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
}

type Role string

const (
	RoleInvestor Role = "investor"
	RoleOperator Role = "operator"
)

// Scopes returns the access-token scopes granted to the role.
func (r Role) Scopes() []string {
	switch r {
	case RoleOperator:
		return []string{ScopePortalRead, ScopeApplicationsRead, ScopeApplicationsWrite, ScopeInvitesWrite}
	case RoleInvestor:
		return []string{ScopePortalRead}
	}
	return nil
}

const (
	ScopePortalRead        = "portal:read"
	ScopeApplicationsRead  = "applications:read"
	ScopeApplicationsWrite = "applications:write"
	ScopeInvitesWrite      = "invites:write"
)

// User is an identity's membership in one fund.
type User struct {
	ID         string
	IdentityID string
	FundID     string
	Email      string
	Role       Role
	CreatedAt  time.Time
}

type InvestorStatus string

const (
	InvestorAccountCreated InvestorStatus = "account_created"
	InvestorActive         InvestorStatus = "active"
)

// Investor is the fund-scoped investor record created at signup.
type Investor struct {
	ID            string
	FundID        string
	UserID        string
	ApplicationID string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	InvestorType  ApplicantType
	EntityName    string
	Status        InvestorStatus
	CreatedAt     time.Time
}
