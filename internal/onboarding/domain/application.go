package domain

import (
	"strings"
	"time"
)

type Fund struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type ApplicantType string

const (
	ApplicantIndividual ApplicantType = "individual"
	ApplicantEntity     ApplicantType = "entity"
)

type ApplicationStatus string

const (
	ApplicationSubmitted         ApplicationStatus = "submitted"
	ApplicationApproved          ApplicationStatus = "approved"
	ApplicationAccountInviteSent ApplicationStatus = "account_invite_sent"
	ApplicationAccountCreated    ApplicationStatus = "account_created"
)

// KYCApplication is a prospective investor's onboarding application.
type KYCApplication struct {
	ID            string
	FundID        string
	ApplicantType ApplicantType
	FirstName     string
	LastName      string
	Email         string
	Phone         string

	// Entity applicants only.
	EntityName      string
	SignerFirstName string
	SignerLastName  string

	Status    ApplicationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Prefill is the read-only data shown on the account creation form.
type Prefill struct {
	ApplicationID string
	FundID        string
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	InvestorType  ApplicantType
	EntityName    string
}

// Prefill derives the form data. Entity applicants are represented by their
// authorized signer.
func (a KYCApplication) Prefill() Prefill {
	p := Prefill{
		ApplicationID: a.ID,
		FundID:        a.FundID,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Phone:         a.Phone,
		InvestorType:  a.ApplicantType,
	}
	if a.ApplicantType == ApplicantEntity {
		p.FirstName = a.SignerFirstName
		p.LastName = a.SignerLastName
		p.EntityName = a.EntityName
	}
	return p
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
