package domain

import "time"

// Purpose scopes a verification code to one flow.
type Purpose string

const (
	PurposeAccountCreation Purpose = "account_creation"
	PurposePasswordReset   Purpose = "password_reset"
	PurposeLogin           Purpose = "login"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeAccountCreation, PurposePasswordReset, PurposeLogin:
		return true
	}
	return false
}

// VerificationCode is a six digit one-time code. At most one unverified code
// exists per (Email, Purpose).
type VerificationCode struct {
	ID         string
	Email      string
	Purpose    Purpose
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Attempts   int
	VerifiedAt *time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
