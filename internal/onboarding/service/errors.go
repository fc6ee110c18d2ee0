package service

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage marks a failed database round trip. It is joined with the
	// driver error so both stay matchable.
	ErrStorage = errors.New("storage error")

	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidApplication  = errors.New("invalid application")
	ErrFundNotFound        = errors.New("fund not found")
	ErrInvalidPurpose      = errors.New("invalid verification purpose")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
	ErrIdentityExists      = errors.New("an account already exists for this email")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidRefresh      = errors.New("invalid_refresh_token")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}

// TokenReason says why an account creation token was rejected.
type TokenReason string

const (
	TokenNotFound    TokenReason = "not found"
	TokenExpired     TokenReason = "expired"
	TokenAlreadyUsed TokenReason = "already used"
)

// InvalidTokenError is a rejected account creation token.
type InvalidTokenError struct {
	Reason TokenReason
}

func (e *InvalidTokenError) Error() string { return "invalid token: " + string(e.Reason) }

// Is matches any InvalidTokenError with the same reason.
func (e *InvalidTokenError) Is(target error) bool {
	t, ok := target.(*InvalidTokenError)
	return ok && t.Reason == e.Reason
}

var (
	ErrTokenNotFound = &InvalidTokenError{Reason: TokenNotFound}
	ErrTokenExpired  = &InvalidTokenError{Reason: TokenExpired}
	ErrTokenUsed     = &InvalidTokenError{Reason: TokenAlreadyUsed}
)

// CodeReason says why a verification code was rejected.
type CodeReason string

const (
	CodeNotFound        CodeReason = "no code found"
	CodeExpired         CodeReason = "expired"
	CodeTooManyAttempts CodeReason = "too many attempts"
	CodeMismatch        CodeReason = "invalid code"
)

// InvalidCodeError is a rejected verification code. Remaining is only
// meaningful for CodeMismatch.
type InvalidCodeError struct {
	Reason    CodeReason
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	if e.Reason != CodeMismatch {
		return string(e.Reason)
	}
	switch {
	case e.Remaining <= 0:
		return "invalid code, no attempts remaining"
	case e.Remaining == 1:
		return "invalid code, 1 attempt remaining"
	default:
		return fmt.Sprintf("invalid code, %d attempts remaining", e.Remaining)
	}
}

// Is matches any InvalidCodeError with the same reason, whatever Remaining is.
func (e *InvalidCodeError) Is(target error) bool {
	t, ok := target.(*InvalidCodeError)
	return ok && t.Reason == e.Reason
}

var (
	ErrCodeNotFound        = &InvalidCodeError{Reason: CodeNotFound}
	ErrCodeExpired         = &InvalidCodeError{Reason: CodeExpired}
	ErrCodeTooManyAttempts = &InvalidCodeError{Reason: CodeTooManyAttempts}
	ErrCodeMismatch        = &InvalidCodeError{Reason: CodeMismatch}
)
