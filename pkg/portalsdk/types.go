package portalsdk

import (
	"time"

	"github.com/harborfund/portal/pkg/jwtx"
)

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error            string `json:"error" example:"invalid_code"`
	ErrorDescription string `json:"error_description" example:"invalid code, 2 attempts remaining"`
}

// ValidationErrorResponse reports per-field validation failures.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Account Creation Types
// ============================================================================

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// PrefillResponse is the read-only data shown on the signup form.
type PrefillResponse struct {
	ApplicationID string `json:"applicationId"`
	FundID        string `json:"fundId"`
	Email         string `json:"email" example:"a@example.com"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone,omitempty"`
	InvestorType  string `json:"investorType" example:"individual"`
	EntityName    string `json:"entityName,omitempty"`
}

type SendCodeRequest struct {
	Token string `json:"token"`
}

type SendCodeResponse struct {
	Sent bool `json:"sent"`

	// ExpiresIn is the code lifetime in seconds.
	ExpiresIn int `json:"expiresIn" example:"600"`
}

type VerifyCodeRequest struct {
	Token            string `json:"token"`
	VerificationCode string `json:"verificationCode" example:"483920"`
}

type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

type CreateAccountRequest struct {
	Token            string `json:"token"`
	VerificationCode string `json:"verificationCode" example:"483920"`
	Password         string `json:"password"`

	// Phone overrides the phone number on the application.
	Phone string `json:"phone,omitempty"`
}

type UserResponse struct {
	ID     string `json:"id"`
	FundID string `json:"fundId"`
	Email  string `json:"email"`
	Role   string `json:"role" example:"investor"`
}

type InvestorResponse struct {
	ID            string    `json:"id"`
	FundID        string    `json:"fundId"`
	UserID        string    `json:"userId"`
	ApplicationID string    `json:"applicationId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	InvestorType  string    `json:"investorType"`
	EntityName    string    `json:"entityName,omitempty"`
	Status        string    `json:"status" example:"account_created"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateAccountResponse carries the new records and a signed-in session.
type CreateAccountResponse struct {
	User         UserResponse     `json:"user"`
	Investor     InvestorResponse `json:"investor"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	TokenType    string           `json:"tokenType" example:"Bearer"`
	ExpiresIn    int              `json:"expiresIn" example:"900"`
	Scope        string           `json:"scope,omitempty"`
}

type SendInviteRequest struct {
	KYCApplicationID string `json:"kycApplicationId"`
	FundID           string `json:"fundId"`
}

type SendInviteResponse struct {
	TokenID   string    `json:"tokenId"`
	ExpiresAt time.Time `json:"expiresAt"`
	EmailSent bool      `json:"emailSent"`
}

// ============================================================================
// Application Types
// ============================================================================

type CreateApplicationRequest struct {
	FundID          string `json:"fundId"`
	ApplicantType   string `json:"applicantType" example:"individual"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	EntityName      string `json:"entityName,omitempty"`
	SignerFirstName string `json:"signerFirstName,omitempty"`
	SignerLastName  string `json:"signerLastName,omitempty"`
}

type ApplicationResponse struct {
	ID              string    `json:"id"`
	FundID          string    `json:"fundId"`
	ApplicantType   string    `json:"applicantType"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	EntityName      string    `json:"entityName,omitempty"`
	SignerFirstName string    `json:"signerFirstName,omitempty"`
	SignerLastName  string    `json:"signerLastName,omitempty"`
	Status          string    `json:"status" example:"approved"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is the body of POST /v1/auth/token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// ============================================================================
// Bootstrap Types
// ============================================================================

// BootstrapRequest creates the first fund and its operator.
type BootstrapRequest struct {
	FundName         string `json:"fundName" example:"Harbor Fund I"`
	OperatorEmail    string `json:"operatorEmail" example:"ops@harbor.example"`
	OperatorPassword string `json:"operatorPassword"`
}

type BootstrapResponse struct {
	FundID             string `json:"fundId"`
	OperatorIdentityID string `json:"operatorIdentityId"`
	OperatorUserID     string `json:"operatorUserId"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz. Checks is only set by /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// JWKSResponse is the public key set used to verify access tokens.
type JWKSResponse jwtx.JWKS
