package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default session lifetimes.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Authentication method references.
const (
	AMRPassword = "pwd"
	AMRRefresh  = "refresh"
)

// Claims are the access-token claims issued to portal users.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, shared with the refresh token that minted this access token.
	SID string `json:"sid,omitempty"`

	// FundID is the tenant the session is scoped to.
	FundID string `json:"fund,omitempty"`

	// Role is the portal role of the user within FundID ("investor", "operator").
	Role string `json:"role,omitempty"`

	Email string `json:"email,omitempty"`

	Scopes []string `json:"scopes,omitempty"`

	// Authentication Methods Reference, e.g. ["pwd"] or ["pwd","otp"].
	AMR []string `json:"amr,omitempty"`
}

// AccessClaims describes the subject of a new access token.
type AccessClaims struct {
	Subject string
	SID     string
	FundID  string
	Role    string
	Email   string
	Scopes  []string
	AMR     []string
}

// NewAccessClaims builds claims valid from now until now+ttl.
func NewAccessClaims(in AccessClaims, issuer string, audience []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   in.Subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:    in.SID,
		FundID: in.FundID,
		Role:   in.Role,
		Email:  in.Email,
		Scopes: in.Scopes,
		AMR:    in.AMR,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// HasScope reports whether the claims carry scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf against now.
func (c *Claims) ValidateExpiry(now time.Time) error {
	return c.ValidateExpiryWithLeeway(now, 0)
}

// ValidateExpiryWithLeeway checks exp and nbf against now, allowing leeway
// of clock skew in either direction.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
