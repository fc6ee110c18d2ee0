package domain

import "time"

// TokenPair is a signed access token plus its opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	Scope        string // space-delimited
}

// RefreshToken is the stored record of an opaque refresh token.
type RefreshToken struct {
	ID         string
	IdentityID string
	UserID     string
	FundID     string
	TokenHash  string
	SessionID  string
	Scopes     []string
	ExpiresAt  time.Time
	Revoked    bool
	CreatedAt  time.Time
}
