package domain

import "time"

// AccountCreationToken is a single-use account creation link. Only the token's
// fingerprint is stored. Rows are kept after use or expiry.
type AccountCreationToken struct {
	ID            string
	TokenHash     string
	ApplicationID string
	FundID        string
	Email         string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	UsedAt        *time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t AccountCreationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Used reports whether the token has been consumed.
func (t AccountCreationToken) Used() bool {
	return t.UsedAt != nil
}
