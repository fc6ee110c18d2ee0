package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "harbor-portal"

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: exampleIssuer}}

	require.NoError(t, c.ValidateIssuer(exampleIssuer))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"portal", "ops"}}}

	require.NoError(t, c.ValidateAudience([]string{"ops"}))
	require.NoError(t, c.ValidateAudience(nil))
	require.ErrorIs(t, c.ValidateAudience([]string{"admin"}), jwtx.ErrAudience)
}

func TestValidateExpiry(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewAccessClaims(jwtx.AccessClaims{Subject: "u1"}, exampleIssuer, nil, time.Minute, t0)

	tests := []struct {
		name string
		now  time.Time
		want error
	}{
		{"at issue", t0, nil},
		{"just before expiry", t0.Add(time.Minute - time.Second), nil},
		{"exactly at expiry", t0.Add(time.Minute), jwtx.ErrExpired},
		{"before nbf", t0.Add(-time.Second), jwtx.ErrNotYetValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ValidateExpiry(tt.now)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}

	require.NoError(t, c.ValidateExpiryWithLeeway(t0.Add(time.Minute), 5*time.Second))
}

func TestNewAccessClaims(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject: "identity-1",
		SID:     "session-1",
		FundID:  "fund-1",
		Role:    "investor",
		Email:   "a@example.com",
		Scopes:  []string{"portal:read"},
		AMR:     []string{"pwd"},
	}, exampleIssuer, []string{"portal"}, 15*time.Minute, t0)

	require.Equal(t, "identity-1", c.Subject)
	require.Equal(t, "fund-1", c.FundID)
	require.Equal(t, "investor", c.Role)
	require.True(t, c.HasScope("portal:read"))
	require.False(t, c.HasScope("invites:write"))
	require.Equal(t, t0.Add(15*time.Minute), c.ExpiresAt.Time)
	require.NotEmpty(t, c.ID)
}
