package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type repo struct {
	q *gen.Queries
	d Dialect
}

// mapWrite turns a unique violation into store.ErrAlreadyExists.
func (r repo) mapWrite(err error) error {
	if err == nil {
		return nil
	}
	if r.d.IsUniqueViolation != nil && r.d.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	}
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapAffected reports ErrNotFound when an update or delete matched nothing.
func mapAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// dbTime normalizes timestamps to UTC at the precision both backends keep.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: dbTime(*t), Valid: true}
}

func splitScopes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, " ")
}

func mapFund(row gen.Fund) domain.Fund {
	return domain.Fund{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func mapApplication(row gen.KycApplication) domain.KYCApplication {
	return domain.KYCApplication{
		ID:              row.ID,
		FundID:          row.FundID,
		ApplicantType:   domain.ApplicantType(row.ApplicantType),
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		Phone:           mapNullString(row.Phone),
		EntityName:      mapNullString(row.EntityName),
		SignerFirstName: mapNullString(row.SignerFirstName),
		SignerLastName:  mapNullString(row.SignerLastName),
		Status:          domain.ApplicationStatus(row.Status),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func mapAccountToken(row gen.AccountCreationToken) domain.AccountCreationToken {
	return domain.AccountCreationToken{
		ID:            row.ID,
		TokenHash:     row.TokenHash,
		ApplicationID: row.ApplicationID,
		FundID:        row.FundID,
		Email:         row.Email,
		CreatedAt:     row.CreatedAt.UTC(),
		ExpiresAt:     row.ExpiresAt.UTC(),
		UsedAt:        mapNullTimePtr(row.UsedAt),
	}
}

func mapVerificationCode(row gen.VerificationCode) domain.VerificationCode {
	return domain.VerificationCode{
		ID:         row.ID,
		Email:      row.Email,
		Purpose:    domain.Purpose(row.Purpose),
		Code:       row.Code,
		CreatedAt:  row.CreatedAt.UTC(),
		ExpiresAt:  row.ExpiresAt.UTC(),
		Attempts:   int(row.Attempts),
		VerifiedAt: mapNullTimePtr(row.VerifiedAt),
	}
}

func mapIdentity(row gen.Identity) domain.Identity {
	return domain.Identity{
		ID:               row.ID,
		Email:            row.Email,
		PasswordHash:     row.PasswordHash,
		EmailConfirmedAt: mapNullTimePtr(row.EmailConfirmedAt),
		CreatedAt:        row.CreatedAt.UTC(),
	}
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:         row.ID,
		IdentityID: row.IdentityID,
		FundID:     row.FundID,
		Email:      row.Email,
		Role:       domain.Role(row.Role),
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func mapInvestor(row gen.Investor) domain.Investor {
	return domain.Investor{
		ID:            row.ID,
		FundID:        row.FundID,
		UserID:        row.UserID,
		ApplicationID: row.ApplicationID,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Email:         row.Email,
		Phone:         mapNullString(row.Phone),
		InvestorType:  domain.ApplicantType(row.InvestorType),
		EntityName:    mapNullString(row.EntityName),
		Status:        domain.InvestorStatus(row.Status),
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

func mapRefreshToken(row gen.RefreshToken) domain.RefreshToken {
	return domain.RefreshToken{
		ID:         row.ID,
		IdentityID: row.IdentityID,
		UserID:     row.UserID,
		FundID:     row.FundID,
		TokenHash:  row.TokenHash,
		SessionID:  row.SessionID,
		Scopes:     splitScopes(row.Scopes),
		ExpiresAt:  row.ExpiresAt.UTC(),
		Revoked:    row.RevokedAt.Valid,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}
