package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/idx"
	"github.com/harborfund/portal/pkg/slogx"
)

// NewApplication is an operator-entered KYC application.
type NewApplication struct {
	FundID          string
	ApplicantType   domain.ApplicantType
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	EntityName      string
	SignerFirstName string
	SignerLastName  string
}

// ApplicationService registers and reads KYC applications.
type ApplicationService struct {
	Store store.Store
}

func (s *ApplicationService) Create(ctx context.Context, in NewApplication, now time.Time) (domain.KYCApplication, error) {
	app := domain.KYCApplication{
		ID:              idx.NewAt(now).String(),
		FundID:          strings.TrimSpace(in.FundID),
		ApplicantType:   in.ApplicantType,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           domain.NormalizeEmail(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		EntityName:      strings.TrimSpace(in.EntityName),
		SignerFirstName: strings.TrimSpace(in.SignerFirstName),
		SignerLastName:  strings.TrimSpace(in.SignerLastName),
		Status:          domain.ApplicationApproved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateApplication(app); err != nil {
		return domain.KYCApplication{}, err
	}

	if _, err := s.Store.Funds().GetFundByID(ctx, app.FundID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.KYCApplication{}, ErrFundNotFound
		}
		return domain.KYCApplication{}, storageErr("load fund", err)
	}

	if err := s.Store.Applications().CreateApplication(ctx, app); err != nil {
		return domain.KYCApplication{}, storageErr("create application", err)
	}

	slogx.FromContext(ctx).Info("application registered",
		slog.String("application_id", app.ID),
		slog.String("fund_id", app.FundID),
	)
	return app, nil
}

// Get returns an application in fundID. Applications of other funds are
// reported as not found.
func (s *ApplicationService) Get(ctx context.Context, id, fundID string) (domain.KYCApplication, error) {
	app, err := s.Store.Applications().GetApplicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.KYCApplication{}, ErrApplicationNotFound
		}
		return domain.KYCApplication{}, storageErr("load application", err)
	}
	if app.FundID != fundID {
		return domain.KYCApplication{}, ErrApplicationNotFound
	}
	return app, nil
}

func validateApplication(a domain.KYCApplication) error {
	invalid := func(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidApplication, msg) }

	if a.FundID == "" {
		return invalid("fund is required")
	}
	if a.FirstName == "" || a.LastName == "" {
		return invalid("first and last name are required")
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return invalid("email is invalid")
	}

	switch a.ApplicantType {
	case domain.ApplicantIndividual:
	case domain.ApplicantEntity:
		if a.EntityName == "" {
			return invalid("entity name is required")
		}
		if a.SignerFirstName == "" || a.SignerLastName == "" {
			return invalid("authorized signer name is required")
		}
	default:
		return invalid("applicant type must be individual or entity")
	}
	return nil
}
