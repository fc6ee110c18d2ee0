package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/events"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/idx"
	"github.com/harborfund/portal/pkg/saga"
	"github.com/harborfund/portal/pkg/slogx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultFrontendURL = "http://localhost:5173"

	tracerName = "github.com/harborfund/portal/internal/onboarding/service"
)

// IdentityProvider owns login credentials and sessions.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, email, password string, confirmed bool, now time.Time) (domain.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	SignIn(ctx context.Context, email, password, fundID string, now time.Time) (domain.TokenPair, error)
}

// Notifier delivers the onboarding emails.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, code string, expiresIn time.Duration) error
	SendAccountInvite(ctx context.Context, to string, prefill domain.Prefill, link string, expiresAt time.Time) error
	SendAccountCreated(ctx context.Context, to string, prefill domain.Prefill) error
}

// CodeDelivery reports a sent verification code.
type CodeDelivery struct {
	Sent      bool
	ExpiresIn time.Duration
}

type CreateAccountInput struct {
	Token            string
	VerificationCode string
	Password         string
	Phone            string // optional, overrides the application's phone
}

// AccountCreated is the result of a completed signup.
type AccountCreated struct {
	User     domain.User
	Investor domain.Investor
	Session  domain.TokenPair
}

// InviteSent reports an emailed account creation link.
type InviteSent struct {
	TokenID   string
	ExpiresAt time.Time
	EmailSent bool
}

// AccountCreationService drives investor self-service signup: token check,
// email code, then identity, membership and investor rows.
type AccountCreationService struct {
	Store       store.Store
	Tokens      *AccountTokenService
	Codes       *VerificationCodeService
	Identity    IdentityProvider
	Notifier    Notifier
	Events      events.Publisher // optional
	FrontendURL string

	TracerProvider trace.TracerProvider // optional, defaults to the global provider
}

// VerifyToken returns the signup form prefill for a usable token.
func (s *AccountCreationService) VerifyToken(ctx context.Context, token string, now time.Time) (domain.Prefill, error) {
	tok, err := s.Tokens.Verify(ctx, token, now)
	if err != nil {
		return domain.Prefill{}, err
	}
	return s.prefill(ctx, tok)
}

// SendVerificationCode emails a fresh account creation code to the token's
// address. A failed send leaves the code issued; resending replaces it.
func (s *AccountCreationService) SendVerificationCode(
	ctx context.Context,
	token string,
	now time.Time,
) (CodeDelivery, error) {
	tok, err := s.Tokens.Verify(ctx, token, now)
	if err != nil {
		return CodeDelivery{}, err
	}

	issued, err := s.Codes.Issue(ctx, tok.Email, domain.PurposeAccountCreation, now)
	if err != nil {
		return CodeDelivery{}, err
	}

	if err := s.Notifier.SendVerificationCode(ctx, tok.Email, issued.Code, issued.ExpiresIn); err != nil {
		return CodeDelivery{}, fmt.Errorf("send verification code: %w", err)
	}

	return CodeDelivery{Sent: true, ExpiresIn: issued.ExpiresIn}, nil
}

// VerifyCode checks the emailed code ahead of CreateAccount. CreateAccount
// accepts a code verified here within RecentVerificationWindow.
func (s *AccountCreationService) VerifyCode(ctx context.Context, token, code string, now time.Time) error {
	tok, err := s.Tokens.Verify(ctx, token, now)
	if err != nil {
		return err
	}
	return s.Codes.Verify(ctx, tok.Email, code, domain.PurposeAccountCreation, now)
}

// CreateAccount runs signup as a saga. Identity, membership and investor
// creation unwind in reverse when a later one of them fails. Once the
// investor exists the saga is committed and later failures no longer undo it.
func (s *AccountCreationService) CreateAccount(
	ctx context.Context,
	in CreateAccountInput,
	now time.Time,
) (result AccountCreated, err error) {
	ctx, span := s.tracer().Start(ctx, "AccountCreationService.CreateAccount")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if len(in.Password) < MinPasswordLength {
		return AccountCreated{}, ErrWeakPassword
	}

	log := slogx.FromContext(ctx)
	sg := saga.New("account_creation", saga.WithTracerProvider(s.tracerProvider()))

	var (
		tok      domain.AccountCreationToken
		prefill  domain.Prefill
		ident    domain.Identity
		user     domain.User
		investor domain.Investor
		session  domain.TokenPair
	)

	steps := []saga.Step{
		{
			// 1. Verify token
			Name:        "verify_token",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				var err error
				tok, err = s.Tokens.Verify(ctx, in.Token, now)
				if err == nil {
					span.SetAttributes(
						attribute.String("fund_id", tok.FundID),
						attribute.String("application_id", tok.ApplicationID),
					)
				}
				return err
			},
		},
		{
			// 2. Verify code, or accept the same code verified moments ago
			Name:        "verify_code",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				err := s.Codes.Verify(ctx, tok.Email, in.VerificationCode, domain.PurposeAccountCreation, now)
				if errors.Is(err, ErrCodeNotFound) &&
					s.Codes.MatchesRecentlyVerified(ctx, tok.Email, in.VerificationCode, domain.PurposeAccountCreation, now) {
					log.Info("accepting recently verified code", slog.String("token_id", tok.ID))
					return nil
				}
				return err
			},
		},
		{
			// 3. Fetch prefill
			Name:        "fetch_prefill",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				var err error
				prefill, err = s.prefill(ctx, tok)
				return err
			},
		},
		{
			// 4. Create identity
			Name:        "create_identity",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				var err error
				ident, err = s.Identity.CreateIdentity(ctx, tok.Email, in.Password, true, now)
				return err
			},
			Undo: func(ctx context.Context) error {
				return s.Identity.DeleteIdentity(ctx, ident.ID)
			},
		},
		{
			// 5. Create fund membership
			Name:        "create_user",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				user = domain.User{
					ID:         idx.NewAt(now).String(),
					IdentityID: ident.ID,
					FundID:     tok.FundID,
					Email:      tok.Email,
					Role:       domain.RoleInvestor,
					CreatedAt:  now,
				}
				if err := s.Store.Users().CreateUser(ctx, user); err != nil {
					return storageErr("create user", err)
				}
				return nil
			},
			Undo: func(ctx context.Context) error {
				if err := s.Store.Users().DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			},
		},
		{
			// 6. Create investor record
			Name:        "create_investor",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				investor = domain.Investor{
					ID:            idx.NewAt(now).String(),
					FundID:        tok.FundID,
					UserID:        user.ID,
					ApplicationID: tok.ApplicationID,
					FirstName:     prefill.FirstName,
					LastName:      prefill.LastName,
					Email:         tok.Email,
					Phone:         firstNonEmpty(strings.TrimSpace(in.Phone), prefill.Phone),
					InvestorType:  prefill.InvestorType,
					EntityName:    prefill.EntityName,
					Status:        domain.InvestorAccountCreated,
					CreatedAt:     now,
				}
				if err := s.Store.Investors().CreateInvestor(ctx, investor); err != nil {
					return storageErr("create investor", err)
				}
				return nil
			},
		},
	}
	if err := runSteps(ctx, sg, steps); err != nil {
		return AccountCreated{}, err
	}

	// Identity, user and investor exist from here on.
	sg.Commit()

	steps = []saga.Step{
		{
			// 7. Application status. Not compensated: a failure leaves the
			// application behind the investor record and is only logged.
			Name:        "update_application_status",
			Criticality: saga.BestEffort,
			Do: func(ctx context.Context) error {
				return s.Store.Applications().UpdateApplicationStatus(ctx, tok.ApplicationID, domain.ApplicationAccountCreated, now)
			},
		},
		{
			// 8. Consume token
			Name:        "mark_token_used",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				return s.Tokens.MarkUsed(ctx, in.Token, now)
			},
		},
		{
			// 9. Sign in
			Name:        "sign_in",
			Criticality: saga.Critical,
			Do: func(ctx context.Context) error {
				var err error
				session, err = s.Identity.SignIn(ctx, tok.Email, in.Password, tok.FundID, now)
				return err
			},
		},
		{
			// 10. Confirmation email
			Name:        "send_confirmation",
			Criticality: saga.BestEffort,
			Do: func(ctx context.Context) error {
				return s.Notifier.SendAccountCreated(ctx, tok.Email, prefill)
			},
		},
		{
			// 11. Announce
			Name:        "publish_account_created",
			Criticality: saga.BestEffort,
			Do: func(ctx context.Context) error {
				return s.publish(ctx, events.New(events.TypeAccountCreated, tok.FundID, investor.ID, now, map[string]any{
					"user_id":        user.ID,
					"application_id": tok.ApplicationID,
				}))
			},
		},
	}
	if err := runSteps(ctx, sg, steps); err != nil {
		return AccountCreated{}, err
	}

	log.Info("investor account created",
		slog.String("user_id", user.ID),
		slog.String("investor_id", investor.ID),
		slog.String("fund_id", tok.FundID),
	)

	return AccountCreated{User: user, Investor: investor, Session: session}, nil
}

// SendAccountInvite emails an account creation link for an application in fundID.
func (s *AccountCreationService) SendAccountInvite(
	ctx context.Context,
	applicationID, fundID string,
	now time.Time,
) (InviteSent, error) {
	log := slogx.FromContext(ctx)

	// 1. Fetch application
	app, err := s.Store.Applications().GetApplicationByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InviteSent{}, ErrApplicationNotFound
		}
		return InviteSent{}, storageErr("load application", err)
	}
	if app.FundID != fundID {
		return InviteSent{}, ErrApplicationNotFound
	}
	prefill := app.Prefill()

	// 2. Issue token
	issued, err := s.Tokens.Issue(ctx, app.ID, app.FundID, app.Email, now)
	if err != nil {
		return InviteSent{}, err
	}

	// 3. Record the invite on the application
	if err := s.Store.Applications().UpdateApplicationStatus(ctx, app.ID, domain.ApplicationAccountInviteSent, now); err != nil {
		return InviteSent{}, storageErr("update application status", err)
	}

	// 4. Email the link
	link := s.inviteLink(issued.Token)
	if err := s.Notifier.SendAccountInvite(ctx, app.Email, prefill, link, issued.ExpiresAt); err != nil {
		return InviteSent{}, fmt.Errorf("send account invite: %w", err)
	}

	// 5. Announce
	if err := s.publish(ctx, events.New(events.TypeInviteSent, app.FundID, app.ID, now, map[string]any{
		"token_id":   issued.ID,
		"expires_at": issued.ExpiresAt,
	})); err != nil {
		log.Warn("failed to publish invite event", slog.Any("error", err))
	}

	log.Info("account invite sent",
		slog.String("application_id", app.ID),
		slog.String("token_id", issued.ID),
	)

	return InviteSent{TokenID: issued.ID, ExpiresAt: issued.ExpiresAt, EmailSent: true}, nil
}

func (s *AccountCreationService) prefill(ctx context.Context, tok domain.AccountCreationToken) (domain.Prefill, error) {
	app, err := s.Store.Applications().GetApplicationByID(ctx, tok.ApplicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Prefill{}, ErrApplicationNotFound
		}
		return domain.Prefill{}, storageErr("load application", err)
	}
	return app.Prefill(), nil
}

func (s *AccountCreationService) inviteLink(token string) string {
	base := s.FrontendURL
	if base == "" {
		base = DefaultFrontendURL
	}
	return strings.TrimRight(base, "/") + "/create-account/" + url.PathEscape(token)
}

func (s *AccountCreationService) publish(ctx context.Context, e events.Event) error {
	if s.Events == nil {
		return nil
	}
	return s.Events.Publish(ctx, e)
}

func (s *AccountCreationService) tracerProvider() trace.TracerProvider {
	if s.TracerProvider != nil {
		return s.TracerProvider
	}
	return otel.GetTracerProvider()
}

func (s *AccountCreationService) tracer() trace.Tracer {
	return s.tracerProvider().Tracer(tracerName)
}

func runSteps(ctx context.Context, sg *saga.Saga, steps []saga.Step) error {
	for _, step := range steps {
		if err := sg.Run(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
