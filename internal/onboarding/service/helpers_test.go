package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/events"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqlite"
	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "harbor-portal"
	testPassword = "correct horse battery"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type sentCode struct {
	To        string
	Code      string
	ExpiresIn time.Duration
}

type sentInvite struct {
	To        string
	Prefill   domain.Prefill
	Link      string
	ExpiresAt time.Time
}

type fakeNotifier struct {
	mu      sync.Mutex
	codes   []sentCode
	invites []sentInvite
	created []string

	codeErr    error
	inviteErr  error
	createdErr error
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, to, code string, expiresIn time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.codeErr != nil {
		return n.codeErr
	}
	n.codes = append(n.codes, sentCode{To: to, Code: code, ExpiresIn: expiresIn})
	return nil
}

func (n *fakeNotifier) SendAccountInvite(_ context.Context, to string, p domain.Prefill, link string, exp time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.inviteErr != nil {
		return n.inviteErr
	}
	n.invites = append(n.invites, sentInvite{To: to, Prefill: p, Link: link, ExpiresAt: exp})
	return nil
}

func (n *fakeNotifier) SendAccountCreated(_ context.Context, to string, _ domain.Prefill) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.createdErr != nil {
		return n.createdErr
	}
	n.created = append(n.created, to)
	return nil
}

func (n *fakeNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.codes, "no verification code sent")
	return n.codes[len(n.codes)-1].Code
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// faultyStore fails selected writes and delegates everything else.
type faultyStore struct {
	store.Store
	createInvestorErr error
	updateStatusErr   error
}

func (f faultyStore) Investors() store.Investors {
	return faultyInvestors{Investors: f.Store.Investors(), err: f.createInvestorErr}
}

func (f faultyStore) Applications() store.Applications {
	return faultyApplications{Applications: f.Store.Applications(), err: f.updateStatusErr}
}

type faultyInvestors struct {
	store.Investors
	err error
}

func (f faultyInvestors) CreateInvestor(ctx context.Context, inv domain.Investor) error {
	if f.err != nil {
		return f.err
	}
	return f.Investors.CreateInvestor(ctx, inv)
}

type faultyApplications struct {
	store.Applications
	err error
}

func (f faultyApplications) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status domain.ApplicationStatus,
	at time.Time,
) error {
	if f.err != nil {
		return f.err
	}
	return f.Applications.UpdateApplicationStatus(ctx, id, status, at)
}

// recordingIdentity remembers created identities and can fail deletes.
type recordingIdentity struct {
	IdentityProvider
	mu        sync.Mutex
	created   []domain.Identity
	deleteErr error
}

func (r *recordingIdentity) CreateIdentity(
	ctx context.Context,
	email, password string,
	confirmed bool,
	now time.Time,
) (domain.Identity, error) {
	ident, err := r.IdentityProvider.CreateIdentity(ctx, email, password, confirmed, now)
	if err == nil {
		r.mu.Lock()
		r.created = append(r.created, ident)
		r.mu.Unlock()
	}
	return ident, err
}

func (r *recordingIdentity) DeleteIdentity(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.IdentityProvider.DeleteIdentity(ctx, id)
}

type testEnv struct {
	store    store.Store
	keys     *jwtx.KeyManager
	tokens   *AccountTokenService
	codes    *VerificationCodeService
	sessions *SessionService
	identity *IdentityService
	notifier *fakeNotifier
	events   *recordingPublisher
	svc      *AccountCreationService
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := newTestStore(t)

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		Audience:  []string{testIssuer},
		NumKeys:   1,
	})
	require.NoError(t, err)

	env := &testEnv{
		store:    s,
		keys:     km,
		tokens:   &AccountTokenService{Store: s},
		codes:    &VerificationCodeService{Store: s},
		notifier: &fakeNotifier{},
		events:   &recordingPublisher{},
	}
	env.sessions = &SessionService{
		KeyManager: km,
		Store:      s,
		Issuer:     testIssuer,
		Audience:   []string{testIssuer},
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
	env.identity = &IdentityService{Store: s, Sessions: env.sessions}
	env.svc = &AccountCreationService{
		Store:       s,
		Tokens:      env.tokens,
		Codes:       env.codes,
		Identity:    env.identity,
		Notifier:    env.notifier,
		Events:      env.events,
		FrontendURL: "https://portal.example.com/",
	}
	return env
}

// seed inserts fund and application rows directly.
func (e *testEnv) seed(t *testing.T, fundID string, app domain.KYCApplication) domain.KYCApplication {
	t.Helper()
	ctx := context.Background()

	if _, err := e.store.Funds().GetFundByID(ctx, fundID); err != nil {
		require.NoError(t, e.store.Funds().CreateFund(ctx, domain.Fund{ID: fundID, Name: "Harbor " + fundID, CreatedAt: t0}))
	}
	app.FundID = fundID
	if app.ApplicantType == "" {
		app.ApplicantType = domain.ApplicantIndividual
	}
	if app.Status == "" {
		app.Status = domain.ApplicationApproved
	}
	app.CreatedAt, app.UpdatedAt = t0, t0
	require.NoError(t, e.store.Applications().CreateApplication(ctx, app))
	return app
}

// seedProspect is the canonical prospect-1 / fund-1 / a@example.com applicant.
func (e *testEnv) seedProspect(t *testing.T) domain.KYCApplication {
	return e.seed(t, "fund-1", domain.KYCApplication{
		ID:        "prospect-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "a@example.com",
		Phone:     "+61 400 000 000",
	})
}
