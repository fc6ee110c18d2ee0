package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/harborfund/portal/internal/onboarding/domain"
	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/harborfund/portal/pkg/slogx"

	_ "github.com/harborfund/portal/api/onboarding" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// StrictLimiter, when set, backs the strict per-IP limit on the public
	// signup endpoints so every replica shares one budget.
	StrictLimiter httpx.Limiter

	// Now is the clock handed to the services. Defaults to time.Now in UTC.
	Now func() time.Time

	AccountCreationService *service.AccountCreationService
	IdentityService        *service.IdentityService
	SessionService         *service.SessionService
	BootstrapService       *service.BootstrapService
	ApplicationService     *service.ApplicationService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccountCreation()
	r.registerAuth()
	r.registerApplications()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Harbor Investor Portal Onboarding API
//	@version		0.1.0
//	@description	Investor self-service account creation for approved KYC applications.
//	@description
//	@description				Access tokens are EdDSA-signed JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				Harbor Fund Engineering
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// strictByIP guards unauthenticated endpoints that send email or check secrets.
func (r *Router) strictByIP() httpx.Middleware {
	if r.StrictLimiter != nil {
		return httpx.RateLimit(r.StrictLimiter, httpx.StrictLimit, httpx.IPKeyExtractor)
	}
	return httpx.RateLimitByIP(httpx.StrictLimit)
}

func (r *Router) registerAccountCreation() {
	h := &AccountCreationHandler{Service: r.AccountCreationService, Now: r.now}

	// Token lookup happens on every page load of the signup form
	r.Mux.Handle("POST /v1/account-creation/verify-token",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyToken), r.strictByIP()),
	)

	// Code delivery and checks - strict by IP to slow down code guessing and mail bombing
	r.Mux.Handle("POST /v1/account-creation/send-code",
		httpx.Chain(http.HandlerFunc(h.HandleSendCode), r.strictByIP()),
	)
	r.Mux.Handle("POST /v1/account-creation/verify-code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyCode), r.strictByIP()),
	)
	r.Mux.Handle("POST /v1/account-creation/create",
		httpx.Chain(http.HandlerFunc(h.HandleCreate), r.strictByIP()),
	)

	// Operator action - moderate rate limit by user
	r.Mux.Handle("POST /v1/account-creation/send-invite",
		httpx.Chain(http.HandlerFunc(h.HandleSendInvite),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(domain.ScopeInvitesWrite),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAuth() {
	tokenHandler := &TokenHandler{
		IdentityService: r.IdentityService,
		SessionService:  r.SessionService,
		Now:             r.now,
	}
	r.Mux.Handle("POST /v1/auth/token",
		httpx.Chain(tokenHandler, r.strictByIP()),
	)

	revokeHandler := &RevokeHandler{SessionService: r.SessionService, Now: r.now}
	r.Mux.Handle("POST /v1/auth/revoke",
		httpx.Chain(revokeHandler, httpx.RateLimitByIP(httpx.ModerateLimit)),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys), httpx.RateLimitByIP(httpx.PublicLimit)),
	)
}

func (r *Router) registerApplications() {
	h := &ApplicationsHandler{Service: r.ApplicationService, Now: r.now}

	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(domain.ScopeApplicationsWrite),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	securedGet := httpx.Chain(http.HandlerFunc(h.HandleGet),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(domain.ScopeApplicationsRead),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("POST /v1/applications", securedCreate)
	r.Mux.Handle("GET /v1/applications/{id}", securedGet)
}

func (r *Router) registerBootstrap() {
	// One-time setup endpoint
	h := &BootstrapHandler{BootstrapService: r.BootstrapService, Now: r.now}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
