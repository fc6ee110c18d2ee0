package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/harborfund/portal/internal/onboarding/http"
	"github.com/harborfund/portal/internal/onboarding/events"
	"github.com/harborfund/portal/internal/onboarding/mailer"
	"github.com/harborfund/portal/internal/onboarding/service"
	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/postgres"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqlite"
	"github.com/harborfund/portal/pkg/cryptox"
	"github.com/harborfund/portal/pkg/httpx"
	"github.com/harborfund/portal/pkg/jwtx"
	"github.com/harborfund/portal/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serviceName = "onboarding-service"

	// BuildVersion is overridden at build time via -ldflags.
	BuildVersion = "v0.1.0"
)

// Application owns the onboarding service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db             store.Store
	keyManager     *jwtx.KeyManager
	tracerProvider *sdktrace.TracerProvider
	publisher      events.Publisher
	redis          *redis.Client // nil without REDIS_URL

	// Services
	sessionService         *service.SessionService
	identityService        *service.IdentityService
	accountCreationService *service.AccountCreationService
	bootstrapService       *service.BootstrapService
	applicationService     *service.ApplicationService
	housekeepingService    *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New builds an Application from cfg. Call Run to serve.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  []string{cfg.Issuer},
		NumKeys:   cfg.NumKeys,
	})
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager
	app.logger.Info("signing keys generated",
		slog.String("algorithm", keyManager.Algorithm()),
		slog.Int("keys", keyManager.NumSigners()),
	)

	if err := app.initIntegrations(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("onboarding service starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains HTTP requests, then stops background work and closes
// connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down onboarding service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error("error closing event publisher", slog.Any("error", err))
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", slog.Any("error", err))
		}
	}
	if err := app.tracerProvider.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", slog.Any("error", err))
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slog.Any("error", err))
		return err
	}

	app.logger.Info("onboarding service stopped")
	return nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully",
		slog.String("driver", app.cfg.DatabaseDriver),
	)
	return nil
}

// initIntegrations sets up tracing, event publishing and the shared rate
// limiter backend. Each is optional and falls back to a local implementation.
func (app *Application) initIntegrations(ctx context.Context) error {
	tp, err := NewTracerProvider(ctx, app.cfg.OTLPEndpoint, serviceName, BuildVersion, app.cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	otel.SetTracerProvider(tp)
	app.tracerProvider = tp

	if brokers := app.cfg.KafkaBrokerList(); len(brokers) > 0 {
		pub, err := events.NewKafkaPublisher(brokers, app.cfg.EventsTopic)
		if err != nil {
			return fmt.Errorf("failed to initialize kafka publisher: %w", err)
		}
		app.publisher = pub
		app.logger.Info("publishing events to kafka", slog.String("topic", app.cfg.EventsTopic))
	} else {
		app.publisher = events.LogPublisher{}
	}

	if app.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		app.redis = redis.NewClient(opts)
		if err := app.redis.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so an unreachable Redis is not fatal.
			app.logger.Warn("redis unreachable, rate limits will fail open", slog.Any("error", err))
		}
	}

	return nil
}

func (app *Application) mailSender() mailer.Sender {
	if app.cfg.MailDriver == "smtp" {
		return mailer.NewSMTPSender(
			app.cfg.SMTPHost,
			app.cfg.SMTPPort,
			app.cfg.SMTPUsername,
			app.cfg.SMTPPassword,
			app.cfg.MailFrom,
		)
	}
	return mailer.LogSender{Logger: app.logger}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		KeyManager: app.keyManager,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		Audience:   []string{app.cfg.Issuer},
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.identityService = &service.IdentityService{Store: app.db, Sessions: app.sessionService}

	app.accountCreationService = &service.AccountCreationService{
		Store:  app.db,
		Tokens: &service.AccountTokenService{Store: app.db},
		Codes: &service.VerificationCodeService{
			Store:        app.db,
			ConstantTime: app.cfg.ConstantTimeCompare,
		},
		Identity:       app.identityService,
		Notifier:       &mailer.Notifier{Sender: app.mailSender(), FundName: app.cfg.FundName},
		Events:         app.publisher,
		FrontendURL:    app.cfg.FrontendURL,
		TracerProvider: app.tracerProvider,
	}

	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}
	app.applicationService = &service.ApplicationService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AccountCreationService = app.accountCreationService
	router.IdentityService = app.identityService
	router.SessionService = app.sessionService
	router.BootstrapService = app.bootstrapService
	router.ApplicationService = app.applicationService
	if app.redis != nil {
		router.StrictLimiter = httpx.NewRedisLimiter(app.redis, "portal:ratelimit:strict", httpx.StrictLimit)
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
