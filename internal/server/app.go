// Package server wires configuration, storage, rate limiting and the HTTP
// API together and runs them until the process is signalled to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/config"
	"github.com/localbizsite/localbiz/internal/server/httpapi"
	"github.com/localbizsite/localbiz/internal/server/metrics"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
	"github.com/localbizsite/localbiz/internal/server/services"
	"github.com/localbizsite/localbiz/internal/timex"

	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces limiter counters in a shared Redis.
const rateLimitKeyPrefix = "localbiz:rl"

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	server      *httpapi.HTTPServer
	accounts    *services.AccountService
}

// OpenStore returns the Postgres-backed repository manager when a DSN is
// configured (running migrations first) and the in-memory one otherwise.
func OpenStore(ctx context.Context, c *config.Config, clock timex.Clock) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewInMemoryRepositoryManager(clock), nil
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return rm, nil
}

// NewAccountService builds the account service from configuration.
func NewAccountService(c *config.Config, rm repomanager.RepositoryManager, clock timex.Clock, l logging.Logger) *services.AccountService {
	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.TokenTTL, clock)
	return services.NewAccountService(rm, auth.NewBcryptHasher(c.BcryptCost), tokens, clock, l)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.Env)
	clock := timex.RealClock{}

	if c.Env == "prod" && c.SecretKey == "dev-secret-change-me" {
		return nil, fmt.Errorf("refusing to start in prod with the default secret key")
	}

	rm, err := OpenStore(ctx, c, clock)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, repomanager: rm}

	var limiter auth.Limiter
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis not reachable, rate limiting will fail open until it is", "addr", c.RedisAddr, "error", err)
		}
		limiter = auth.NewRedisLimiter(app.redis, rateLimitKeyPrefix)
	} else {
		limiter = auth.NewMemoryLimiter(clock)
	}

	app.accounts = NewAccountService(c, rm, clock, logger)
	businesses := services.NewBusinessService(rm, logger)

	app.server = httpapi.NewHTTPServer(c, logger, httpapi.Services{
		Accounts:   app.accounts,
		Businesses: businesses,
		Reviews:    services.NewReviewService(rm, logger),
		Leads:      services.NewLeadService(rm, logger),
		Media:      services.NewMediaService(c, businesses, clock, logger),
	}, limiter, metrics.NewRegistry(), clock)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// seedAdmin makes sure the configured admin account exists.
func (app *App) seedAdmin(ctx context.Context) error {
	if app.config.AdminEmail == "" || app.config.AdminPassword == "" {
		return nil
	}
	a, created, err := app.accounts.EnsureAdmin(ctx, app.config.AdminEmail, app.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin seed error: %w", err)
	}
	app.logger.Info(ctx, "admin account ready", "account_id", a.ID, "created", created)
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Env)

	app.initSignalHandler(cancelFunc)
	defer app.close(context.Background())

	if err := app.seedAdmin(ctx); err != nil {
		return err
	}

	var (
		wg        sync.WaitGroup
		serverErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		serverErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return serverErr
}
