// Package server wires configuration, storage, hashing, token issuing and
// the gRPC transport into a runnable credential service.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/audiences"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/users"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const audienceCachePrefix = "gophauth:audience:"

var (
	openDB = repomanager.OpenDB

	logOutput io.Writer = os.Stdout
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	redis     redis.UniversalClient
	repos     repomanager.RepositoryManager
	issuer    *auth.Issuer
	audiences *audiences.Registry
	users     *users.Service
}

// NewApp validates c and builds every component. Configuration problems wrap
// common.ErrConfiguration.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel, logOutput)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "signing tokens with the development secret; set GOPHAUTH_SECRET_KEY")
	}

	secret, err := c.LoadSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret init error: %w", err)
	}
	issuer, err := auth.NewIssuer(secret, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	params := cryptox.DefaultArgon2Params()
	params.MemoryKiB = c.HashMemoryKiB
	params.Iterations = c.HashIterations
	params.Parallelism = c.HashParallelism
	hasher, err := cryptox.NewArgon2(params)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}
	pool := passwords.NewPool(hasher, c.HashWorkers)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, issuer: issuer}
	app.repos = repomanager.NewPostgresRepositoryManager()

	var cache audiences.Cache = audiences.NopCache{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		cache = audiences.NewRedisCache(app.redis, audienceCachePrefix, c.AudienceCacheTTL)
	}
	app.audiences = audiences.NewRegistry(app.repos.Audiences(db), cache, logger)

	app.users = users.NewService(db, app.repos, app.audiences, issuer, pool,
		models.NewRoleSet(c.PrivilegedRoles...), logger)

	return app, nil
}

// ListAudiences returns every registered audience.
func (app *App) ListAudiences(ctx context.Context) ([]models.Audience, error) {
	return app.repos.Audiences(app.db).List(ctx)
}

// RegisterAudience creates an audience with a fresh token.
func (app *App) RegisterAudience(ctx context.Context, name string) (*models.Audience, error) {
	return app.audiences.Register(ctx, name)
}

// ResetPassword sets a user's password without the current one.
func (app *App) ResetPassword(ctx context.Context, email, password string) error {
	return app.users.ResetPassword(ctx, email, password)
}

// AssignRoles replaces a user's roles.
func (app *App) AssignRoles(ctx context.Context, email string, roles []string) (*models.User, error) {
	return app.users.AssignRoles(ctx, email, roles)
}

// Migrate brings the schema up to date.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Close releases the database and cache connections.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.issuer)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeRevocations drops expired revocation entries every interval until
// ctx ends.
func (app *App) purgeRevocations(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.purgeOnce(ctx)
		}
	}
}

func (app *App) purgeOnce(ctx context.Context) {
	n, err := app.users.PurgeRevocations(ctx)
	if err != nil {
		app.logger.Error(ctx, "revocation purge failed", "error", err)
		return
	}
	if n > 0 {
		app.logger.Info(ctx, "revocations purged", "count", n)
	}
}

// Run migrates the schema and serves until a termination signal arrives or
// ctx ends.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeRevocations(ctx, app.config.RevocationPurgeInterval)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.Close()
}
