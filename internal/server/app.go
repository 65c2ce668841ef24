// Package server wires the lifelog server: storage, identity resolution,
// services and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/lifelog/internal/logging"
	"github.com/dmitrijs2005/lifelog/internal/server/config"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lifelog/internal/server/services"

	gs "github.com/dmitrijs2005/lifelog/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
}

// NewApp opens the database, applies migrations and key provisioning, and
// assembles the gRPC server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := sql.Open(c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(c.DatabaseMaxOpenConns)

	app, err := newApp(ctx, c, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, db *sql.DB, logger logging.Logger) (*App, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	warnInsecureDefaults(ctx, c, logger)

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	chain := newIdentityChain(c, rm.Accounts(db), logger)

	as := services.NewAccountService(db, rm, c)
	ps := services.NewProfileService(db, rm)

	s := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, as, ps, chain, gs.DefaultPolicy())

	return &App{config: c, logger: logger, db: db, server: s}, nil
}

// newIdentityChain orders the branches federated, Google, local. Providers
// without configuration are present but never match.
func newIdentityChain(c *config.Config, finder identity.AccountFinder, logger logging.Logger) *identity.Chain {
	kc := identity.NewKeycloakBranch(identity.KeycloakConfig{
		ServerURL:    c.KeycloakServerURL,
		Realm:        c.KeycloakRealm,
		ClientID:     c.KeycloakClientID,
		ClientSecret: c.KeycloakClientSecret,
		VerifyTLS:    c.KeycloakVerifyTLS,
		Timeout:      c.ProviderTimeout,
	}, finder)
	google := identity.NewGoogleBranch(c.GoogleClientID, c.ProviderTimeout, finder)
	local := identity.NewLocal(finder, []byte(c.SecretKey))

	logger.Info(context.Background(), "identity chain configured",
		"keycloak", isEnabled(kc),
		"google", isEnabled(google))

	return identity.NewChain(logger, kc, google, local)
}

// warnInsecureDefaults flags the development signing secret when the server
// runs against PostgreSQL. SQLite runs are local and keep quiet.
func warnInsecureDefaults(ctx context.Context, c *config.Config, logger logging.Logger) {
	if c.SecretKey == config.DefaultSecretKey && c.DatabaseDriver != "sqlite3" {
		logger.Warn(ctx, "default secret key in use; set SECRET_KEY", "driver", c.DatabaseDriver)
	}
}

func isEnabled(b identity.Branch) bool {
	_, disabled := b.(identity.Disabled)
	return !disabled
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
