// Package server wires configuration, storage, the auth service and the
// network listeners together and runs them until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/logging"
	"github.com/dmitrijs2005/appauth/internal/server/config"
	"github.com/dmitrijs2005/appauth/internal/server/httpserver"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/appauth/internal/server/services"
	"github.com/dmitrijs2005/appauth/internal/tracing"

	gs "github.com/dmitrijs2005/appauth/internal/server/grpc"
)

const serviceName = "appauth"

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	shutdownOT  func(context.Context) error
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	shutdownOT, err := tracing.Setup(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	db, dialect, err := dbx.Open(ctx, c.DatabaseURL, c.DBMaxConns)
	if err != nil {
		_ = shutdownOT(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.New(dialect, logger)
	if err == nil {
		err = rm.RunMigrations(ctx, db)
	}
	if err != nil {
		_ = db.Close()
		_ = shutdownOT(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}
	logger.Info(ctx, "Database ready", "dialect", string(dialect))

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		authService: services.NewAuthService(db, rm, c),
		shutdownOT:  shutdownOT,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.New(app.config.HTTPAddr, app.logger, app.authService, app.authService.TokenCodec(), httpserver.Options{
		CookieSecure:       app.config.CookieSecure,
		CookieSameSite:     app.config.CookieSameSite,
		CORSAllowedOrigins: app.config.CORSAllowedOrigins,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or a listener failure, then
// releases the database and flushes spans.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCHealthServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "Shutting down...")

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := app.shutdownOT(flushCtx); err != nil {
		app.logger.Error(ctx, "tracing shutdown error", "error", err)
	}
}
