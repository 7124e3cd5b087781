// Package identity initializes and runs the identity service: it opens the
// user store, applies the schema, and serves the identity RPCs and metrics
// until a shutdown signal arrives.
package identity

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gatekeeper/internal/identity/config"
	gs "github.com/dmitrijs2005/gatekeeper/internal/identity/grpc"
	"github.com/dmitrijs2005/gatekeeper/internal/identity/passwords"
	"github.com/dmitrijs2005/gatekeeper/internal/identity/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/identity/services"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	users    *services.UserService
	registry *prometheus.Registry
}

// NewApp wires store, hasher and service together. For the postgres store
// it waits for the database and applies migrations before returning.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	sl, err := logging.New(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := sl.With("service", "identity")

	repos, err := openRepositories(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		repos.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us, err := services.NewUserService(repos.Users(), passwords.NewBcryptHasher(c.BcryptCost), logger)
	if err != nil {
		repos.Close()
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		users:    us,
		registry: observability.NewRegistry(),
	}, nil
}

func openRepositories(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.Store == config.StoreMemory {
		logger.Warn(ctx, "using in-memory user store; data is lost on exit")
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return repomanager.Connect(ctx, c.DatabaseDSN, c.DBConnectTimeout, logger)
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
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.users, observability.NewRPCMetrics(app.registry))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := observability.NewServer(app.config.MetricsAddr, app.registry, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "metrics server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or a server
// fails, then releases the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting identity service...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.repos.Close()
	app.logger.Info(ctx, "Identity service stopped")
}
