// Package gateway initializes and runs the public HTTP gateway in front of
// the identity service.
package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gatekeeper/internal/gateway/config"
	"github.com/dmitrijs2005/gatekeeper/internal/gateway/httpapi"
	"github.com/dmitrijs2005/gatekeeper/internal/gateway/session"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/observability"
	"github.com/dmitrijs2005/gatekeeper/internal/rpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	client *rpc.Client
	server *httpapi.Server
}

// NewApp builds the identity client, the session issuer and the router.
// It fails on a weak JWT secret. No connection to the identity service is
// made until the first request.
func NewApp(c *config.Config) (*App, error) {
	sl, err := logging.New(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := sl.With("service", "gateway")

	issuer, err := session.NewIssuer(c.JWTSecret, c.JWTExpiresIn, c.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("session init error: %w", err)
	}

	client, err := rpc.NewClient(rpc.ClientConfig{
		Address: c.AuthServiceAddr(),
		Timeout: c.RPCTimeout,
	})
	if err != nil {
		return nil, err
	}

	reg := observability.NewRegistry()
	router := httpapi.NewRouter(httpapi.Deps{
		Identity:       client,
		Sessions:       issuer,
		Logger:         logger,
		Metrics:        observability.NewHTTPMetrics(reg),
		MetricsHandler: observability.Handler(reg),
	})

	return &App{
		config: c,
		logger: logger,
		client: client,
		server: httpapi.NewServer(c.HTTPAddr, router, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a shutdown signal arrives or the
// listener fails, then closes the identity client.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting gateway...", "identity", app.config.AuthServiceAddr())

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
	}

	if err := app.client.Close(); err != nil {
		app.logger.Warn(ctx, "identity client close failed", "error", err)
	}
	app.logger.Info(ctx, "Gateway stopped")
}
