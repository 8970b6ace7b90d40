// Package server wires the Auth API: storage, business logic, the HTTP API
// and the gRPC health service, and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

// NewApp opens the database, applies migrations and assembles the servers.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, "json", c.LogLevel)

	generated, err := ensureSecret(c)
	if err != nil {
		return nil, err
	}
	if generated {
		logger.Warn(ctx, "no secret key configured, using an ephemeral one; tokens will not survive a restart")
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return assemble(c, db, rm, logger, clockwork.NewRealClock()), nil
}

// ensureSecret fills an empty SecretKey with random bytes.
func ensureSecret(c *config.Config) (bool, error) {
	if c.SecretKey != "" {
		return false, nil
	}
	s, err := common.MakeRandHexString(32)
	if err != nil {
		return false, fmt.Errorf("generating secret key: %w", err)
	}
	c.SecretKey = s
	return true, nil
}

func assemble(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger, clock clockwork.Clock) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	us := services.NewUserService(db, rm, c, clock)

	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.NewHandler(us, logger, m), logger, m, reg, c.AllowedOrigins)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
	}
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(ctx) })
	g.Go(func() error { return app.grpcServer.Run(ctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(context.Background(), "server stopped", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
