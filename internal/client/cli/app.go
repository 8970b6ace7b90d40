package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// session is the part of services.SessionManager the CLI drives.
type session interface {
	Login(ctx context.Context, email, password string) error
	CreateAccount(ctx context.Context, email, password string) error
	Logout(ctx context.Context)
	CheckAuth(ctx context.Context)
	State() services.State
	IsLoggedIn() bool
}

// pinger reports Auth API reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	session session
	pinger  pinger
	closers []io.Closer
	log     logging.Logger

	reader *bufio.Reader
	out    io.Writer

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens the local store, builds the Auth API client and the session
// manager. The returned App owns all of them; Run releases them on exit.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := localdb.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	var opts []client.Option
	if c.HealthEndpointAddr != "" {
		hc, err := client.NewGRPCHealthChecker(c.HealthEndpointAddr)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error creating health checker: %w", err)
		}
		opts = append(opts, client.WithHealthChecker(hc))
	}
	api := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout, opts...)

	sm := services.NewSessionManager(api, services.NewMetadataTokenStore(db),
		services.WithLogger(log),
		services.WithRequestTimeout(c.RequestTimeout),
	)

	return newApp(c, sm, api, log, os.Stdin, os.Stdout, api, dbCloser{db}), nil
}

func newApp(c *config.Config, s session, p pinger, log logging.Logger, in io.Reader, out io.Writer, closers ...io.Closer) *App {
	return &App{
		config:  c,
		session: s,
		pinger:  p,
		closers: closers,
		log:     log.With("module", "cli"),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

type dbCloser struct{ db *sql.DB }

func (d dbCloser) Close() error { return d.db.Close() }

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsLoggedIn()
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
}

// probe pings the Auth API once and updates the mode.
func (a *App) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	err := a.pinger.Ping(ctx)
	cancel()

	if err != nil {
		a.log.Debug(ctx, "ping failed", "error", err)
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes the Auth API every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
