// Package server wires the key server together: it opens the configured
// key-store backend, then runs the gRPC and HTTP servers until a signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/keystore/couch"
	"github.com/dmitrijs2005/pairjournal/internal/keystore/postgres"
	"github.com/dmitrijs2005/pairjournal/internal/keystore/s3store"
	"github.com/dmitrijs2005/pairjournal/internal/keystore/sqlite"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/server/config"
	"github.com/dmitrijs2005/pairjournal/internal/server/httpx"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/pairjournal/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    keystore.Store
	closer   io.Closer
	identity *identity.LocalProvider
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSON(os.Stdout, level)

	store, closer, err := OpenStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("key store init error: %w", err)
	}

	id := identity.NewLocalProvider(store, []byte(c.SecretKey), c.AccessTokenValidityDuration, logger)

	return &App{config: c, logger: logger, store: store, closer: closer, identity: id}, nil
}

// OpenStore opens the backend named by c.Backend. The returned closer
// releases its connections.
func OpenStore(ctx context.Context, c *config.Config) (keystore.Store, io.Closer, error) {
	nop := closerFunc(func() error { return nil })

	switch c.Backend {
	case config.BackendMemory:
		return keystore.NewMemoryStore(), nop, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, c.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewStore(db), db, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db), db, nil

	case config.BackendCouch:
		s, client, err := couch.Open(ctx, c.CouchURL, c.CouchDB)
		if err != nil {
			return nil, nil, err
		}
		return s, closerFunc(client.Close), nil

	case config.BackendS3:
		s, err := s3store.Open(ctx, s3store.Config{
			Region:    c.S3Region,
			Endpoint:  c.S3BaseEndpoint,
			AccessKey: c.S3RootUser,
			SecretKey: c.S3RootPassword,
			Bucket:    c.S3Bucket,
			Prefix:    c.S3Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nop, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
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

// Run serves until ctx is done, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.Backend)

	app.initSignalHandler(cancelFunc)

	grpcServer, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.store, app.identity)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})
	if app.config.EndpointAddrHTTP != "" {
		httpServer := httpx.NewServer(app.config.EndpointAddrHTTP, app.config.Backend, app.store, app.logger)
		g.Go(func() error {
			return httpServer.Run(gctx)
		})
	}

	err = g.Wait()
	if cerr := app.closer.Close(); cerr != nil {
		app.logger.Error(ctx, "failed to close key store", "error", cerr)
	}
	if err != nil {
		app.logger.Error(ctx, err.Error())
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
