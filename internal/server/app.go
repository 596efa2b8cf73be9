// Package server wires the archive server together: storage selected by the
// configuration, the entry service, the HTTP surface and the gRPC health
// endpoint. Run blocks until a signal or a server failure.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/server/config"
	"github.com/Racej255/CrosslandApocalypse/internal/server/httpapi"
	"github.com/Racej255/CrosslandApocalypse/internal/server/services"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/blob"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/jsonfile"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/postgres"

	gs "github.com/Racej255/CrosslandApocalypse/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	storage      storage.Storage
	entryService *services.EntryService
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	st, err := openStorage(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	return &App{
		config:       c,
		logger:       logger,
		storage:      st,
		entryService: services.NewEntryService(st, logger),
	}, nil
}

func openStorage(ctx context.Context, c *config.Config, logger logging.Logger) (storage.Storage, error) {
	switch c.Storage() {
	case "postgres":
		return postgres.Open(ctx, c.DatabaseDSN)
	case "s3":
		b, err := blob.NewS3(ctx, blob.S3Options{
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Endpoint: c.S3BaseEndpoint,
			User:     c.S3User,
			Password: c.S3Password,
		})
		if err != nil {
			return nil, err
		}
		return jsonfile.New(b, c.EntriesFile, c.LogFile, logger), nil
	default:
		return jsonfile.New(blob.NewDir(c.DataDir), c.EntriesFile, c.LogFile, logger), nil
	}
}

// Handler returns the HTTP routing tree.
func (app *App) Handler() http.Handler {
	return httpapi.New(app.entryService, httpapi.Options{
		StaticDir: app.config.StaticDir,
		JWTSecret: []byte(app.config.JWTSecret),
		BodyLimit: app.config.BodyLimit,
		Logger:    app.logger,
	})
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

func (app *App) startHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Crossland archive server running", "address", app.config.HTTPAddr, "storage", app.config.Storage())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.HealthAddrGRPC, app.logger, app.storage)
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, a signal arrives or one of the servers
// fails; a failure stops the other server too. It returns the failures.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, name+" server failed", "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("http", app.startHTTPServer)
	if app.config.HealthAddrGRPC != "" {
		run("grpc", app.startGRPCServer)
	}

	wg.Wait()

	return errors.Join(errs...)
}

func (app *App) Close() error {
	return app.storage.Close()
}
