package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/form"
	"github.com/raysh454/policeform/internal/history"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/readiness"
	"github.com/raysh454/policeform/internal/server"
	"github.com/raysh454/policeform/internal/validate"
	"github.com/raysh454/policeform/internal/webclient"
)

// Application is the global runtime state container. It owns every long-lived
// component and their shutdown order.
type Application struct {
	Config *Config
	Logger logging.Logger

	Orch      *Orchestrator
	Browsers  *browser.Manager
	Readiness *readiness.Cache
	Server    *server.Server
	History   *history.Store

	db     *sql.DB
	client *webclient.NetHTTPClient
}

// Option customizes NewApplication.
type Option func(*options)

type options struct {
	launcher browser.Launcher
}

// WithLauncher replaces the Chrome launcher, e.g. with a fake in tests.
func WithLauncher(l browser.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// NewApplication wires every component from cfg.
func NewApplication(cfg *Config, logger logging.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	launcher := o.launcher
	if launcher == nil {
		launcher = browser.NewChromeLauncher(cfg.Browser.Chrome, logger)
	}
	browsers := browser.NewManager(launcher, cfg.Browser.RetryBaseDelay, logger)

	v, err := validate.New()
	if err != nil {
		return nil, fmt.Errorf("loading request schema: %w", err)
	}

	a := &Application{
		Config:   cfg,
		Logger:   logger,
		Browsers: browsers,
		client:   webclient.NewNetHTTPClient(cfg.Attachment.Fetch, logger, nil),
	}

	var recorder HistoryRecorder
	var reader server.HistoryReader
	if cfg.History.Enabled {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		store, err := history.NewStore(db, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating history store: %w", err)
		}
		a.db, a.History = db, store
		recorder, reader = store, store
	}

	filler := form.NewFiller(logger)
	a.Orch = NewOrchestrator(cfg, Deps{
		Validator: v,
		Browsers:  browsers,
		Form:      form.NewTenantForm(cfg.Form.URL, filler, form.NewCascade(filler, cfg.Form.CascadeTimeout, logger), logger),
		Submitter: form.NewSubmitter(filler, cfg.Form.SubmitWait, logger),
		Client:    a.client,
		History:   recorder,
	}, logger)

	a.Readiness = readiness.New(browsers, cfg.Readiness, logger)
	a.Server = server.NewServer(cfg.Server, server.Deps{
		Submissions: a.Orch,
		Readiness:   a.Readiness,
		History:     reader,
	}, logger)

	return a, nil
}

// Run listens on the configured address and serves until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.Config.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve starts the background browser probe, accepts requests on ln and shuts
// down gracefully once ctx is done. In-flight submissions get up to 15s to
// finish.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Readiness.Start(ctx)

	srv := a.Server.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.Readiness.MarkServerReady()
	a.Logger.Info("server listening", logging.Field{Key: "addr", Value: ln.Addr().String()})

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
	}

	shutdownErr := a.Shutdown(context.WithoutCancel(ctx), srv)
	return errors.Join(serveErr, shutdownErr)
}

// Shutdown stops accepting requests, waits for running jobs and releases
// resources. srv may be nil.
func (a *Application) Shutdown(ctx context.Context, srv *http.Server) error {
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := a.Orch.Wait(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for submissions: %w", err))
	}
	a.Readiness.Wait()
	errs = append(errs, a.Close())

	a.Logger.Info("application stopped")
	return errors.Join(errs...)
}

// Close releases the history database and HTTP client.
func (a *Application) Close() error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}

// Probe launches one browser and closes it.
func (a *Application) Probe(ctx context.Context) error {
	return a.Browsers.Probe(ctx, a.Config.Browser.LaunchTimeout)
}
