// Package client assembles the sync client: local replica, remote
// collections, connectivity watcher and the sync engine, one service per
// entity kind.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkaraca/dukkan/internal/client/config"
	"github.com/mkaraca/dukkan/internal/connectivity"
	"github.com/mkaraca/dukkan/internal/engine"
	"github.com/mkaraca/dukkan/internal/entities"
	"github.com/mkaraca/dukkan/internal/local"
	"github.com/mkaraca/dukkan/internal/logging"
	"github.com/mkaraca/dukkan/internal/remote"
	"github.com/mkaraca/dukkan/internal/tenant"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	session *tenant.SessionResolver
	client  *remote.Client
	watcher *connectivity.Watcher
	engine  *engine.Engine
	meta    *local.Metadata

	Customers    *engine.Service[entities.Customer]
	Employees    *engine.Service[entities.Employee]
	Offerings    *engine.Service[entities.Offering]
	Appointments *engine.Service[entities.Appointment]
	Expenses     *engine.Service[entities.Expense]
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := local.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("local db init error: %w", err)
	}

	session := tenant.NewSessionResolver()
	client := remote.NewClient(cfg.ServerURL, session, logger)
	watcher := connectivity.NewWatcher(client, cfg.OnlineCheckInterval, logger)

	app := &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		session: session,
		client:  client,
		watcher: watcher,
		engine:  engine.New(session, logger),
		meta:    local.NewMetadata(db),
	}

	if app.Customers, err = registerKind(app, entities.Customers()); err != nil {
		return nil, err
	}
	if app.Employees, err = registerKind(app, entities.Employees()); err != nil {
		return nil, err
	}
	if app.Offerings, err = registerKind(app, entities.Offerings()); err != nil {
		return nil, err
	}
	if app.Appointments, err = registerKind(app, entities.Appointments()); err != nil {
		return nil, err
	}
	if app.Expenses, err = registerKind(app, entities.Expenses()); err != nil {
		return nil, err
	}

	return app, nil
}

// registerKind builds the local store, remote collection, coordinator and
// service for one entity kind and registers it with the engine.
func registerKind[P engine.Payload](a *App, kind engine.Kind[P]) (*engine.Service[P], error) {
	store, err := local.NewStore(a.db, kind, local.NewNotifier())
	if err != nil {
		return nil, fmt.Errorf("store init for %s: %w", kind.Name, err)
	}
	coll := remote.NewCollection(a.client, kind)
	coord := engine.NewCoordinator(kind, store, coll, a.logger)
	svc := engine.NewService(kind, store, coll, coord, a.session, a.watcher, store, a.logger, a.config.DeviceName)
	a.engine.Register(svc)
	return svc, nil
}

// Login opens a tenant session against the remote store.
func (a *App) Login(ctx context.Context, login, password string) error {
	token, err := a.client.Login(ctx, login, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return a.session.SetSession(token)
}

// SyncNow runs one full sync pass, records the completion time of every kind
// that finished and logs the aggregate result.
func (a *App) SyncNow(ctx context.Context) error {
	outcomes, err := a.engine.SyncAll(ctx)
	now := time.Now().UTC()
	total := engine.SyncOutcome{Kind: "all"}
	for _, o := range outcomes {
		if o.Kind == "" {
			continue
		}
		total = total.Add(o)
		if mErr := a.meta.SetLastSync(ctx, o.Kind, now); mErr != nil {
			a.logger.Warn(ctx, "recording last sync failed", "kind", o.Kind, "error", mErr)
		}
	}
	a.logger.Info(ctx, "sync finished",
		"pushed", total.Pushed,
		"deleted", total.Deleted,
		"deferred", total.Deferred,
		"applied", total.Applied,
		"removed", total.Removed,
	)
	return err
}

// Run starts the connectivity watcher and keeps syncing on reconnect until
// ctx is cancelled or an OS signal arrives.
func (a *App) Run(ctx context.Context) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	if a.config.Login != "" {
		if err := a.Login(ctx, a.config.Login, a.config.Password); err != nil {
			a.logger.Warn(ctx, "starting offline, login failed", "error", err)
		} else if err := a.SyncNow(ctx); err != nil {
			a.logger.Warn(ctx, "initial sync incomplete", "error", err)
		}
	}

	go a.watcher.Run(ctx)
	a.engine.RunOnConnect(ctx, a.watcher.Changes(ctx))

	if err := a.db.Close(); err != nil {
		a.logger.Error(ctx, "local db close error", "error", err)
	}
	a.logger.Info(ctx, "client stopped")
}
