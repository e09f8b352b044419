// Package server initializes and runs the voucher application server.
// It connects the storage backend, runs schema migrations, wires the
// RouterOS client and the voucher service, and starts the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/wifivoucher/internal/logging"
	"github.com/dmitrijs2005/wifivoucher/internal/server/config"
	"github.com/dmitrijs2005/wifivoucher/internal/server/credentials"
	"github.com/dmitrijs2005/wifivoucher/internal/server/httpapi"
	"github.com/dmitrijs2005/wifivoucher/internal/server/provisioning"
	"github.com/dmitrijs2005/wifivoucher/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wifivoucher/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	// pgx stdlib driver is registered by the repomanager import.
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	generator := credentials.NewGenerator(cfg.UsernameLength, cfg.PasswordLength)

	provisioner := provisioning.NewClient(&provisioning.Config{
		Address:       cfg.RouterOSAddress,
		Username:      cfg.RouterOSUsername,
		Password:      cfg.RouterOSPassword,
		UseTLS:        cfg.RouterOSUseTLS,
		DialTimeout:   cfg.RouterOSDialTimeout,
		HotspotServer: cfg.HotspotServer,
		Profile: provisioning.ProfilePolicy{
			Name:              cfg.ProfileName,
			SessionTimeout:    cfg.ProfileSessionTimeout,
			IdleTimeout:       cfg.ProfileIdleTimeout,
			SharedUsers:       cfg.ProfileSharedUsers,
			StatusAutorefresh: cfg.ProfileStatusAutorefresh,
		},
		UptimeLimit: cfg.UptimeLimit,
	}, logger)

	vs := services.NewVoucherService(db, rm, generator, provisioner, logger, cfg)

	httpServer := httpapi.NewServer(cfg.HTTPAddr, logger, vs, cfg.AdminToken, db)

	return &App{config: cfg, logger: logger, db: db, httpServer: httpServer}, nil
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err.Error())
	}
}
