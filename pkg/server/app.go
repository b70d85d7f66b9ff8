package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
)

// App owns the scanner loop, the read API server, and the lifecycle of
// the backing stores.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	scanner     *usecase.Scanner
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	signals     repository.SignalStore
	subscribers repository.SubscriberStore
	alerts      repository.AlertPublisher
}

func New(
	cfg *config.Config,
	logger *applogger.Logger,
	scanner *usecase.Scanner,
	httpHandler xhttp.Handler,
	signals repository.SignalStore,
	subscribers repository.SubscriberStore,
	alerts repository.AlertPublisher,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		scanner:     scanner,
		httpHandler: httpHandler,
		signals:     signals,
		subscribers: subscribers,
		alerts:      alerts,
	}
}

// Run starts the scanner and the HTTP server, then blocks until
// interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	go func() {
		if err := a.scanner.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("scanner stopped", applogger.Error(err))
		}
	}()
	a.logger.Info("scanner started",
		applogger.Duration("interval", a.cfg.Scan.Interval),
		applogger.Int("batch_size", a.cfg.Scan.BatchSize))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown stops the HTTP server and closes the stores.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.alerts.Close(); err != nil {
		a.logger.Warn("alert publisher close error", applogger.Error(err))
	}
	if err := a.subscribers.Close(); err != nil {
		a.logger.Warn("subscriber store close error", applogger.Error(err))
	}
	if err := a.signals.Close(); err != nil {
		a.logger.Warn("signal store close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
