package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/moimhub/moim-backend/internal/config"
	"github.com/moimhub/moim-backend/internal/health"
	"github.com/moimhub/moim-backend/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Readiness     *health.ProbeRunner

	stopBackground func()
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, readiness *health.ProbeRunner, stop func()) *App {
	return &App{
		Config:         cfg,
		Logger:         logger,
		Server:         server,
		Observability:  runtime,
		Readiness:      readiness,
		stopBackground: stop,
	}
}

func (a *App) StopBackgroundTasks() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests before flushing the observability pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")
		a.StopBackgroundTasks()

		drainCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownHTTPDrainTimeout)
		defer cancel()
		if err := a.Server.Shutdown(drainCtx); err != nil {
			a.Logger.Error("http drain failed", "error", err)
		}

		obsCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownObservabilityTimeout)
		defer cancel()
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.Logger.Error("observability shutdown failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}
