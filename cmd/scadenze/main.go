package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"scadenze/internal/cache"
	"scadenze/internal/cli"
	"scadenze/internal/core"
	apphttp "scadenze/internal/http"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendResult := cli.InitBackend(ctx, logger, cfg)
	defer backendResult.Close()

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.EventPublisher
	if amqpClient := cli.InitAMQP(ctx, logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	grids := cache.NewLRUCache[[]core.CalendarDay](cfg.CalendarCacheSize, cfg.CalendarCacheTTL)
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register("calendar_grids", grids)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	accounts := services.NewAccountService(backendResult.Store, publisher)
	calendar := services.NewCalendarService(grids)

	srv := apphttp.NewServer(":"+cfg.Port, accounts, calendar, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting scadenze server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			"amqp_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, 30*time.Second, srv.Shutdown)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
