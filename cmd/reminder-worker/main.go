package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"scadenze/internal/cli"
	applog "scadenze/internal/log"
	"scadenze/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger.Info("Starting reminder-worker", applog.FieldOperation, applog.OpStartup)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required by the reminder worker")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendResult := cli.InitBackend(ctx, logger, cfg)
	defer backendResult.Close()

	amqpClient := cli.InitAMQP(ctx, logger, cfg)
	if amqpClient == nil {
		logger.Error("Cannot publish reminders without a broker connection")
		os.Exit(1)
	}
	defer amqpClient.Close()

	reminders := worker.NewReminderWorker(backendResult.Store, amqpClient, cfg.ReminderWindowDays, logger.Logger)

	runPass := func(trigger string) {
		passCtx, passCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer passCancel()
		stats, err := reminders.Run(passCtx, time.Now())
		if err != nil {
			logger.Error("Reminder pass failed", "trigger", trigger, "error", err, "published", stats.Published)
			return
		}
		logger.Info("Reminder pass finished", "trigger", trigger, "published", stats.Published)
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	scheduler := cron.New(cron.WithLogger(cronLogger), cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))
	if _, err := scheduler.AddFunc(cfg.ReminderSchedule, func() { runPass("schedule") }); err != nil {
		logger.Error("Invalid reminder schedule", "schedule", cfg.ReminderSchedule, "error", err)
		os.Exit(1)
	}

	logger.Info("Reminder worker configured",
		"schedule", cfg.ReminderSchedule,
		"window_days", cfg.ReminderWindowDays,
		applog.FieldBackend, cfg.DataBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runPass("startup")
		scheduler.Start()
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) error {
			stopped := scheduler.Stop()
			select {
			case <-stopped.Done():
				return nil
			case <-shutdownCtx.Done():
				return shutdownCtx.Err()
			}
		})
	})

	if err := g.Wait(); err != nil {
		logger.Error("Reminder worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder worker stopped", applog.FieldOperation, applog.OpShutdown)
}
