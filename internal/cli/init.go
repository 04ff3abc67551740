// Package cli holds the start-up steps shared by cmd/scadenze and
// cmd/reminder-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scadenze/internal/amqp"
	"scadenze/internal/backend"
	"scadenze/internal/config"
	applog "scadenze/internal/log"
)

// SetupLogger builds the process logger for component at level and makes
// it the slog default.
func SetupLogger(component, level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the configured account store and exits on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// InitAMQP connects to the broker when one is configured. It returns nil
// when AMQP is disabled or unreachable; the caller runs without events.
func InitAMQP(ctx context.Context, logger *applog.Logger, cfg *config.Config) *amqp.Client {
	logger = logger.WithComponent(applog.ComponentAMQP)
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP not configured, events disabled")
		return nil
	}
	client, err := amqp.NewClient(ctx, amqp.Config{
		URL:         cfg.AMQPURL,
		Exchange:    cfg.AMQPExchange,
		Queue:       cfg.AMQPQueue,
		EventsQueue: cfg.AMQPEventsQueue,
	})
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"events_queue", cfg.AMQPEventsQueue)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// GracefulShutdown runs cleanup with a deadline of timeout and logs when the
// deadline is hit.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := cleanup(ctx)
	if ctx.Err() == context.DeadlineExceeded {
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
	} else if err == nil {
		logger.Info("Shutdown complete")
	}
	return err
}
