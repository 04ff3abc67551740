package cli

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"scadenze/internal/config"
	applog "scadenze/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(applog.ComponentWorker, "debug")
	if logger.Component() != applog.ComponentWorker {
		t.Errorf("component = %q", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("default logger should have debug enabled")
	}
}

func TestInitAMQP_Disabled(t *testing.T) {
	logger := applog.New(applog.DefaultConfig())
	if c := InitAMQP(context.Background(), logger, &config.Config{}); c != nil {
		t.Error("expected nil client when AMQP_URL is empty")
	}
}

func TestGracefulShutdown(t *testing.T) {
	logger := applog.New(applog.DefaultConfig())

	t.Run("cleanup error is returned", func(t *testing.T) {
		want := errors.New("close failed")
		err := GracefulShutdown(logger, time.Second, func(context.Context) error { return want })
		if !errors.Is(err, want) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("cleanup sees the deadline", func(t *testing.T) {
		err := GracefulShutdown(logger, 10*time.Millisecond, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("got %v", err)
		}
	})
}
