// Package worker runs the background jobs of the reminder service.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
	"scadenze/internal/store"
)

// ReminderPublisher sends one reminder downstream.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.InstallmentReminder) error
}

// RunStats summarises one reminder pass.
type RunStats struct {
	Accounts  int
	Due       int
	Published int
	Failed    int
	Skipped   int
}

// ReminderWorker publishes a reminder for every installment falling due
// between today and today plus windowDays, inclusive.
type ReminderWorker struct {
	accounts   store.AccountLister
	publisher  ReminderPublisher
	windowDays int
	logger     *slog.Logger
}

func NewReminderWorker(accounts store.AccountLister, publisher ReminderPublisher, windowDays int, logger *slog.Logger) *ReminderWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if windowDays < 0 {
		windowDays = 0
	}
	return &ReminderWorker{
		accounts:   accounts,
		publisher:  publisher,
		windowDays: windowDays,
		logger:     logger,
	}
}

// Run performs one pass relative to now. A failed publish does not stop the
// pass; the returned error reports how many failed.
func (w *ReminderWorker) Run(ctx context.Context, now time.Time) (RunStats, error) {
	var stats RunStats

	accounts, err := w.accounts.FetchAll(ctx)
	if err != nil {
		return stats, core.NewStoreError("fetch all", err)
	}
	stats.Accounts = len(accounts)

	byID := make(map[string]core.AccountRecord, len(accounts))
	for _, a := range accounts {
		if _, dup := byID[a.ID]; !dup {
			byID[a.ID] = a
		}
	}

	idx := services.NewDueDateIndex(accounts, services.AllAccounts{})
	stats.Skipped = idx.Skipped()

	today := core.Today(now)
	var firstErr error
	for offset := 0; offset <= w.windowDays; offset++ {
		day := core.Date{Time: today.AddDate(0, 0, offset)}
		for _, entry := range idx.FindAll(day.Day(), day.Month()-1, day.Year()) {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Due++
			msg := amqp.NewInstallmentReminder(byID[entry.AccountID], entry.Installment, day, offset)
			if err := w.publisher.PublishReminder(ctx, msg); err != nil {
				stats.Failed++
				if firstErr == nil {
					firstErr = err
				}
				w.logger.ErrorContext(ctx, "Failed to publish reminder",
					applog.FieldOperation, applog.OpRemind,
					applog.FieldAccountID, entry.AccountID,
					applog.FieldInstallment, entry.Installment.InstallmentNumber,
					applog.FieldDueDate, day.String(),
					applog.FieldError, err)
				continue
			}
			stats.Published++
		}
	}

	w.logger.InfoContext(ctx, "Reminder pass completed",
		applog.FieldOperation, applog.OpRemind,
		"accounts", stats.Accounts,
		"due", stats.Due,
		"published", stats.Published,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"window_days", w.windowDays)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d reminders failed: %w", stats.Failed, stats.Due, firstErr)
	}
	return stats, nil
}
