package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/core"
	"scadenze/internal/store/memory"
)

type recordingPublisher struct {
	sent   []*amqp.InstallmentReminder
	failOn string
}

func (p *recordingPublisher) PublishReminder(_ context.Context, msg *amqp.InstallmentReminder) error {
	if msg.AccountID == p.failOn {
		return errors.New("circuit breaker is open")
	}
	p.sent = append(p.sent, msg)
	return nil
}

type failingLister struct{}

func (failingLister) FetchAll(context.Context) ([]core.AccountRecord, error) {
	return nil, errors.New("connection refused")
}

func testAccounts() []core.AccountRecord {
	return []core.AccountRecord{
		{ID: "A1", Name: "Car loan", Details: []core.InstallmentDetail{
			{InstallmentNumber: 1, DueDate: "2024-02-28", Amount: core.MustMoney("100")},
			{InstallmentNumber: 2, DueDate: "2024-03-01", Amount: core.MustMoney("100")},
			{InstallmentNumber: 3, DueDate: "2024-03-05", Amount: core.MustMoney("100")},
		}},
		{ID: "B2", Name: "Phone", Details: []core.InstallmentDetail{
			{InstallmentNumber: 1, DueDate: "2024-02-29T18:00:00Z", Amount: core.MustMoney("30")},
			{InstallmentNumber: 2, DueDate: "2024-02-30", Amount: core.MustMoney("30")},
			{InstallmentNumber: 3, DueDate: "2024-02-27", Amount: core.MustMoney("30")},
		}},
	}
}

func TestReminderWorker_Run(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewReminderWorker(memory.New(testAccounts()...), pub, 2, nil)
	now := time.Date(2024, 2, 28, 7, 0, 0, 0, time.UTC)

	stats, err := w.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Accounts != 2 || stats.Due != 3 || stats.Published != 3 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	want := []struct {
		account string
		number  int
		due     string
		days    int
	}{
		{"A1", 1, "2024-02-28", 0},
		{"B2", 1, "2024-02-29", 1},
		{"A1", 2, "2024-03-01", 2},
	}
	if len(pub.sent) != len(want) {
		t.Fatalf("sent %d reminders, want %d", len(pub.sent), len(want))
	}
	for i, exp := range want {
		got := pub.sent[i]
		if got.AccountID != exp.account || got.InstallmentNumber != exp.number || got.DueDate != exp.due || got.DaysUntilDue != exp.days {
			t.Errorf("reminder %d = %+v, want %+v", i, got, exp)
		}
	}
	if pub.sent[0].AccountName != "Car loan" || !pub.sent[0].Amount.Equal(core.MustMoney("100")) {
		t.Errorf("reminder payload incomplete: %+v", pub.sent[0])
	}
}

func TestReminderWorker_PublishFailureContinues(t *testing.T) {
	pub := &recordingPublisher{failOn: "B2"}
	w := NewReminderWorker(memory.New(testAccounts()...), pub, 2, nil)

	stats, err := w.Run(context.Background(), time.Date(2024, 2, 28, 7, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for failed publish")
	}
	if stats.Published != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReminderWorker_StoreFailure(t *testing.T) {
	w := NewReminderWorker(failingLister{}, &recordingPublisher{}, 3, nil)
	_, err := w.Run(context.Background(), time.Now())
	if !errors.Is(err, core.ErrStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestReminderWorker_ZeroWindow(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewReminderWorker(memory.New(testAccounts()...), pub, -5, nil)
	stats, err := w.Run(context.Background(), time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Due != 1 || pub.sent[0].InstallmentNumber != 3 {
		t.Fatalf("expected only the 5 March installment, got %+v", stats)
	}
}

func TestReminderWorker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewReminderWorker(memory.New(testAccounts()...), &recordingPublisher{}, 2, nil)
	if _, err := w.Run(ctx, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
