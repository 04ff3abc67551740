package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"scadenze/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteCreateAndFetchPreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	accounts := []core.AccountRecord{
		{ID: "Z9", Name: "Last alphabetically", Details: []core.InstallmentDetail{
			{InstallmentNumber: 2, DueDate: "2024-02-05", Amount: core.MustMoney("20")},
			{InstallmentNumber: 1, DueDate: "2024-01-05", Amount: core.MustMoney("10.25")},
		}},
		{ID: "A1", Name: "First alphabetically"},
	}
	for _, a := range accounts {
		if _, err := repo.Create(ctx, a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}

	got, err := repo.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[0].ID != "Z9" || got[1].ID != "A1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got[0].Details) != 2 || got[0].Details[0].InstallmentNumber != 2 {
		t.Fatalf("installment order lost: %+v", got[0].Details)
	}
	if !got[0].Details[1].Amount.Equal(core.MustMoney("10.25")) {
		t.Fatalf("amount changed: %s", got[0].Details[1].Amount)
	}
	if len(got[1].Details) != 0 {
		t.Fatalf("expected no installments for A1")
	}
}

func TestSQLiteDuplicateCreate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.Create(ctx, core.AccountRecord{ID: "A1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, core.AccountRecord{ID: "A1"}); !errors.Is(err, core.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSQLiteReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	orig := core.AccountRecord{ID: "A1", Name: "Loan", Details: []core.InstallmentDetail{
		{InstallmentNumber: 1, DueDate: "2024-01-05", Amount: core.MustMoney("100")},
		{InstallmentNumber: 2, DueDate: "2024-02-05", Amount: core.MustMoney("100")},
	}}
	if _, err := repo.Create(ctx, orig); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, core.AccountRecord{ID: "B2"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	repl := core.AccountRecord{ID: "A1", Name: "Loan v2", Product: "Car", Details: []core.InstallmentDetail{
		{InstallmentNumber: 1, DueDate: "2024-03-15", Amount: core.MustMoney("350.5")},
	}}
	if _, err := repo.Replace(ctx, "A1", repl); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := repo.Replace(ctx, "missing", repl); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, err := repo.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got[0].ID != "A1" || got[0].Name != "Loan v2" || got[0].Product != "Car" {
		t.Fatalf("replace did not keep position or fields: %+v", got)
	}
	if len(got[0].Details) != 1 || got[0].Details[0].DueDate != "2024-03-15" {
		t.Fatalf("installments not replaced: %+v", got[0].Details)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.Create(context.Background(), core.AccountRecord{ID: "A1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got, err := repo.FetchAll(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted account, got %v (err=%v)", got, err)
	}
}
