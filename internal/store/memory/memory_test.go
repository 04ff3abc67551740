package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scadenze/internal/core"
)

func TestMemoryStoreCreateReplaceFetch(t *testing.T) {
	ctx := context.Background()
	s := New(core.AccountRecord{ID: "A1", Name: "Car"})

	if _, err := s.Create(ctx, core.AccountRecord{ID: "A2", Name: "Home"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, core.AccountRecord{ID: "A1"}); !errors.Is(err, core.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	updated := core.AccountRecord{ID: "A1", Name: "Car v2", Details: []core.InstallmentDetail{
		{InstallmentNumber: 1, DueDate: "2024-01-05", Amount: core.MustMoney("100")},
	}}
	if _, err := s.Replace(ctx, "A1", updated); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := s.Replace(ctx, "missing", updated); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	all, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(all) != 2 || all[0].ID != "A1" || all[0].Name != "Car v2" || all[1].ID != "A2" {
		t.Fatalf("unexpected accounts: %+v", all)
	}

	// returned slices are copies
	all[0].Details[0].DueDate = "changed"
	again, _ := s.FetchAll(ctx)
	if again[0].Details[0].DueDate != "2024-01-05" {
		t.Fatalf("store state leaked through FetchAll")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// No file -> empty store
	s := NewFromFile(filepath.Join(dir, "missing.json"))
	if all, _ := s.FetchAll(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty store, got %d", len(all))
	}

	path := filepath.Join(dir, "db.json")
	seed := `{"accounts":[{"id":"A1","Name":"Loan","Product":"Car","Description":"","Details":[{"installmentNumber":1,"dueDate":"2024-01-05","amount":250.5}]}]}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFile(path)
	all, _ := s.FetchAll(context.Background())
	if len(all) != 1 || all[0].ID != "A1" || len(all[0].Details) != 1 {
		t.Fatalf("unexpected seed: %+v", all)
	}
	if !all[0].Details[0].Amount.Equal(core.MustMoney("250.5")) {
		t.Fatalf("unexpected amount: %s", all[0].Details[0].Amount)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if all, _ := NewFromFile(path).FetchAll(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty store on bad seed")
	}
}
