package services

import (
	"testing"
	"time"

	"scadenze/internal/cache"
	"scadenze/internal/core"
)

func TestCalendarService_GridCache(t *testing.T) {
	grids := cache.NewLRUCache[[]core.CalendarDay](4, time.Hour)
	svc := NewCalendarService(grids)

	first := svc.Grid(2024)
	if grids.Size() != 1 {
		t.Fatalf("expected one cached grid, got %d", grids.Size())
	}
	first[0].IsDueDate = true
	first[0].WeekdayLabelsByMonth[0] = "xxx"

	second := svc.Grid(2024)
	if second[0].IsDueDate || second[0].WeekdayLabelsByMonth[0] != "Mon" {
		t.Errorf("cached grid was mutated through a returned copy: %+v", second[0])
	}

	if got := NewCalendarService(nil).Grid(2023); len(got) != core.DaysPerRow {
		t.Errorf("uncached grid has %d rows", len(got))
	}
}

func TestCalendarService_View(t *testing.T) {
	svc := NewCalendarService(nil)
	accounts := sampleAccounts()

	t.Run("all accounts", func(t *testing.T) {
		view, err := svc.View(Workspace{Year: 2024, Accounts: accounts})
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if view.Scope != ScopeAllAccounts || view.AccountID != "" {
			t.Errorf("unexpected scope %s %q", view.Scope, view.AccountID)
		}
		if !view.Days[14].DueByMonth[2] || !view.Days[14].DueByMonth[3] {
			t.Error("expected March and April 15 to be due")
		}
		if view.Skipped != 2 {
			t.Errorf("Skipped = %d, want 2", view.Skipped)
		}
	})

	t.Run("single account", func(t *testing.T) {
		view, err := svc.View(Workspace{Year: 2024, Accounts: accounts, SelectedAccountID: "B2"})
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if view.Scope != ScopeSingleAccount || view.AccountID != "B2" {
			t.Errorf("unexpected scope %s %q", view.Scope, view.AccountID)
		}
		if !view.Days[14].DueByMonth[2] || view.Days[14].DueByMonth[3] {
			t.Error("only the B2 installment should be due")
		}
	})

	t.Run("unknown account shows nothing", func(t *testing.T) {
		view, err := svc.View(Workspace{Year: 2024, Accounts: accounts, SelectedAccountID: "Z9"})
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		for _, d := range view.Days {
			if d.IsDueDate {
				t.Fatalf("day %d unexpectedly due", d.Day)
			}
		}
	})

	t.Run("other year", func(t *testing.T) {
		view, err := svc.View(Workspace{Year: 2025, Accounts: accounts})
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if view.Days[14].IsDueDate {
			t.Error("2024 installments leaked into 2025")
		}
	})
}

func TestCalendarService_DueOn(t *testing.T) {
	svc := NewCalendarService(nil)
	w := Workspace{Year: 2024, Accounts: sampleAccounts()}

	entries, err := svc.DueOn(w, 15, 2)
	if err != nil {
		t.Fatalf("DueOn: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	w.SelectedAccountID = "A1"
	entries, err = svc.DueOn(w, 15, 2)
	if err != nil {
		t.Fatalf("DueOn: %v", err)
	}
	if len(entries) != 1 || entries[0].AccountID != "A1" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
