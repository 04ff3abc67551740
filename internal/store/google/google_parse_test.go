package google

import (
	"testing"

	"scadenze/internal/core"
)

func TestParseAccounts(t *testing.T) {
	values := [][]interface{}{
		{"Account ID", "Name", "Product", "Description", "Installment", "Due date", "Amount"},
		{"A1", "Loan", "Car", "5 years", 1.0, "2024-01-05", "100"},
		{"A1", "Loan", "Car", "5 years", 2.0, "2024-02-05", 250.5},
		{"B2", "Phone", "Mobile", "", "", "", ""},
		{"", "orphan row", "", "", "", "", ""},
		{"A1", "ignored name", "", "", "3", "not-a-date", "0"},
	}
	accounts, err := parseAccounts(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	a1 := accounts[0]
	if a1.ID != "A1" || a1.Name != "Loan" || a1.Product != "Car" || a1.Description != "5 years" {
		t.Fatalf("unexpected A1 header: %+v", a1)
	}
	if len(a1.Details) != 3 {
		t.Fatalf("expected 3 installments for A1, got %d", len(a1.Details))
	}
	if a1.Details[1].InstallmentNumber != 2 || !a1.Details[1].Amount.Equal(core.MustMoney("250.5")) {
		t.Fatalf("unexpected second installment: %+v", a1.Details[1])
	}
	// malformed dates are kept as written
	if a1.Details[2].DueDate != "not-a-date" {
		t.Fatalf("due date rewritten: %q", a1.Details[2].DueDate)
	}
	if b2 := accounts[1]; b2.ID != "B2" || len(b2.Details) != 0 {
		t.Fatalf("unexpected B2: %+v", b2)
	}
}

func TestParseAccountsErrors(t *testing.T) {
	cases := map[string][][]interface{}{
		"missing header": {{"Account ID", "Name"}},
		"bad number":     {sheetHeaderRow(), {"A1", "", "", "", "x", "2024-01-05", "1"}},
		"bad amount":     {sheetHeaderRow(), {"A1", "", "", "", "1", "2024-01-05", "abc"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseAccounts(values); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSheetValuesRoundTrip(t *testing.T) {
	accounts := []core.AccountRecord{
		{ID: "A1", Name: "Loan", Details: []core.InstallmentDetail{
			{InstallmentNumber: 1, DueDate: "2024-01-05", Amount: core.MustMoney("100")},
			{InstallmentNumber: 2, DueDate: "2024-02-05", Amount: core.MustMoney("250.5")},
		}},
		{ID: "B2", Name: "Empty"},
	}
	values := sheetValues(accounts)
	if len(values) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(values))
	}
	got, err := parseAccounts(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || len(got[0].Details) != 2 || len(got[1].Details) != 0 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if !got[0].Details[1].Amount.Equal(core.MustMoney("250.5")) {
		t.Fatalf("amount changed: %s", got[0].Details[1].Amount)
	}
}

func TestParseAccountsEmpty(t *testing.T) {
	got, err := parseAccounts(nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func sheetHeaderRow() []interface{} {
	row := make([]interface{}, len(sheetHeaders))
	for i, h := range sheetHeaders {
		row[i] = h
	}
	return row
}
