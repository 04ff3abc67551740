package services

import (
	"log/slog"
	"time"

	"scadenze/internal/core"
)

// DueEntry is an installment located on the calendar, with its owner.
type DueEntry struct {
	AccountID   string                 `json:"accountId"`
	AccountName string                 `json:"accountName"`
	Installment core.InstallmentDetail `json:"installment"`
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// DueDateIndex answers "is this calendar cell a due date" and "what is due
// on this cell" for a fixed set of accounts.
//
// Matching uses the parsed (year, month, day) of each installment's due
// date. Installments with malformed or non-existent dates are skipped. The
// index is immutable; rebuild it when the account list or the selected
// account changes.
type DueDateIndex struct {
	byDay   map[dayKey][]DueEntry
	skipped int
}

// NewDueDateIndex indexes the installments of the accounts chosen by sel.
// A nil selector means all accounts.
func NewDueDateIndex(accounts []core.AccountRecord, sel AccountSelector) *DueDateIndex {
	if sel == nil {
		sel = AllAccounts{}
	}
	idx := &DueDateIndex{byDay: make(map[dayKey][]DueEntry)}
	for _, acc := range sel.Select(accounts) {
		for _, det := range acc.Details {
			date, err := core.ParseDueDate(det.DueDate)
			if err != nil {
				idx.skipped++
				slog.Debug("Skipping installment with malformed due date",
					"account_id", acc.ID,
					"installment_number", det.InstallmentNumber,
					"due_date", det.DueDate)
				continue
			}
			k := dayKey{year: date.Year(), month: date.Time.Month(), day: date.Day()}
			idx.byDay[k] = append(idx.byDay[k], DueEntry{
				AccountID:   acc.ID,
				AccountName: acc.Name,
				Installment: det,
			})
		}
	}
	return idx
}

func cellKey(year, monthIndex, day int) dayKey {
	return dayKey{year: year, month: time.Month(monthIndex + 1), day: day}
}

// IsDue reports whether any indexed installment falls on the cell.
// monthIndex is 0-based.
func (x *DueDateIndex) IsDue(day, monthIndex, year int) bool {
	return len(x.byDay[cellKey(year, monthIndex, day)]) > 0
}

// Find returns the first installment due on the cell, in account order and
// then installment order.
func (x *DueDateIndex) Find(day, monthIndex, year int) (core.InstallmentDetail, bool) {
	entries := x.byDay[cellKey(year, monthIndex, day)]
	if len(entries) == 0 {
		return core.InstallmentDetail{}, false
	}
	return entries[0].Installment, true
}

// FindAll returns every installment due on the cell.
func (x *DueDateIndex) FindAll(day, monthIndex, year int) []DueEntry {
	entries := x.byDay[cellKey(year, monthIndex, day)]
	return append([]DueEntry(nil), entries...)
}

// Skipped is the number of installments ignored for a malformed due date.
func (x *DueDateIndex) Skipped() int {
	return x.skipped
}

// Annotate returns a copy of days with the due flags for year set.
func (x *DueDateIndex) Annotate(days []core.CalendarDay, year int) []core.CalendarDay {
	out := core.CloneCalendar(days)
	for i := range out {
		out[i].IsDueDate = false
		for m := range core.MonthsPerYear {
			due := x.IsDue(out[i].Day, m, year)
			out[i].DueByMonth[m] = due
			if due {
				out[i].IsDueDate = true
			}
		}
	}
	return out
}

// Annotate marks the due cells of days using the accounts picked by scope.
// For the single-account scope the selected id is accountID.
func Annotate(days []core.CalendarDay, year int, accounts []core.AccountRecord, scope Scope, accountID string) ([]core.CalendarDay, error) {
	sel, err := SelectorFor(scope, accountID)
	if err != nil {
		return nil, err
	}
	return NewDueDateIndex(accounts, sel).Annotate(days, year), nil
}

// FindInstallment returns the first installment of accounts due on the
// given cell. monthIndex is 0-based.
func FindInstallment(day, monthIndex, year int, accounts []core.AccountRecord) (core.InstallmentDetail, bool) {
	return NewDueDateIndex(accounts, AllAccounts{}).Find(day, monthIndex, year)
}

// FindInstallments returns every installment of accounts due on the given
// cell, each with the id and name of its account.
func FindInstallments(day, monthIndex, year int, accounts []core.AccountRecord) []DueEntry {
	return NewDueDateIndex(accounts, AllAccounts{}).FindAll(day, monthIndex, year)
}
