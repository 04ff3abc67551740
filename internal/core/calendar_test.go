package core

import (
	"testing"
	"time"
)

func TestBuildCalendarShape(t *testing.T) {
	valid := map[string]bool{}
	for _, n := range WeekdayNames {
		valid[n] = true
	}
	for _, year := range []int{-400, 0, 1, 1900, 2000, 2024, 2025, 9999, 123456} {
		days := BuildCalendar(year)
		if len(days) != DaysPerRow {
			t.Fatalf("year %d: expected %d rows, got %d", year, DaysPerRow, len(days))
		}
		for i, row := range days {
			if row.Day != i+1 {
				t.Fatalf("year %d: row %d has day %d", year, i, row.Day)
			}
			if row.IsDueDate {
				t.Fatalf("year %d: fresh grid must have no due rows", year)
			}
			for m, label := range row.WeekdayLabelsByMonth {
				if !valid[label] {
					t.Fatalf("year %d: invalid label %q at day %d month %d", year, label, row.Day, m)
				}
				if row.DueByMonth[m] {
					t.Fatalf("year %d: fresh grid must have no due cells", year)
				}
			}
		}
	}
}

func TestBuildCalendarMatchesRealWeekdays(t *testing.T) {
	for _, year := range []int{1970, 2000, 2023, 2024, 2100} {
		days := BuildCalendar(year)
		for m := range MonthsPerYear {
			last := time.Date(year, time.Month(m+2), 0, 0, 0, 0, 0, time.UTC).Day()
			for d := 1; d <= last; d++ {
				want := time.Date(year, time.Month(m+1), d, 0, 0, 0, 0, time.UTC).Weekday().String()[:3]
				if got := days[d-1].WeekdayLabelsByMonth[m]; got != want {
					t.Fatalf("%d-%02d-%02d: got %s, want %s", year, m+1, d, got, want)
				}
			}
		}
	}
}

func TestBuildCalendarKnownDates(t *testing.T) {
	days := BuildCalendar(2024)
	// 2024-01-01 was a Monday, 2024-03-15 a Friday.
	if got := days[0].WeekdayLabelsByMonth[0]; got != "Mon" {
		t.Fatalf("2024-01-01: got %s", got)
	}
	if got := days[14].WeekdayLabelsByMonth[2]; got != "Fri" {
		t.Fatalf("2024-03-15: got %s", got)
	}
}

func TestBuildCalendarLabelsNonExistentDates(t *testing.T) {
	// Feb 2024 starts on Thursday; day 30 continues the sequence to Friday
	// even though the date does not exist.
	days := BuildCalendar(2024)
	if got := days[29].WeekdayLabelsByMonth[1]; got != "Fri" {
		t.Fatalf("Feb 30 label: got %s", got)
	}
	if got := days[30].WeekdayLabelsByMonth[3]; got == "" {
		t.Fatalf("Apr 31 must still have a label")
	}
}

func TestBuildCalendarIsIdempotent(t *testing.T) {
	a := BuildCalendar(2031)
	b := BuildCalendar(2031)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between builds", i)
		}
	}
}

func TestCloneCalendarIsIndependent(t *testing.T) {
	a := BuildCalendar(2024)
	b := CloneCalendar(a)
	b[0].DueByMonth[0] = true
	if a[0].DueByMonth[0] {
		t.Fatalf("clone shares state with original")
	}
}

func TestMonthName(t *testing.T) {
	if MonthName(0) != "Jan" || MonthName(11) != "Dec" {
		t.Fatalf("unexpected month names %s %s", MonthName(0), MonthName(11))
	}
}
