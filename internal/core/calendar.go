package core

import "time"

const (
	// DaysPerRow is the number of day rows in the year grid.
	DaysPerRow = 31
	// MonthsPerYear is the number of month columns in the year grid.
	MonthsPerYear = 12
)

// WeekdayNames are the labels used in the calendar grid, Sunday first.
var WeekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// CalendarDay is one row of the perpetual year calendar: the same day
// number across all twelve months.
//
// Every row carries a label for every month, including dates that do not
// exist (Feb 30, Apr 31). Those cells continue the weekday sequence of the
// month and never carry a due flag.
type CalendarDay struct {
	Day                  int                   `json:"day"`
	WeekdayLabelsByMonth [MonthsPerYear]string `json:"weekdayLabelsByMonth"`
	DueByMonth           [MonthsPerYear]bool   `json:"dueByMonth"`
	IsDueDate            bool                  `json:"isDueDate"`
}

// BuildCalendar returns the 31 rows of the year grid with all due flags
// cleared. Any integer year is accepted (proleptic Gregorian calendar).
func BuildCalendar(year int) []CalendarDay {
	var first [MonthsPerYear]int
	for m := range MonthsPerYear {
		first[m] = FirstWeekday(year, m)
	}

	days := make([]CalendarDay, DaysPerRow)
	for i := range days {
		d := i + 1
		days[i].Day = d
		for m := range MonthsPerYear {
			days[i].WeekdayLabelsByMonth[m] = WeekdayNames[(first[m]+d-1)%7]
		}
	}
	return days
}

// FirstWeekday returns the weekday (0 = Sunday) of the first day of the
// month at monthIndex (0 = January).
func FirstWeekday(year, monthIndex int) int {
	return int(time.Date(year, time.Month(monthIndex+1), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// CloneCalendar returns a deep copy of days.
func CloneCalendar(days []CalendarDay) []CalendarDay {
	if days == nil {
		return nil
	}
	return append([]CalendarDay(nil), days...)
}

// MonthName returns the English short name for monthIndex (0 = January).
func MonthName(monthIndex int) string {
	return time.Month(monthIndex + 1).String()[:3]
}
