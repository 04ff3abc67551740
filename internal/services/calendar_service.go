package services

import (
	"strconv"

	"scadenze/internal/cache"
	"scadenze/internal/core"
)

// Workspace is the caller-owned view state: the displayed year, the loaded
// accounts and the account picked in the calendar filter (empty for all).
type Workspace struct {
	Year              int
	Accounts          []core.AccountRecord
	SelectedAccountID string
}

// CalendarView is an annotated year grid ready for rendering.
type CalendarView struct {
	Year      int                  `json:"year"`
	Scope     Scope                `json:"scope"`
	AccountID string               `json:"accountId,omitempty"`
	Days      []core.CalendarDay   `json:"days"`
	Skipped   int                  `json:"skippedInstallments"`
	Accounts  []core.AccountRecord `json:"-"`
}

// CalendarService builds annotated calendars. Unannotated grids depend
// only on the year and are kept in grids.
type CalendarService struct {
	grids cache.Cache[[]core.CalendarDay]
}

// NewCalendarService creates the service. grids may be nil to disable caching.
func NewCalendarService(grids cache.Cache[[]core.CalendarDay]) *CalendarService {
	return &CalendarService{grids: grids}
}

// Grid returns the unannotated grid for year. The result is owned by the caller.
func (s *CalendarService) Grid(year int) []core.CalendarDay {
	if s.grids == nil {
		return core.BuildCalendar(year)
	}
	key := strconv.Itoa(year)
	if days, ok := s.grids.Get(key); ok {
		return core.CloneCalendar(days)
	}
	days := core.BuildCalendar(year)
	s.grids.Set(key, core.CloneCalendar(days))
	return days
}

// View builds the annotated calendar for w.
func (s *CalendarService) View(w Workspace) (CalendarView, error) {
	scope := ScopeFromAccountID(w.SelectedAccountID)
	sel, err := SelectorFor(scope, w.SelectedAccountID)
	if err != nil {
		return CalendarView{}, err
	}
	idx := NewDueDateIndex(w.Accounts, sel)
	return CalendarView{
		Year:      w.Year,
		Scope:     scope,
		AccountID: w.SelectedAccountID,
		Days:      idx.Annotate(s.Grid(w.Year), w.Year),
		Skipped:   idx.Skipped(),
		Accounts:  w.Accounts,
	}, nil
}

// DueOn lists the installments due on one cell of w's calendar.
func (s *CalendarService) DueOn(w Workspace, day, monthIndex int) ([]DueEntry, error) {
	sel, err := SelectorFor(ScopeFromAccountID(w.SelectedAccountID), w.SelectedAccountID)
	if err != nil {
		return nil, err
	}
	return NewDueDateIndex(w.Accounts, sel).FindAll(day, monthIndex, w.Year), nil
}
