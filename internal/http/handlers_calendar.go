package http

import (
	"net/http"
	"strings"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
)

// workspace builds the caller state for a calendar request from ?year= and
// ?account=. It writes the error response itself on failure.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (services.Workspace, bool) {
	year, err := parseYear(r, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return services.Workspace{}, false
	}
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return services.Workspace{}, false
	}
	return services.Workspace{
		Year:              year,
		Accounts:          accounts,
		SelectedAccountID: stripControl(r.URL.Query().Get("account")),
	}, true
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	view, err := s.calendar.View(ws)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Calendar annotated",
		applog.NewFields().WithCalendar(view.Year, string(view.Scope)).WithOperation(applog.OpAnnotate).ToSlice()...)

	resp := NewHTMXResponse()
	if ws.SelectedAccountID != "" {
		if _, found := services.FindByID(ws.Accounts, ws.SelectedAccountID); !found {
			resp.TriggerInfoNotification("account not found")
		}
	}
	resp.JSON(view).Write(w)
}

type dueResponse struct {
	Year         int                 `json:"year"`
	Month        int                 `json:"month"`
	Day          int                 `json:"day"`
	Installments []services.DueEntry `json:"installments"`
}

// handleDueInstallments lists what is due on one calendar cell.
func (s *Server) handleDueInstallments(w http.ResponseWriter, r *http.Request) {
	day, monthIndex, err := parseCell(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	entries, err := s.calendar.DueOn(ws, day, monthIndex)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if entries == nil {
		entries = []services.DueEntry{}
	}
	writeJSON(w, http.StatusOK, dueResponse{
		Year:         ws.Year,
		Month:        monthIndex + 1,
		Day:          day,
		Installments: entries,
	})
}

type monthColumn struct {
	Index int
	Name  string
}

type indexPage struct {
	View     services.CalendarView
	Months   []monthColumn
	Accounts []core.AccountWithTotal
	PrevYear int
	NextYear int
}

// handleIndex renders the year calendar page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	view, err := s.calendar.View(ws)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	page := indexPage{
		View:     view,
		Accounts: withTotals(ws.Accounts),
		PrevYear: view.Year - 1,
		NextYear: view.Year + 1,
	}
	for m := range core.MonthsPerYear {
		page.Months = append(page.Months, monthColumn{Index: m, Name: core.MonthName(m)})
	}

	var b strings.Builder
	if err := s.templates.ExecuteTemplate(&b, "calendar.html", page); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"error", err, "template", "calendar.html", applog.FieldOperation, applog.OpRender)
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}
