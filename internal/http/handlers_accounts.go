package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
)

const maxAccountBodyBytes = 1 << 20

// saveResponse is the body returned by POST /api/accounts.
type saveResponse struct {
	Action   services.ReconcileAction `json:"action"`
	Index    int                      `json:"index"`
	Account  core.AccountWithTotal    `json:"account"`
	Accounts []core.AccountWithTotal  `json:"accounts"`
}

func withTotals(accounts []core.AccountRecord) []core.AccountWithTotal {
	out := make([]core.AccountWithTotal, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, services.WithTotal(a))
	}
	return out
}

// loadAccounts fetches the current list, writing the error response itself
// when the store fails.
func (s *Server) loadAccounts(w http.ResponseWriter, r *http.Request) ([]core.AccountRecord, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), storeCallTimeout)
	defer cancel()

	accounts, err := s.accounts.LoadAll(ctx)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to load accounts", err, applog.ErrorTypeStore, applog.OpList, nil)
		ErrorResponse(http.StatusBadGateway, "failed to load accounts").Write(w)
		return nil, false
	}
	return accounts, true
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	NewHTMXResponse().
		TriggerSuccessNotification("fetched data successfully").
		JSON(withTotals(accounts)).
		Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	acc, found := s.accounts.FetchByID(accounts, r.PathValue("id"))
	if !found {
		NotFoundError("account not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// handleAccountForm returns the editor state for an existing account.
func (s *Server) handleAccountForm(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	acc, found := services.FindByID(accounts, r.PathValue("id"))
	if !found {
		NotFoundError("account not found").Write(w)
		return
	}
	form := services.FormFromRecord(acc)
	if r.URL.Query().Get("add") == "installment" {
		form.AddInstallment()
	}
	writeJSON(w, http.StatusOK, form)
}

// handleNewAccountForm returns an empty editor with one blank installment row.
func (s *Server) handleNewAccountForm(w http.ResponseWriter, r *http.Request) {
	var form core.AccountForm
	form.AddInstallment()
	writeJSON(w, http.StatusOK, form)
}

// handleSaveAccount reconciles the submitted form against the current
// store list and creates or replaces the account.
func (s *Server) handleSaveAccount(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	var form core.AccountForm
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAccountBodyBytes))
	if err := dec.Decode(&form); err != nil {
		logger.WarnContext(r.Context(), "Invalid account payload", "error", err)
		BadRequestError("invalid account payload").Write(w)
		return
	}
	form.ID = stripControl(form.ID)
	form.Name = sanitizeInput(form.Name)
	form.Product = sanitizeInput(form.Product)
	form.Description = sanitizeInput(form.Description)
	for i := range form.Installments {
		form.Installments[i].DueDate = sanitizeInput(form.Installments[i].DueDate)
	}
	candidate := form.ToRecord()

	if err := candidate.Validate(); err != nil {
		logger.InfoContext(r.Context(), "Rejected account",
			applog.NewFields().WithAccount(candidate.ID, candidate.Name).WithError(err, applog.ErrorTypeValidation).ToSlice()...)
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	known, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeCallTimeout)
	defer cancel()

	result, err := s.accounts.Save(ctx, candidate, known)
	if err != nil {
		s.writeSaveError(w, r, candidate.ID, err)
		return
	}

	saved := services.WithTotal(result.Account)
	if result.Account.ID == "" {
		saved = services.WithTotal(candidate)
	}
	applog.NewStructuredLogger(logger).
		LogAccountSaved(r.Context(), string(result.Action), saved.ID, saved.Name, saved.TotalAmount.String())

	msg := "account created"
	if result.Action == services.ActionUpdate {
		msg = "account updated"
	}
	NewHTMXResponse().
		TriggerSuccessNotification(msg).
		TriggerAccountSaved(string(result.Action), saved.ID).
		TriggerCalendarRefresh(s.now().Year()).
		JSON(saveResponse{
			Action:   result.Action,
			Index:    result.Index,
			Account:  saved,
			Accounts: withTotals(result.Accounts),
		}).
		Write(w)
}

func (s *Server) writeSaveError(w http.ResponseWriter, r *http.Request, id string, err error) {
	fields := applog.NewFields().WithAccount(id, "")
	sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))

	switch {
	case errors.Is(err, core.ErrEmptyAccountID),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrNegativeInstallmentNumber):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrDuplicateAccount):
		sl.LogError(r.Context(), "Account save conflict", err, applog.ErrorTypeConflict, applog.OpCreate, fields)
		ErrorResponse(http.StatusConflict, "account already exists").Write(w)
	case errors.Is(err, core.ErrAccountNotFound):
		sl.LogError(r.Context(), "Account vanished before update", err, applog.ErrorTypeNotFound, applog.OpUpdate, fields)
		NotFoundError("account not found").Write(w)
	case errors.Is(err, core.ErrStoreFailure):
		sl.LogError(r.Context(), "Failed to save account", err, applog.ErrorTypeStore, applog.OpReconcile, fields)
		ErrorResponse(http.StatusBadGateway, "failed to save account").Write(w)
	default:
		sl.LogError(r.Context(), "Failed to save account", err, applog.ErrorTypeInternal, applog.OpReconcile, fields)
		InternalServerError("failed to save account").Write(w)
	}
}
