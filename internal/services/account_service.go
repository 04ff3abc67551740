package services

import (
	"context"
	"fmt"
	"log/slog"

	"scadenze/internal/core"
	"scadenze/internal/store"
)

// EventPublisher announces saved accounts to other services.
type EventPublisher interface {
	PublishAccountSaved(ctx context.Context, action string, account core.AccountWithTotal) error
}

// SaveResult is the outcome of AccountService.Save. Accounts is the list
// the caller should display from now on.
type SaveResult struct {
	Reconciliation
	Account  core.AccountRecord   `json:"account"`
	Accounts []core.AccountRecord `json:"accounts"`
}

// AccountService orchestrates account writes across the store and AMQP.
type AccountService struct {
	store     store.AccountStore
	publisher EventPublisher
}

// NewAccountService wires the service. publisher may be nil.
func NewAccountService(s store.AccountStore, publisher EventPublisher) *AccountService {
	return &AccountService{
		store:     s,
		publisher: publisher,
	}
}

// LoadAll fetches every account from the store.
func (s *AccountService) LoadAll(ctx context.Context) ([]core.AccountRecord, error) {
	accounts, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, core.NewStoreError("fetch all", err)
	}
	return accounts, nil
}

// FetchByID looks the account up in known and computes its total. A miss
// returns false and no error.
func (s *AccountService) FetchByID(known []core.AccountRecord, id string) (core.AccountWithTotal, bool) {
	acc, ok := FindByID(known, id)
	if !ok {
		return core.AccountWithTotal{}, false
	}
	return WithTotal(acc), true
}

// Save persists candidate against the caller's current list.
//
// An update replaces the store record and the list entry at the matched
// index without refetching. A create writes the record and then refetches
// the whole list. On any failure known is left untouched and the error is
// a store or validation error.
func (s *AccountService) Save(ctx context.Context, candidate core.AccountRecord, known []core.AccountRecord) (SaveResult, error) {
	if err := candidate.Validate(); err != nil {
		return SaveResult{}, fmt.Errorf("validation failed: %w", err)
	}

	rec := Reconcile(candidate, known)
	result := SaveResult{Reconciliation: rec}

	switch rec.Action {
	case ActionUpdate:
		saved, err := s.store.Replace(ctx, candidate.ID, candidate)
		if err != nil {
			return SaveResult{}, core.NewStoreError("replace", err)
		}
		next := make([]core.AccountRecord, len(known))
		copy(next, known)
		next[rec.Index] = candidate.Clone()
		result.Account = saved
		result.Accounts = next

	default:
		saved, err := s.store.Create(ctx, candidate)
		if err != nil {
			return SaveResult{}, core.NewStoreError("create", err)
		}
		refreshed, err := s.store.FetchAll(ctx)
		if err != nil {
			return SaveResult{}, core.NewStoreError("fetch all", err)
		}
		result.Account = saved
		result.Accounts = refreshed
	}

	slog.InfoContext(ctx, "Account saved",
		"account_id", candidate.ID,
		"action", string(rec.Action),
		"index", rec.Index,
		"installments", len(candidate.Details))

	if err := s.publishSaved(ctx, rec.Action, candidate); err != nil {
		slog.ErrorContext(ctx, "Failed to publish account event",
			"account_id", candidate.ID, "error", err)
		// Don't fail the request - the account is stored
	}

	return result, nil
}

func (s *AccountService) publishSaved(ctx context.Context, action ReconcileAction, account core.AccountRecord) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping account event")
		return nil
	}
	return s.publisher.PublishAccountSaved(ctx, string(action), WithTotal(account))
}

// Ping checks that the store answers.
func (s *AccountService) Ping(ctx context.Context) error {
	_, err := s.LoadAll(ctx)
	return err
}
