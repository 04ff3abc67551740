// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for choosing which accounts feed
// the due-date index. Each scope (all accounts, a single account) has its
// own selector.

package services

import (
	"fmt"

	"scadenze/internal/core"
)

// Scope names the account subset shown on the calendar.
type Scope string

const (
	ScopeAllAccounts   Scope = "all-accounts"
	ScopeSingleAccount Scope = "single-account"
)

// AccountSelector is the strategy interface for narrowing the account list.
type AccountSelector interface {
	Select(accounts []core.AccountRecord) []core.AccountRecord
}

// AllAccounts selects every account.
type AllAccounts struct{}

func (AllAccounts) Select(accounts []core.AccountRecord) []core.AccountRecord {
	return accounts
}

// SingleAccount selects the first account whose id equals ID. Later
// accounts sharing the id are ignored.
type SingleAccount struct {
	ID string
}

func (s SingleAccount) Select(accounts []core.AccountRecord) []core.AccountRecord {
	for i := range accounts {
		if accounts[i].ID == s.ID {
			return accounts[i : i+1]
		}
	}
	return nil
}

// SelectorFor returns the selector for scope. accountID is only used by
// the single-account scope and must be non-empty there.
func SelectorFor(scope Scope, accountID string) (AccountSelector, error) {
	switch scope {
	case ScopeAllAccounts, "":
		return AllAccounts{}, nil
	case ScopeSingleAccount:
		if accountID == "" {
			return nil, fmt.Errorf("single-account scope requires an account id")
		}
		return SingleAccount{ID: accountID}, nil
	default:
		return nil, fmt.Errorf("unknown scope: %s", scope)
	}
}

// ScopeFromAccountID maps the calendar's account picker to a scope: an
// empty selection means every account.
func ScopeFromAccountID(accountID string) Scope {
	if accountID == "" {
		return ScopeAllAccounts
	}
	return ScopeSingleAccount
}
