package store

import (
	"context"

	"scadenze/internal/core"
)

// Ports for outbound adapters.
type (
	// AccountLister returns every stored account in store order.
	AccountLister interface {
		FetchAll(ctx context.Context) ([]core.AccountRecord, error)
	}

	// AccountWriter creates accounts and replaces them wholesale by id.
	AccountWriter interface {
		// Create stores a new account and returns it as the store saw it.
		Create(ctx context.Context, account core.AccountRecord) (core.AccountRecord, error)
		// Replace overwrites the account identified by id.
		Replace(ctx context.Context, id string, account core.AccountRecord) (core.AccountRecord, error)
	}

	AccountStore interface {
		AccountLister
		AccountWriter
	}
)
