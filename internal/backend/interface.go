package backend

import (
	"context"
	"time"

	"scadenze/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is a ready account store and its optional cleanup.
type BackendResult struct {
	Store   store.AccountStore
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates account stores from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds what each backend type needs.
type Config struct {
	Type BackendType

	// memory
	DataFile string

	// sqlite
	SQLiteDBPath string

	// rest
	StoreURL     string
	StoreTimeout time.Duration

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RESTBackend   BackendType = "rest"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RESTBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
