package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"scadenze/internal/core"
	"scadenze/internal/store"
)

var _ store.AccountStore = (*Store)(nil)

// Store keeps accounts in process memory, in insertion order.
type Store struct {
	mu       sync.Mutex
	accounts []core.AccountRecord
}

// dbFile is the json-server database layout.
type dbFile struct {
	Accounts []core.AccountRecord `json:"accounts"`
}

func New(accounts ...core.AccountRecord) *Store {
	s := &Store{}
	for _, a := range accounts {
		s.accounts = append(s.accounts, a.Clone())
	}
	return s
}

// NewFromFile seeds the store from a json-server db.json. A missing or
// unreadable file yields an empty store.
func NewFromFile(path string) *Store {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read seed file", "path", path, "error", err)
		}
		return New()
	}
	var db dbFile
	if err := json.Unmarshal(b, &db); err != nil {
		slog.Warn("Failed to parse seed file", "path", path, "error", err)
		return New()
	}
	return New(db.Accounts...)
}

// FetchAll returns a copy of every account.
func (s *Store) FetchAll(_ context.Context) ([]core.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AccountRecord, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.Clone())
	}
	return out, nil
}

// Create appends the account. Ids must be unique within the store.
func (s *Store) Create(_ context.Context, account core.AccountRecord) (core.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(account.ID) >= 0 {
		return core.AccountRecord{}, fmt.Errorf("%w: %s", core.ErrDuplicateAccount, account.ID)
	}
	s.accounts = append(s.accounts, account.Clone())
	return account.Clone(), nil
}

// Replace overwrites the account with the given id, keeping its position.
func (s *Store) Replace(_ context.Context, id string, account core.AccountRecord) (core.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.AccountRecord{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	account.ID = id
	s.accounts[i] = account.Clone()
	return account.Clone(), nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}
