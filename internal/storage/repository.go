package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scadenze/internal/core"
	"scadenze/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.AccountStore = (*SQLiteRepository)(nil)

// SQLiteRepository persists accounts and their installments in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchAll implements store.AccountLister. Accounts come back in creation
// order and installments in the order they were saved.
func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]core.AccountRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, product, description
		FROM accounts
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.AccountRecord
	pos := map[string]int{}
	for rows.Next() {
		var a core.AccountRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.Product, &a.Description); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		pos[a.ID] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	// release the only connection before the next query
	rows.Close()
	if len(out) == 0 {
		return out, nil
	}

	irows, err := r.db.QueryContext(ctx, `
		SELECT account_id, installment_number, due_date, amount
		FROM installments
		ORDER BY account_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer irows.Close()

	for irows.Next() {
		var (
			accountID string
			d         core.InstallmentDetail
			amount    string
		)
		if err := irows.Scan(&accountID, &d.InstallmentNumber, &d.DueDate, &amount); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		m, err := core.ParseMoney(amount)
		if err != nil {
			return nil, fmt.Errorf("account %s: stored amount %q: %w", accountID, amount, err)
		}
		d.Amount = m
		if i, ok := pos[accountID]; ok {
			out[i].Details = append(out[i].Details, d)
		}
	}
	if err := irows.Err(); err != nil {
		return nil, fmt.Errorf("iterate installments: %w", err)
	}
	return out, nil
}

// Create implements store.AccountWriter.
func (r *SQLiteRepository) Create(ctx context.Context, account core.AccountRecord) (core.AccountRecord, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, position, name, product, description)
			VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM accounts), ?, ?, ?)`,
			account.ID, account.Name, account.Product, account.Description)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", core.ErrDuplicateAccount, account.ID)
			}
			return fmt.Errorf("insert account: %w", err)
		}
		return insertInstallments(ctx, tx, account)
	})
	if err != nil {
		return core.AccountRecord{}, err
	}

	slog.InfoContext(ctx, "Account saved to SQLite",
		"account_id", account.ID,
		"installments", len(account.Details))
	return account.Clone(), nil
}

// Replace implements store.AccountWriter. The account keeps its position.
func (r *SQLiteRepository) Replace(ctx context.Context, id string, account core.AccountRecord) (core.AccountRecord, error) {
	account.ID = id
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET name = ?, product = ?, description = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			account.Name, account.Product, account.Description, id)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM installments WHERE account_id = ?`, id); err != nil {
			return fmt.Errorf("delete installments: %w", err)
		}
		return insertInstallments(ctx, tx, account)
	})
	if err != nil {
		return core.AccountRecord{}, err
	}

	slog.InfoContext(ctx, "Account replaced in SQLite",
		"account_id", id,
		"installments", len(account.Details))
	return account.Clone(), nil
}

func insertInstallments(ctx context.Context, tx *sql.Tx, account core.AccountRecord) error {
	if len(account.Details) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO installments (account_id, position, installment_number, due_date, amount)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare installment insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range account.Details {
		if _, err := stmt.ExecContext(ctx, account.ID, i, d.InstallmentNumber, d.DueDate, d.Amount.String()); err != nil {
			return fmt.Errorf("insert installment %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
