package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"scadenze/internal/core"
	"scadenze/internal/store"
)

// Ensure interface conformance
var _ store.AccountStore = (*Client)(nil)

// Config selects the spreadsheet and credentials. CredentialsJSON wins over
// CredentialsFile; one of them is required.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Client stores accounts in one sheet, one row per installment.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// writes rewrite or append ranges computed from a previous read
	writeMu sync.Mutex
}

// New creates a Sheets client with service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Accounts"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)

	switch {
	case len(credentialsJSON) > 0:
		slog.InfoContext(ctx, "Using inline service account credentials")
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
		slog.InfoContext(ctx, "Read service account credentials", "path", credentialsFile)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) fullRange() string {
	return fmt.Sprintf("%s!A:G", c.sheetName)
}

func (c *Client) read(ctx context.Context) ([]core.AccountRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.fullRange()).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.fullRange(), err)
	}
	return parseAccounts(resp.Values)
}

// FetchAll reads every account from the sheet.
func (c *Client) FetchAll(ctx context.Context) ([]core.AccountRecord, error) {
	return c.read(ctx)
}

// Create appends the account rows. The header is written first when the
// sheet is empty.
func (c *Client) Create(ctx context.Context, account core.AccountRecord) (core.AccountRecord, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	existing, err := c.read(ctx)
	if err != nil {
		return core.AccountRecord{}, err
	}
	for _, a := range existing {
		if a.ID == account.ID {
			return core.AccountRecord{}, fmt.Errorf("%w: %s", core.ErrDuplicateAccount, account.ID)
		}
	}

	if len(existing) == 0 {
		return account, c.rewrite(ctx, []core.AccountRecord{account})
	}

	vr := &gsheet.ValueRange{Values: accountRows(account)}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.fullRange(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return core.AccountRecord{}, fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	slog.InfoContext(ctx, "Account appended to sheet",
		"account_id", account.ID,
		"rows", len(vr.Values),
		"sheet", c.sheetName)
	return account, nil
}

// Replace rewrites the sheet with the account's rows swapped in place.
func (c *Client) Replace(ctx context.Context, id string, account core.AccountRecord) (core.AccountRecord, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	existing, err := c.read(ctx)
	if err != nil {
		return core.AccountRecord{}, err
	}
	account.ID = id
	found := false
	for i := range existing {
		if existing[i].ID == id {
			existing[i] = account
			found = true
			break
		}
	}
	if !found {
		return core.AccountRecord{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	if err := c.rewrite(ctx, existing); err != nil {
		return core.AccountRecord{}, err
	}
	return account, nil
}

func (c *Client) rewrite(ctx context.Context, accounts []core.AccountRecord) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.fullRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}
	values := sheetValues(accounts)
	rng := fmt.Sprintf("%s!A1:G%d", c.sheetName, len(values))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Accounts sheet rewritten", "accounts", len(accounts), "rows", len(values)-1)
	return nil
}
