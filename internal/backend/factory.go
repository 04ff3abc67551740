package backend

import (
	"context"
	"fmt"
	"log/slog"

	"scadenze/internal/storage"
	gsheet "scadenze/internal/store/google"
	"scadenze/internal/store/memory"
	"scadenze/internal/store/rest"
)

// DefaultFactory builds the store named by Config.Type.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case RESTBackend:
		return f.createRESTBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var s *memory.Store
	if config.DataFile == "" {
		s = memory.New()
	} else {
		s = memory.NewFromFile(config.DataFile)
	}
	f.logger.Info("Initialized memory backend", "data_file", config.DataFile)
	return &BackendResult{Store: s}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createRESTBackend(config Config) (*BackendResult, error) {
	client, err := rest.New(config.StoreURL, nil, config.StoreTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize REST store client: %w", err)
	}
	f.logger.Info("Initialized REST backend", "store_url", config.StoreURL, "timeout", config.StoreTimeout)
	return &BackendResult{Store: client}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsFile: config.GoogleServiceAccountFile,
		CredentialsJSON: config.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return &BackendResult{Store: client}, nil
}
