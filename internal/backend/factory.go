package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ecomdash/internal/source/csvfile"
	"ecomdash/internal/source/google"
	"ecomdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVSource(config), nil
	case SQLiteBackend:
		return f.createSQLiteSource(config)
	case SheetsBackend:
		return f.createSheetsSource(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVSource(config Config) *Result {
	loader := csvfile.New(config.DataDir, csvfile.PathMode(config.PathMode), csvfile.Files{
		Category:    config.CategoryFile,
		State:       config.StateFile,
		TopCategory: config.TopCategoryFile,
	})

	f.logger.Info("Initialized CSV source", "data_dir", config.DataDir, "path_mode", config.PathMode)
	return &Result{Source: loader}
}

func (f *DefaultFactory) createSQLiteSource(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite source", "db_path", config.SQLiteDBPath)
	return &Result{Source: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (*Result, error) {
	cli, err := google.Dial(ctx, config.GoogleSpreadsheetID, google.Sheets{
		Category:    config.GoogleCategorySheet,
		State:       config.GoogleStateSheet,
		TopCategory: config.GoogleTopCategorySheet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets source", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &Result{Source: cli}, nil
}
