// Package backend builds the dataset source selected by configuration.
package backend

import (
	"context"

	"ecomdash/internal/source"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// Result contains the source and an optional cleanup function.
type Result struct {
	Source  source.Source
	Cleanup CleanupFunc
}

// Close runs Cleanup when present.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for source creation
type Config struct {
	Type BackendType

	// CSV specific
	DataDir         string
	PathMode        string
	CategoryFile    string
	StateFile       string
	TopCategoryFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID    string
	GoogleCategorySheet    string
	GoogleStateSheet       string
	GoogleTopCategorySheet string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
