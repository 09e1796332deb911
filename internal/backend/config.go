package backend

import (
	"errors"
	"fmt"

	"ecomdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		DataDir:         appConfig.DataDir,
		PathMode:        appConfig.DataPathMode,
		CategoryFile:    appConfig.CategoryFile,
		StateFile:       appConfig.StateFile,
		TopCategoryFile: appConfig.TopCategoryFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:    appConfig.GoogleSpreadsheetID,
		GoogleCategorySheet:    appConfig.GoogleCategorySheet,
		GoogleStateSheet:       appConfig.GoogleStateSheet,
		GoogleTopCategorySheet: appConfig.GoogleTopCategorySheet,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.DataDir == "" {
			return errors.New("data directory is required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	}
	return nil
}
