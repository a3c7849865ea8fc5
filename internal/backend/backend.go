// Package backend selects the spreadsheet backend that Google Sheets export
// jobs are written to.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fooddiary/internal/config"
	"fooddiary/internal/sheets"
	gsheet "fooddiary/internal/sheets/google"
	"fooddiary/internal/sheets/memory"
)

// BackendType names a sheets backend.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	GoogleBackend BackendType = "google"
)

func (t BackendType) String() string {
	return string(t)
}

// IsValid reports whether t names a known backend.
func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, GoogleBackend:
		return true
	}
	return false
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Google Sheets
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string

	// Dir makes the memory backend also write one .tsv file per sheet.
	Dir string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.SheetsBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.SheetsBackend)
	}

	return Config{
		Type:            backendType,
		SpreadsheetID:   appConfig.GoogleSpreadsheetID,
		CredentialsJSON: appConfig.GoogleCredentialsJSON,
		CredentialsFile: appConfig.GoogleCredentialsFile,
		Dir:             appConfig.SheetsDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == GoogleBackend && c.SpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for google backend")
	}
	return nil
}

// NewDocumentWriter creates the writer selected by c.
func NewDocumentWriter(ctx context.Context, c Config, logger *slog.Logger) (sheets.DocumentWriter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch c.Type {
	case GoogleBackend:
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   c.SpreadsheetID,
			CredentialsJSON: c.CredentialsJSON,
			CredentialsFile: c.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		logger.Info("Initialized Google Sheets backend", "spreadsheet_id", c.SpreadsheetID)
		return client, nil
	default:
		if c.Dir == "" {
			logger.Info("Initialized memory backend")
			return memory.New(), nil
		}
		store, err := memory.NewWithDir(c.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("Initialized memory backend", "data_directory", c.Dir)
		return store, nil
	}
}
