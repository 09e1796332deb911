// Package services orchestrates dataset imports across SQLite and AMQP.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ecomdash/internal/amqp"
	"ecomdash/internal/source/csvfile"
	"ecomdash/internal/storage"
)

// ErrNoImporter is returned when a direct import is requested without a store.
var ErrNoImporter = errors.New("no importer configured")

// Publisher queues import requests for a worker.
type Publisher interface {
	PublishImportRequest(ctx context.Context, req *amqp.ImportRequest) error
	Close() error
}

// Importer runs an import in-process.
type Importer interface {
	Import(ctx context.Context, id, dir string, mode csvfile.PathMode) (storage.Import, error)
}

// Outcome describes what RequestImport did.
type Outcome struct {
	ID     string
	Queued bool
	Import storage.Import // zero when queued
}

// ImportService publishes import requests when a publisher is set and
// imports directly otherwise.
type ImportService struct {
	importer  Importer
	publisher Publisher
}

func NewImportService(importer Importer, publisher Publisher) *ImportService {
	return &ImportService{
		importer:  importer,
		publisher: publisher,
	}
}

// RequestImport validates the request and either queues it or runs it.
// A queued request carries an absolute directory, since the worker resolves
// relative paths against its own working directory or binary.
func (s *ImportService) RequestImport(ctx context.Context, dir string, mode csvfile.PathMode) (Outcome, error) {
	if mode != csvfile.ModeWorkdir && mode != csvfile.ModeExecutable {
		return Outcome{}, fmt.Errorf("invalid path mode %q", mode)
	}
	req := amqp.NewImportRequest(dir, string(mode))
	if err := req.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("invalid import request: %w", err)
	}
	out := Outcome{ID: req.ID.String()}

	if s.publisher != nil {
		base, err := csvfile.New(dir, mode, csvfile.Files{}).BaseDir()
		if err != nil {
			return out, fmt.Errorf("resolve data directory: %w", err)
		}
		req.DataDir = base
		dir = base
		if err := s.publisher.PublishImportRequest(ctx, req); err != nil {
			return out, fmt.Errorf("publish import request: %w", err)
		}
		slog.InfoContext(ctx, "Import request queued", "import_id", out.ID, "data_dir", dir)
		out.Queued = true
		return out, nil
	}

	if s.importer == nil {
		return out, ErrNoImporter
	}
	imp, err := s.importer.Import(ctx, out.ID, dir, mode)
	if err != nil {
		return out, err
	}
	out.Import = imp
	return out, nil
}

// Close closes the publisher connection.
func (s *ImportService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close import service: %w", err)
	}
	return nil
}
