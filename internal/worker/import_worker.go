// Package worker turns import requests into stored datasets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ecomdash/internal/amqp"
	"ecomdash/internal/core"
	"ecomdash/internal/source"
	"ecomdash/internal/source/csvfile"
	"ecomdash/internal/storage"
)

// DatasetStore persists a freshly loaded dataset.
type DatasetStore interface {
	ReplaceDataset(ctx context.Context, id, src string, ds core.Dataset) (storage.Import, error)
	LastImport(ctx context.Context) (storage.Import, error)
}

// SourceFunc opens the extracts for one request.
type SourceFunc func(dir string, mode csvfile.PathMode) source.Source

// ImportWorker loads CSV extracts and writes them to the store.
type ImportWorker struct {
	store   DatasetStore
	open    SourceFunc
	files   csvfile.Files
	timeout time.Duration
}

// NewImportWorker builds a worker reading files from the directory named in each request.
func NewImportWorker(store DatasetStore, files csvfile.Files) *ImportWorker {
	w := &ImportWorker{store: store, files: files, timeout: 2 * time.Minute}
	w.open = func(dir string, mode csvfile.PathMode) source.Source {
		return csvfile.New(dir, mode, w.files)
	}
	return w
}

// HandleImportRequest processes a single import request from AMQP.
// A redelivered request whose import is already stored is acknowledged.
func (w *ImportWorker) HandleImportRequest(ctx context.Context, req *amqp.ImportRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid import request: %w", err)
	}
	_, err := w.Import(ctx, req.ID.String(), req.DataDir, csvfile.PathMode(req.PathMode))
	if errors.Is(err, storage.ErrDuplicateImport) {
		slog.InfoContext(ctx, "Import request already applied, skipping",
			"import_id", req.ID.String())
		return nil
	}
	return err
}

// Import loads the extracts in dir and replaces the stored dataset.
// A load failure leaves the previous import untouched.
func (w *ImportWorker) Import(ctx context.Context, id, dir string, mode csvfile.PathMode) (storage.Import, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	src := w.open(dir, mode)
	ds, err := src.Load(ctx)
	if err != nil {
		return storage.Import{}, fmt.Errorf("import %s: %w", id, err)
	}

	label := "csv:" + dir
	if l, ok := src.(*csvfile.Loader); ok {
		if base, err := l.BaseDir(); err == nil {
			label = "csv:" + base
		}
	}

	imp, err := w.store.ReplaceDataset(ctx, id, label, ds)
	if err != nil {
		return storage.Import{}, fmt.Errorf("import %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Import completed",
		"import_id", id,
		"source", label,
		"duration_ms", time.Since(start).Milliseconds())
	return imp, nil
}

// StartupImportCheck imports from dir when the store has never been filled.
// It reports whether an import ran.
func (w *ImportWorker) StartupImportCheck(ctx context.Context, dir string, mode csvfile.PathMode) (bool, error) {
	last, err := w.store.LastImport(ctx)
	if err == nil {
		slog.InfoContext(ctx, "Existing import found, skipping startup import",
			"import_id", last.ID,
			"imported_at", last.ImportedAt)
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotImported) {
		return false, fmt.Errorf("check last import: %w", err)
	}

	if _, err := w.Import(ctx, uuid.NewString(), dir, mode); err != nil {
		return false, err
	}
	return true, nil
}
