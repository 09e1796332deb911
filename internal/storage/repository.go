// Package storage persists imported extracts in SQLite so the dashboard can
// load them without the CSV files.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"ecomdash/internal/core"
	"ecomdash/internal/source"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotImported is returned when the database holds no import yet.
	ErrNotImported = errors.New("no dataset has been imported")
	// ErrDuplicateImport is returned when an import ID is already recorded.
	ErrDuplicateImport = errors.New("import already recorded")
)

// Import describes one completed dataset import.
type Import struct {
	ID              string
	Source          string
	CategoryRows    int
	StateRows       int
	TopCategoryRows int
	ImportedAt      time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ source.Source = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceDataset swaps the stored tables for ds in one transaction and
// records the import. Row order is kept through a position column and
// timestamps keep their UTC offset. An ID that is already recorded leaves the
// tables untouched and fails with ErrDuplicateImport.
func (r *SQLiteRepository) ReplaceDataset(ctx context.Context, id, src string, ds core.Dataset) (Import, error) {
	imp := Import{
		ID:              id,
		Source:          src,
		CategoryRows:    len(ds.Categories),
		StateRows:       len(ds.States),
		TopCategoryRows: len(ds.TopCategories),
		ImportedAt:      r.now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if _, err := q.GetImport(ctx, id); err == nil {
		return Import{}, fmt.Errorf("import %s: %w", id, ErrDuplicateImport)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Import{}, fmt.Errorf("check import %s: %w", id, err)
	}

	if err := q.ClearTables(ctx); err != nil {
		return Import{}, fmt.Errorf("clear tables: %w", err)
	}

	for i, row := range ds.Categories {
		err := q.InsertCategoryRevenue(ctx, InsertCategoryRevenueParams{
			Position:    int64(i),
			Category:    row.Category,
			Price:       row.Price.String(),
			PurchasedAt: row.PurchasedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return Import{}, fmt.Errorf("insert category revenue row %d: %w", i, err)
		}
	}
	for i, row := range ds.States {
		err := q.InsertStateConcentration(ctx, InsertStateConcentrationParams{
			Position:        int64(i),
			State:           row.State,
			UniqueCustomers: row.UniqueCustomers,
		})
		if err != nil {
			return Import{}, fmt.Errorf("insert state row %d: %w", i, err)
		}
	}
	for i, row := range ds.TopCategories {
		err := q.InsertTopCategory(ctx, InsertTopCategoryParams{
			Position: int64(i),
			Category: row.Category,
			Price:    row.Price.String(),
		})
		if err != nil {
			return Import{}, fmt.Errorf("insert top category row %d: %w", i, err)
		}
	}

	err = q.InsertImport(ctx, ImportRow{
		ID:              imp.ID,
		Source:          imp.Source,
		CategoryRows:    int64(imp.CategoryRows),
		StateRows:       int64(imp.StateRows),
		TopCategoryRows: int64(imp.TopCategoryRows),
		ImportedAt:      imp.ImportedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return Import{}, fmt.Errorf("record import %s: %w", imp.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit import %s: %w", imp.ID, err)
	}

	slog.InfoContext(ctx, "Dataset imported to SQLite",
		"import_id", imp.ID,
		"source", imp.Source,
		"category_rows", imp.CategoryRows,
		"state_rows", imp.StateRows,
		"top_category_rows", imp.TopCategoryRows)
	return imp, nil
}

// LastImport returns the most recent import or ErrNotImported.
func (r *SQLiteRepository) LastImport(ctx context.Context) (Import, error) {
	row, err := r.queries.GetLastImport(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNotImported
	}
	if err != nil {
		return Import{}, fmt.Errorf("get last import: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, row.ImportedAt)
	if err != nil {
		return Import{}, fmt.Errorf("parse import time %q: %w", row.ImportedAt, err)
	}
	return Import{
		ID:              row.ID,
		Source:          row.Source,
		CategoryRows:    int(row.CategoryRows),
		StateRows:       int(row.StateRows),
		TopCategoryRows: int(row.TopCategoryRows),
		ImportedAt:      at,
	}, nil
}

// Load implements source.Source. It fails with ErrNotImported on an empty database.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Dataset, error) {
	imp, err := r.LastImport(ctx)
	if err != nil {
		return core.Dataset{}, err
	}

	var ds core.Dataset

	cats, err := r.queries.ListCategoryRevenue(ctx)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("list category revenue: %w", err)
	}
	ds.Categories = make([]core.CategoryRevenue, 0, len(cats))
	for i, c := range cats {
		price, err := decimal.NewFromString(c.Price)
		if err != nil {
			return core.Dataset{}, fmt.Errorf("category revenue row %d price %q: %w", i, c.Price, core.ErrInvalidValue)
		}
		at, err := time.Parse(time.RFC3339Nano, c.PurchasedAt)
		if err != nil {
			return core.Dataset{}, fmt.Errorf("category revenue row %d timestamp %q: %w", i, c.PurchasedAt, core.ErrInvalidValue)
		}
		ds.Categories = append(ds.Categories, core.CategoryRevenue{Category: c.Category, Price: price, PurchasedAt: at})
	}

	states, err := r.queries.ListStateConcentration(ctx)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("list state concentration: %w", err)
	}
	ds.States = make([]core.StateConcentration, 0, len(states))
	for _, s := range states {
		ds.States = append(ds.States, core.StateConcentration{State: s.State, UniqueCustomers: s.UniqueCustomers})
	}

	tops, err := r.queries.ListTopCategories(ctx)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("list top categories: %w", err)
	}
	ds.TopCategories = make([]core.TopCategory, 0, len(tops))
	for i, tc := range tops {
		price, err := decimal.NewFromString(tc.Price)
		if err != nil {
			return core.Dataset{}, fmt.Errorf("top category row %d price %q: %w", i, tc.Price, core.ErrInvalidValue)
		}
		ds.TopCategories = append(ds.TopCategories, core.TopCategory{Category: tc.Category, Price: price})
	}

	slog.InfoContext(ctx, "Loaded extracts from SQLite",
		"import_id", imp.ID,
		"imported_at", imp.ImportedAt,
		"category_rows", len(ds.Categories),
		"state_rows", len(ds.States),
		"top_category_rows", len(ds.TopCategories))
	return ds, nil
}
