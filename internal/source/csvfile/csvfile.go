// Package csvfile loads the dashboard extracts from CSV files on disk.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"ecomdash/internal/core"
	"ecomdash/internal/source"
)

// PathMode selects how a relative data directory is resolved.
type PathMode string

const (
	// ModeWorkdir resolves relative to the process working directory.
	ModeWorkdir PathMode = "workdir"
	// ModeExecutable resolves relative to the directory of the running binary.
	ModeExecutable PathMode = "executable"
)

// Default file names of the upstream extracts.
const (
	DefaultCategoryFile    = "category_revenue_with_timestamps_with_state.csv"
	DefaultStateFile       = "customer_concentration_by_state.csv"
	DefaultTopCategoryFile = "top_product_categories.csv"
)

// Files names the three extracts inside the data directory.
type Files struct {
	Category    string
	State       string
	TopCategory string
}

// DefaultFiles returns the upstream file names.
func DefaultFiles() Files {
	return Files{
		Category:    DefaultCategoryFile,
		State:       DefaultStateFile,
		TopCategory: DefaultTopCategoryFile,
	}
}

// Loader reads the extracts from a directory.
type Loader struct {
	dir   string
	mode  PathMode
	files Files

	// executable is swapped in tests.
	executable func() (string, error)
}

var _ source.Source = (*Loader)(nil)

// New creates a loader for dir. Empty file names fall back to the defaults.
func New(dir string, mode PathMode, files Files) *Loader {
	def := DefaultFiles()
	if files.Category == "" {
		files.Category = def.Category
	}
	if files.State == "" {
		files.State = def.State
	}
	if files.TopCategory == "" {
		files.TopCategory = def.TopCategory
	}
	if mode == "" {
		mode = ModeWorkdir
	}
	return &Loader{dir: dir, mode: mode, files: files, executable: os.Executable}
}

// BaseDir returns the directory the extracts are read from.
func (l *Loader) BaseDir() (string, error) {
	if filepath.IsAbs(l.dir) {
		return l.dir, nil
	}
	switch l.mode {
	case ModeWorkdir:
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return filepath.Join(wd, l.dir), nil
	case ModeExecutable:
		exe, err := l.executable()
		if err != nil {
			return "", fmt.Errorf("locate executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Join(filepath.Dir(exe), l.dir), nil
	default:
		return "", fmt.Errorf("unknown path mode %q", l.mode)
	}
}

// Load reads all three files concurrently. Any failure aborts the load.
func (l *Loader) Load(ctx context.Context) (core.Dataset, error) {
	base, err := l.BaseDir()
	if err != nil {
		return core.Dataset{}, err
	}

	var ds core.Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := readTable(gctx, filepath.Join(base, l.files.Category))
		if err != nil {
			return err
		}
		ds.Categories, err = t.CategoryRevenue()
		return err
	})
	g.Go(func() error {
		t, err := readTable(gctx, filepath.Join(base, l.files.State))
		if err != nil {
			return err
		}
		ds.States, err = t.StateConcentration()
		return err
	})
	g.Go(func() error {
		t, err := readTable(gctx, filepath.Join(base, l.files.TopCategory))
		if err != nil {
			return err
		}
		ds.TopCategories, err = t.TopCategories()
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dataset{}, fmt.Errorf("load csv extracts from %s: %w", base, err)
	}

	slog.InfoContext(ctx, "Loaded CSV extracts",
		"dir", base,
		"mode", string(l.mode),
		"category_rows", len(ds.Categories),
		"state_rows", len(ds.States),
		"top_category_rows", len(ds.TopCategories))
	return ds, nil
}

func readTable(ctx context.Context, path string) (source.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return source.Table{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadTable(ctx, filepath.Base(path), f)
}

// ReadTable reads a header row and all records from r.
func ReadTable(ctx context.Context, name string, r io.Reader) (source.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return source.Table{}, fmt.Errorf("%s: %w", name, core.ErrEmptyTable)
	}
	if err != nil {
		return source.Table{}, fmt.Errorf("%s: read header: %w", name, err)
	}
	t := source.Table{Name: name, Header: header}
	for {
		if err := ctx.Err(); err != nil {
			return source.Table{}, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return source.Table{}, fmt.Errorf("%s: %w", name, err)
		}
		t.Rows = append(t.Rows, rec)
	}
}
