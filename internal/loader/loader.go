// Package loader memoizes the dataset for the lifetime of the process.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ecomdash/internal/core"
	"ecomdash/internal/source"
)

// ErrNotLoaded is returned by Dataset before a successful Init.
var ErrNotLoaded = errors.New("dataset not loaded")

// Loader performs a one-time load from an injected source.
// The cached result is only discarded by restarting the process.
type Loader struct {
	src source.Source

	once     sync.Once
	ds       core.Dataset
	err      error
	loadedAt time.Time
	done     chan struct{}
}

func New(src source.Source) *Loader {
	return &Loader{src: src, done: make(chan struct{})}
}

// Init loads the dataset on the first call. Later calls return the cached
// outcome, including a cached failure.
func (l *Loader) Init(ctx context.Context) error {
	l.once.Do(func() {
		start := time.Now()
		ds, err := l.src.Load(ctx)
		if err != nil {
			l.err = fmt.Errorf("load dataset: %w", err)
		} else {
			l.ds = ds
			l.loadedAt = time.Now()
			slog.InfoContext(ctx, "Dataset loaded",
				"duration_ms", time.Since(start).Milliseconds(),
				"category_rows", len(ds.Categories),
				"state_rows", len(ds.States),
				"top_category_rows", len(ds.TopCategories))
		}
		close(l.done)
	})
	return l.err
}

// Ready reports whether Init has completed successfully.
func (l *Loader) Ready() bool {
	select {
	case <-l.done:
		return l.err == nil
	default:
		return false
	}
}

// Dataset returns the memoized dataset.
func (l *Loader) Dataset() (core.Dataset, error) {
	select {
	case <-l.done:
		if l.err != nil {
			return core.Dataset{}, l.err
		}
		return l.ds, nil
	default:
		return core.Dataset{}, ErrNotLoaded
	}
}

// LoadedAt returns when the dataset was loaded. It is zero before that.
func (l *Loader) LoadedAt() time.Time {
	if !l.Ready() {
		return time.Time{}
	}
	return l.loadedAt
}
