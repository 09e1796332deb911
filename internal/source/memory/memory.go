package memory

import (
	"context"
	"sync/atomic"

	"ecomdash/internal/core"
	"ecomdash/internal/source"
)

// Store serves a fixed dataset. It is used for fixtures and demos.
type Store struct {
	ds    core.Dataset
	err   error
	loads atomic.Int64
}

var _ source.Source = (*Store)(nil)

func New(ds core.Dataset) *Store {
	return &Store{ds: ds}
}

// NewFailing returns a store whose Load always fails with err.
func NewFailing(err error) *Store {
	return &Store{err: err}
}

// Load returns a copy of the dataset.
func (s *Store) Load(_ context.Context) (core.Dataset, error) {
	s.loads.Add(1)
	if s.err != nil {
		return core.Dataset{}, s.err
	}
	return core.Dataset{
		Categories:    append([]core.CategoryRevenue(nil), s.ds.Categories...),
		States:        append([]core.StateConcentration(nil), s.ds.States...),
		TopCategories: append([]core.TopCategory(nil), s.ds.TopCategories...),
	}, nil
}

// Loads reports how many times Load was called.
func (s *Store) Loads() int64 {
	return s.loads.Load()
}
