package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by the filter panel.
const DateLayout = "2006-01-02"

type (
	// CategoryRevenue is one row of the category revenue extract.
	CategoryRevenue struct {
		Category    string
		Price       decimal.Decimal
		PurchasedAt time.Time
	}

	// StateConcentration is the precomputed unique customer count for a state.
	StateConcentration struct {
		State           string // 2-letter code
		UniqueCustomers int64
	}

	// TopCategory is a row of the upstream top-category table, pre-sorted
	// descending by price.
	TopCategory struct {
		Category string
		Price    decimal.Decimal
	}

	// CategoryTotal is a category with its summed revenue.
	CategoryTotal struct {
		Category string
		Revenue  decimal.Decimal
	}

	// Dataset holds the three extracts. It is read-only once loaded.
	Dataset struct {
		Categories    []CategoryRevenue
		States        []StateConcentration
		TopCategories []TopCategory
	}

	// DateRange is an inclusive range of calendar days.
	DateRange struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyTable    = errors.New("empty table")
	ErrInvalidValue  = errors.New("invalid value")
)

// Day truncates t to its calendar date, keeping the location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NewDateRange builds a range over the calendar days of start and end.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Contains reports whether the date of t lies within the range.
// Time of day is ignored.
func (r DateRange) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.Start.Location())
	return !d.Before(r.Start) && !d.After(r.End)
}

// Clamp restricts the range to bounds and swaps reversed endpoints.
func (r DateRange) Clamp(bounds DateRange) DateRange {
	start, end := r.Start, r.End
	if start.After(end) {
		start, end = end, start
	}
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if start.After(bounds.End) {
		start = bounds.End
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if end.Before(bounds.Start) {
		end = bounds.Start
	}
	return DateRange{Start: start, End: end}
}

// String renders the range as "start..end".
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// DateBounds returns the range spanned by the purchase timestamps.
// ok is false when there are no rows.
func (d Dataset) DateBounds() (DateRange, bool) {
	if len(d.Categories) == 0 {
		return DateRange{}, false
	}
	lo, hi := d.Categories[0].PurchasedAt, d.Categories[0].PurchasedAt
	for _, row := range d.Categories[1:] {
		if row.PurchasedAt.Before(lo) {
			lo = row.PurchasedAt
		}
		if row.PurchasedAt.After(hi) {
			hi = row.PurchasedAt
		}
	}
	return NewDateRange(lo, hi), true
}

// DistinctStates returns state codes in first-appearance order.
func (d Dataset) DistinctStates() []string {
	seen := make(map[string]struct{}, len(d.States))
	out := make([]string, 0, len(d.States))
	for _, s := range d.States {
		if _, ok := seen[s.State]; ok {
			continue
		}
		seen[s.State] = struct{}{}
		out = append(out, s.State)
	}
	return out
}
