package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ecomdash/internal/core"

	"github.com/shopspring/decimal"
)

// Table is a raw header plus rows, as read from a CSV file or a sheet range.
type Table struct {
	Name   string // file or sheet name, used in errors
	Header []string
	Rows   [][]string
}

// timestampLayouts are tried in order when parsing purchase timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	core.DateLayout,
}

// ParseTimestamp parses an upstream timestamp as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", core.ErrInvalidValue, s)
}

func (t Table) columns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = -1
		for j, h := range t.Header {
			if strings.TrimSpace(strings.Trim(h, "\ufeff\"")) == name {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			return nil, fmt.Errorf("%s: %w %q; got header=%v", t.Name, core.ErrMissingColumn, name, t.Header)
		}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// rowErr reports a bad value with its 1-based line number, counting the header.
func (t Table) rowErr(i int, err error) error {
	return fmt.Errorf("%s line %d: %w", t.Name, i+2, err)
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q", core.ErrInvalidValue, s)
	}
	return d, nil
}

func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Upstream writers sometimes emit integral floats ("12.0").
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: count %q", core.ErrInvalidValue, s)
	}
	return d.IntPart(), nil
}

// CategoryRevenue parses the category revenue table.
func (t Table) CategoryRevenue() ([]core.CategoryRevenue, error) {
	idx, err := t.columns(ColCategory, ColPrice, ColPurchasedAt)
	if err != nil {
		return nil, err
	}
	out := make([]core.CategoryRevenue, 0, len(t.Rows))
	for i, row := range t.Rows {
		p, err := parsePrice(cell(row, idx[1]))
		if err != nil {
			return nil, t.rowErr(i, err)
		}
		ts, err := ParseTimestamp(cell(row, idx[2]))
		if err != nil {
			return nil, t.rowErr(i, err)
		}
		out = append(out, core.CategoryRevenue{Category: cell(row, idx[0]), Price: p, PurchasedAt: ts})
	}
	return out, nil
}

// StateConcentration parses the per-state customer table.
func (t Table) StateConcentration() ([]core.StateConcentration, error) {
	idx, err := t.columns(ColState, ColUniqueCustomers)
	if err != nil {
		return nil, err
	}
	out := make([]core.StateConcentration, 0, len(t.Rows))
	for i, row := range t.Rows {
		n, err := parseCount(cell(row, idx[1]))
		if err != nil {
			return nil, t.rowErr(i, err)
		}
		out = append(out, core.StateConcentration{State: cell(row, idx[0]), UniqueCustomers: n})
	}
	return out, nil
}

// TopCategories parses the pre-sorted top category table. Row order is kept.
func (t Table) TopCategories() ([]core.TopCategory, error) {
	idx, err := t.columns(ColCategory, ColPrice)
	if err != nil {
		return nil, err
	}
	out := make([]core.TopCategory, 0, len(t.Rows))
	for i, row := range t.Rows {
		p, err := parsePrice(cell(row, idx[1]))
		if err != nil {
			return nil, t.rowErr(i, err)
		}
		out = append(out, core.TopCategory{Category: cell(row, idx[0]), Price: p})
	}
	return out, nil
}
