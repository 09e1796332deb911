// Package dashboard turns request parameters into filter state and builds the
// page views from the memoized dataset.
package dashboard

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ecomdash/internal/core"
)

// Control limits and defaults.
const (
	RevenueTopMin     = 1
	RevenueTopMax     = 10
	RevenueTopDefault = 5

	OverviewTopDefault = 10
	DefaultStateCount  = 10

	// RawPreviewLimit caps the rows shown in the raw data preview.
	RawPreviewLimit = 50
)

// Query parameter names.
const (
	ParamStart           = "start"
	ParamEnd             = "end"
	ParamTop             = "top"
	ParamState           = "state"
	ParamStatesSubmitted = "states_submitted"
	ParamRaw             = "raw"
)

// Panel describes the available controls, derived from the loaded dataset.
type Panel struct {
	Bounds          core.DateRange
	HasDates        bool
	StateOptions    []string
	TopCategoryRows int
}

// NewPanel derives control bounds and options from ds.
func NewPanel(ds core.Dataset) Panel {
	bounds, ok := ds.DateBounds()
	return Panel{
		Bounds:          bounds,
		HasDates:        ok,
		StateOptions:    ds.DistinctStates(),
		TopCategoryRows: len(ds.TopCategories),
	}
}

// OverviewTopMax is the upper bound of the overview top-N control.
func (p Panel) OverviewTopMax() int {
	return p.TopCategoryRows
}

// DefaultStates returns the first DefaultStateCount distinct states in file order.
func (p Panel) DefaultStates() []string {
	n := min(DefaultStateCount, len(p.StateOptions))
	return append([]string(nil), p.StateOptions[:n]...)
}

// RevenueFilter is the filter state of the revenue page.
type RevenueFilter struct {
	Range   core.DateRange
	Top     int
	ShowRaw bool
}

// OverviewFilter is the filter state of the overview page.
type OverviewFilter struct {
	Top     int
	States  []string
	ShowRaw bool
}

// ParseRevenue reads the revenue page controls. Missing or unparseable values
// fall back to defaults and everything is clamped to the control bounds.
func (p Panel) ParseRevenue(q url.Values) RevenueFilter {
	f := RevenueFilter{
		Range:   p.Bounds,
		Top:     clampInt(parseInt(q.Get(ParamTop), RevenueTopDefault), RevenueTopMin, RevenueTopMax),
		ShowRaw: parseBool(q.Get(ParamRaw)),
	}
	if p.HasDates {
		start := parseDate(q.Get(ParamStart), p.Bounds.Start)
		end := parseDate(q.Get(ParamEnd), p.Bounds.End)
		f.Range = core.NewDateRange(start, end).Clamp(p.Bounds)
	}
	return f
}

// ParseOverview reads the overview page controls. An explicitly submitted
// empty state selection is kept empty. An absent selection means the default.
func (p Panel) ParseOverview(q url.Values) OverviewFilter {
	f := OverviewFilter{ShowRaw: parseBool(q.Get(ParamRaw))}

	if p.TopCategoryRows > 0 {
		def := min(OverviewTopDefault, p.TopCategoryRows)
		f.Top = clampInt(parseInt(q.Get(ParamTop), def), 1, p.TopCategoryRows)
	}

	selected, submitted := q[ParamState]
	if !submitted && !parseBool(q.Get(ParamStatesSubmitted)) {
		f.States = p.DefaultStates()
		return f
	}
	f.States = p.knownStates(selected)
	return f
}

// knownStates drops unknown and duplicate codes and orders the rest as in the file.
func (p Panel) knownStates(selected []string) []string {
	want := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		want[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	out := make([]string, 0, len(want))
	for _, s := range p.StateOptions {
		if _, ok := want[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Query encodes the filter as normalized query values.
func (f RevenueFilter) Query() url.Values {
	q := url.Values{}
	if !f.Range.Start.IsZero() {
		q.Set(ParamStart, f.Range.Start.Format(core.DateLayout))
		q.Set(ParamEnd, f.Range.End.Format(core.DateLayout))
	}
	q.Set(ParamTop, strconv.Itoa(f.Top))
	if f.ShowRaw {
		q.Set(ParamRaw, "1")
	}
	return q
}

// Query encodes the filter as normalized query values.
func (f OverviewFilter) Query() url.Values {
	q := url.Values{}
	q.Set(ParamTop, strconv.Itoa(f.Top))
	q.Set(ParamStatesSubmitted, "1")
	states := append([]string(nil), f.States...)
	sort.Strings(states)
	for _, s := range states {
		q.Add(ParamState, s)
	}
	if f.ShowRaw {
		q.Set(ParamRaw, "1")
	}
	return q
}

// Selected reports whether state is in the filter selection.
func (f OverviewFilter) Selected(state string) bool {
	for _, s := range f.States {
		if s == state {
			return true
		}
	}
	return false
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseDate(s string, def time.Time) time.Time {
	t, err := time.ParseInLocation(core.DateLayout, strings.TrimSpace(s), def.Location())
	if err != nil {
		return def
	}
	return t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
