package dashboard

import (
	"ecomdash/internal/core"

	"github.com/shopspring/decimal"
)

// Insight is an optional sentence about the top entry of a ranking.
type Insight struct {
	Text string
	OK   bool
}

func insight(text string, ok bool) Insight {
	return Insight{Text: text, OK: ok}
}

// RevenueView is everything the revenue page renders.
type RevenueView struct {
	Panel           Panel
	Filter          RevenueFilter
	TopCategories   []core.CategoryTotal
	States          []core.StateConcentration // input order
	CategoryInsight Insight
	StateInsight    Insight
	FilteredRows    int
	Raw             []core.CategoryRevenue
}

// BuildRevenue filters the category rows to the date range, ranks categories
// by summed revenue and keeps the top N. States are shown in input order.
func BuildRevenue(ds core.Dataset, p Panel, f RevenueFilter) RevenueView {
	var filtered []core.CategoryRevenue
	if p.HasDates {
		filtered = core.FilterByDate(ds.Categories, f.Range)
	}
	top := core.TopCategoriesBySum(filtered, f.Top)

	v := RevenueView{
		Panel:           p,
		Filter:          f,
		TopCategories:   top,
		States:          ds.States,
		CategoryInsight: insight(core.CategoryInsight(top, "In the selected period")),
		StateInsight:    insight(core.StateInsight(ds.States)),
		FilteredRows:    len(filtered),
	}
	if f.ShowRaw {
		v.Raw = filtered[:min(len(filtered), RawPreviewLimit)]
	}
	return v
}

// OverviewView is everything the overview page renders.
type OverviewView struct {
	Panel           Panel
	Filter          OverviewFilter
	TopCategories   []core.CategoryTotal
	States          []core.StateConcentration // selected, largest first
	TotalCustomers  int64
	TotalRevenue    decimal.Decimal
	CategoryInsight Insight
	StateInsight    Insight
}

// BuildOverview slices the pre-sorted top category table and filters the
// states to the selection.
func BuildOverview(ds core.Dataset, p Panel, f OverviewFilter) OverviewView {
	top := core.HeadTopCategories(ds.TopCategories, f.Top)
	states := core.SortStatesDesc(core.FilterStates(ds.States, f.States))

	return OverviewView{
		Panel:           p,
		Filter:          f,
		TopCategories:   top,
		States:          states,
		TotalCustomers:  core.SumCustomers(states),
		TotalRevenue:    core.SumRevenue(top),
		CategoryInsight: insight(core.CategoryInsight(top, "")),
		StateInsight:    insight(core.StateInsight(states)),
	}
}
