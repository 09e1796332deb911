package dashboard

import (
	"ecomdash/internal/chart"
	"ecomdash/internal/core"
)

// ChartKind names one of the two charts on a page.
type ChartKind string

const (
	ChartCategories ChartKind = "categories"
	ChartStates     ChartKind = "states"
)

// CategoryChart plots category revenue with the largest bar first.
func CategoryChart(rows []core.CategoryTotal) chart.Spec {
	bars := make([]chart.Bar, len(rows))
	for i, r := range rows {
		bars[i] = chart.Bar{Label: r.Category, Value: r.Revenue.InexactFloat64()}
	}
	return chart.Spec{Title: "Top Product Categories by Revenue", YLabel: "Total Revenue", Bars: bars}
}

// StateChart plots unique customers per state in the given order.
func StateChart(rows []core.StateConcentration) chart.Spec {
	bars := make([]chart.Bar, len(rows))
	for i, r := range rows {
		bars[i] = chart.Bar{Label: r.State, Value: float64(r.UniqueCustomers)}
	}
	return chart.Spec{Title: "Customer Concentration by State (End of 2018)", YLabel: "Number of Customers", Bars: bars}
}

// Chart returns the spec for kind on the revenue page.
func (v RevenueView) Chart(kind ChartKind) (chart.Spec, bool) {
	switch kind {
	case ChartCategories:
		return CategoryChart(v.TopCategories), true
	case ChartStates:
		return StateChart(v.States), true
	}
	return chart.Spec{}, false
}

// Chart returns the spec for kind on the overview page.
func (v OverviewView) Chart(kind ChartKind) (chart.Spec, bool) {
	switch kind {
	case ChartCategories:
		return CategoryChart(v.TopCategories), true
	case ChartStates:
		return StateChart(v.States), true
	}
	return chart.Spec{}, false
}
