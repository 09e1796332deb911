package dashboard

import (
	"net/url"
	"testing"
	"time"

	"ecomdash/internal/core"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() core.Dataset {
	states := []string{"SP", "RJ", "MG", "RS", "PR", "SC", "BA", "DF", "ES", "GO", "PE", "CE"}
	ds := core.Dataset{
		Categories: []core.CategoryRevenue{
			{Category: "Electronics", Price: decimal.NewFromInt(100), PurchasedAt: day(2017, 5, 1).Add(9 * time.Hour)},
			{Category: "Toys", Price: decimal.NewFromInt(50), PurchasedAt: day(2017, 5, 1)},
			{Category: "Electronics", Price: decimal.NewFromInt(30), PurchasedAt: day(2018, 1, 1).Add(20 * time.Hour)},
		},
		TopCategories: []core.TopCategory{
			{Category: "health_beauty", Price: decimal.RequireFromString("300.50")},
			{Category: "watches_gifts", Price: decimal.RequireFromString("200.25")},
			{Category: "bed_bath_table", Price: decimal.RequireFromString("100")},
		},
	}
	for i, s := range states {
		ds.States = append(ds.States, core.StateConcentration{State: s, UniqueCustomers: int64(1000 - i*50)})
	}
	// ascending counts in file order would hide sort bugs; make MG the largest
	ds.States[2].UniqueCustomers = 5000
	return ds
}

func TestParseRevenueDefaults(t *testing.T) {
	p := NewPanel(fixture())
	f := p.ParseRevenue(url.Values{})
	if f.Top != RevenueTopDefault {
		t.Fatalf("expected default top %d, got %d", RevenueTopDefault, f.Top)
	}
	if !f.Range.Start.Equal(day(2017, 5, 1)) || !f.Range.End.Equal(day(2018, 1, 1)) {
		t.Fatalf("expected full range, got %s", f.Range)
	}
}

func TestParseRevenueClamps(t *testing.T) {
	p := NewPanel(fixture())
	cases := []struct {
		name       string
		q          url.Values
		top        int
		start, end time.Time
	}{
		{"top too high", url.Values{"top": {"99"}}, 10, day(2017, 5, 1), day(2018, 1, 1)},
		{"top too low", url.Values{"top": {"0"}}, 1, day(2017, 5, 1), day(2018, 1, 1)},
		{"top garbage", url.Values{"top": {"x"}}, 5, day(2017, 5, 1), day(2018, 1, 1)},
		{"dates outside", url.Values{"start": {"2010-01-01"}, "end": {"2030-01-01"}}, 5, day(2017, 5, 1), day(2018, 1, 1)},
		{"dates reversed", url.Values{"start": {"2017-12-01"}, "end": {"2017-06-01"}}, 5, day(2017, 6, 1), day(2017, 12, 1)},
		{"bad date", url.Values{"start": {"01/06/2017"}}, 5, day(2017, 5, 1), day(2018, 1, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := p.ParseRevenue(tc.q)
			if f.Top != tc.top {
				t.Fatalf("top: got %d want %d", f.Top, tc.top)
			}
			if !f.Range.Start.Equal(tc.start) || !f.Range.End.Equal(tc.end) {
				t.Fatalf("range: got %s", f.Range)
			}
		})
	}
}

func TestParseOverviewStates(t *testing.T) {
	p := NewPanel(fixture())

	f := p.ParseOverview(url.Values{})
	if len(f.States) != DefaultStateCount || f.States[0] != "SP" || f.States[9] != "GO" {
		t.Fatalf("expected first 10 states in file order, got %v", f.States)
	}
	if f.Top != 3 {
		t.Fatalf("expected top clamped to table length 3, got %d", f.Top)
	}

	f = p.ParseOverview(url.Values{"states_submitted": {"1"}})
	if len(f.States) != 0 {
		t.Fatalf("expected explicit empty selection, got %v", f.States)
	}

	f = p.ParseOverview(url.Values{"state": {"mg", "SP", "XX", "SP"}})
	if len(f.States) != 2 || f.States[0] != "SP" || f.States[1] != "MG" {
		t.Fatalf("unexpected selection %v", f.States)
	}
}

func TestParseOverviewEmptyTopTable(t *testing.T) {
	ds := fixture()
	ds.TopCategories = nil
	f := NewPanel(ds).ParseOverview(url.Values{"top": {"4"}})
	if f.Top != 0 {
		t.Fatalf("expected top 0 without rows, got %d", f.Top)
	}
}

func TestFilterQueryRoundTrip(t *testing.T) {
	p := NewPanel(fixture())
	rf := p.ParseRevenue(url.Values{"start": {"2017-06-01"}, "top": {"3"}, "raw": {"1"}})
	if again := p.ParseRevenue(rf.Query()); again != rf {
		t.Fatalf("revenue filter changed: %+v vs %+v", again, rf)
	}

	of := p.ParseOverview(url.Values{"state": {"RJ", "SP"}, "top": {"2"}})
	again := p.ParseOverview(of.Query())
	if again.Top != of.Top || len(again.States) != 2 || again.States[0] != "SP" || again.States[1] != "RJ" {
		t.Fatalf("overview filter changed: %+v vs %+v", again, of)
	}

	empty := p.ParseOverview(url.Values{"states_submitted": {"1"}})
	if got := p.ParseOverview(empty.Query()); len(got.States) != 0 {
		t.Fatalf("empty selection lost in round trip: %v", got.States)
	}
}

func TestBuildRevenue(t *testing.T) {
	ds := fixture()
	p := NewPanel(ds)
	v := BuildRevenue(ds, p, p.ParseRevenue(url.Values{"top": {"2"}, "raw": {"1"}}))

	if len(v.TopCategories) != 2 || v.TopCategories[0].Category != "Electronics" || !v.TopCategories[0].Revenue.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("unexpected top: %+v", v.TopCategories)
	}
	if v.TopCategories[1].Category != "Toys" || !v.TopCategories[1].Revenue.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected second: %+v", v.TopCategories[1])
	}
	if v.States[0].State != "SP" {
		t.Fatalf("revenue page keeps input state order, got %s first", v.States[0].State)
	}
	if !v.CategoryInsight.OK || !v.StateInsight.OK {
		t.Fatalf("expected insights")
	}
	if len(v.Raw) != 3 || v.FilteredRows != 3 {
		t.Fatalf("expected raw preview of 3 rows, got %d", len(v.Raw))
	}
}

func TestBuildRevenueEmptyRange(t *testing.T) {
	ds := fixture()
	p := NewPanel(ds)
	v := BuildRevenue(ds, p, p.ParseRevenue(url.Values{"start": {"2017-07-01"}, "end": {"2017-08-01"}}))
	if len(v.TopCategories) != 0 {
		t.Fatalf("expected no categories, got %+v", v.TopCategories)
	}
	if v.CategoryInsight.OK {
		t.Fatalf("expected no category insight for empty range")
	}
}

func TestBuildOverview(t *testing.T) {
	ds := fixture()
	p := NewPanel(ds)
	v := BuildOverview(ds, p, p.ParseOverview(url.Values{"state": {"SP", "MG", "RJ"}, "top": {"2"}}))

	if v.TotalCustomers != 1000+5000+950 {
		t.Fatalf("unexpected total customers %d", v.TotalCustomers)
	}
	if !v.TotalRevenue.Equal(decimal.RequireFromString("500.75")) {
		t.Fatalf("unexpected total revenue %s", v.TotalRevenue)
	}
	if v.States[0].State != "MG" || v.States[1].State != "SP" || v.States[2].State != "RJ" {
		t.Fatalf("expected states sorted by customers, got %+v", v.States)
	}
	if v.StateInsight.Text != "State MG has the highest customer concentration at the end of 2018." {
		t.Fatalf("unexpected insight %q", v.StateInsight.Text)
	}
	// the overview has no date control, so the sentence names no period
	if v.CategoryInsight.Text != "health_beauty is the largest revenue contributor." {
		t.Fatalf("unexpected category insight %q", v.CategoryInsight.Text)
	}
}

func TestBuildOverviewSelectedStatesTotal(t *testing.T) {
	ds := core.Dataset{States: []core.StateConcentration{
		{State: "SP", UniqueCustomers: 500},
		{State: "RJ", UniqueCustomers: 200},
		{State: "MG", UniqueCustomers: 100},
	}}
	p := NewPanel(ds)
	v := BuildOverview(ds, p, p.ParseOverview(url.Values{"state": {"SP", "MG"}}))
	if v.TotalCustomers != 600 {
		t.Fatalf("expected 600, got %d", v.TotalCustomers)
	}
	if len(v.States) != 2 || v.States[0].State != "SP" || v.States[1].State != "MG" {
		t.Fatalf("chart should show exactly SP and MG, got %+v", v.States)
	}
}

func TestBuildOverviewEmptySelection(t *testing.T) {
	ds := fixture()
	p := NewPanel(ds)
	v := BuildOverview(ds, p, p.ParseOverview(url.Values{"states_submitted": {"1"}}))
	if v.TotalCustomers != 0 || len(v.States) != 0 || v.StateInsight.OK {
		t.Fatalf("expected empty state view, got %+v", v)
	}
	spec, ok := v.Chart(ChartStates)
	if !ok || len(spec.Bars) != 0 {
		t.Fatalf("expected empty state chart spec")
	}
}

func TestCategoryChartKeepsRankOrder(t *testing.T) {
	spec := CategoryChart([]core.CategoryTotal{
		{Category: "a", Revenue: decimal.NewFromInt(3)},
		{Category: "b", Revenue: decimal.NewFromInt(1)},
	})
	if spec.Bars[0].Label != "a" || spec.Bars[0].Value != 3 {
		t.Fatalf("largest bar must come first: %+v", spec.Bars)
	}
}
