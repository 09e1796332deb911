package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecomdash/internal/chart"
	"ecomdash/internal/dashboard"
	applog "ecomdash/internal/log"
)

// layout holds the fields shared by both page templates.
type layout struct {
	Nav      string
	LoadedAt time.Time
}

type revenuePage struct {
	layout
	dashboard.RevenueView
	TopMin           int
	TopMax           int
	CategoryChartURL string
	StateChartURL    string
}

type overviewPage struct {
	layout
	dashboard.OverviewView
	TopMax           int
	CategoryChartURL string
	StateChartURL    string
}

// handleRevenue renders the revenue page: top categories within a date range
// and the customer concentration of every state.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if !allowRead(w, r) {
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	panel := dashboard.NewPanel(ds)
	f := panel.ParseRevenue(r.URL.Query())
	view := dashboard.BuildRevenue(ds, panel, f)
	q := f.Query()

	data := revenuePage{
		layout:           s.pageLayout(pageRevenue),
		RevenueView:      view,
		TopMin:           dashboard.RevenueTopMin,
		TopMax:           dashboard.RevenueTopMax,
		CategoryChartURL: chartURL(pageRevenue, dashboard.ChartCategories, q),
		StateChartURL:    chartURL(pageRevenue, dashboard.ChartStates, q),
	}
	if s.render(w, r, "revenue.html", data) {
		s.events.LogPageRendered(r.Context(), pageRevenue, f.Top,
			formatDate(f.Range.Start), formatDate(f.Range.End), nil)
	}
}

// handleOverview renders the overview page: metric tiles and charts over the
// pre-sorted top-category table and the selected states.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if !allowRead(w, r) {
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	panel := dashboard.NewPanel(ds)
	f := panel.ParseOverview(r.URL.Query())
	view := dashboard.BuildOverview(ds, panel, f)
	q := f.Query()

	data := overviewPage{
		layout:           s.pageLayout(pageOverview),
		OverviewView:     view,
		TopMax:           panel.OverviewTopMax(),
		CategoryChartURL: chartURL(pageOverview, dashboard.ChartCategories, q),
		StateChartURL:    chartURL(pageOverview, dashboard.ChartStates, q),
	}
	if s.render(w, r, "overview.html", data) {
		s.events.LogPageRendered(r.Context(), pageOverview, f.Top, "", "", f.States)
	}
}

// handleChart serves /charts/{page}/{chart}.svg. The query string carries the
// same filter state as the page, and rendered bytes are cached per normalized state.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	page := r.PathValue("page")
	name, ok := strings.CutSuffix(r.PathValue("file"), ".svg")
	if !ok || (page != pageRevenue && page != pageOverview) {
		http.NotFound(w, r)
		return
	}
	kind := dashboard.ChartKind(name)
	if kind != dashboard.ChartCategories && kind != dashboard.ChartStates {
		http.NotFound(w, r)
		return
	}

	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	panel := dashboard.NewPanel(ds)
	query := r.URL.Query()

	var build func() (chart.Spec, bool)
	switch page {
	case pageRevenue:
		f := panel.ParseRevenue(query)
		query = f.Query()
		build = func() (chart.Spec, bool) { return dashboard.BuildRevenue(ds, panel, f).Chart(kind) }
	case pageOverview:
		f := panel.ParseOverview(query)
		query = f.Query()
		build = func() (chart.Spec, bool) { return dashboard.BuildOverview(ds, panel, f).Chart(kind) }
	}

	key := page + "/" + name + "?" + chartQuery(query).Encode()
	svg, hit, err := s.charts.GetOrCompute(key, func() ([]byte, error) {
		spec, ok := build()
		if !ok {
			return nil, chart.ErrNoData
		}
		var buf bytes.Buffer
		if err := chart.RenderSVG(&buf, spec); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if errors.Is(err, chart.ErrNoData) {
		http.Error(w, "No data for the selected filters", http.StatusNotFound)
		return
	}
	if err != nil {
		s.events.LogError(r.Context(), "Chart rendering failed", err, applog.ComponentChart, applog.OpRender,
			applog.NewFields().WithChart(page, name, false))
		http.Error(w, "Error rendering chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(svg)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	// go-chart emits inline style attributes.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(svg)
	}
	s.events.LogChartRendered(r.Context(), page, name, hit, len(svg))
}

func (s *Server) pageLayout(nav string) layout {
	l := layout{Nav: nav}
	if s.loader != nil {
		l.LoadedAt = s.loader.LoadedAt()
	}
	return l
}
