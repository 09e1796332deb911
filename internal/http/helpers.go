package http

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"ecomdash/internal/core"
	"ecomdash/internal/dashboard"
	applog "ecomdash/internal/log"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Page identifiers, used in chart URLs and logs.
const (
	pageRevenue  = "revenue"
	pageOverview = "overview"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatCurrency": formatCurrency,
		"formatCount":    formatCount,
		"date":           formatDate,
		"datetime":       formatDateTime,
	}
}

// formatCurrency formats an amount in Brazilian reais with thousands separators (e.g., "R$ 1,234.50").
func formatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-R$ " + humanize.FormatFloat("#,###.##", d.Neg().InexactFloat64())
	}
	return "R$ " + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// formatCount formats a customer count with thousands separators.
func formatCount(n int64) string {
	return humanize.Comma(n)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(core.DateLayout)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// chartURL builds the chart endpoint for a page carrying the page's filter state.
func chartURL(page string, kind dashboard.ChartKind, q url.Values) string {
	return "/charts/" + page + "/" + string(kind) + ".svg?" + chartQuery(q).Encode()
}

// chartQuery drops values that do not change the chart so equal charts share a cache key.
func chartQuery(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		if k == dashboard.ParamRaw {
			continue
		}
		out[k] = v
	}
	return out
}

// render executes a template into a buffer so a failure can still produce a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) bool {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().With(applog.FieldPath, r.URL.Path).With("template", name))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
	return true
}

// allowRead rejects anything but GET and HEAD.
func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

// dataset returns the memoized dataset, answering 503 when it is not loaded.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (core.Dataset, bool) {
	if s.loader == nil {
		http.Error(w, "Dataset not available", http.StatusServiceUnavailable)
		return core.Dataset{}, false
	}
	ds, err := s.loader.Dataset()
	if err != nil {
		s.events.LogError(r.Context(), "Dataset unavailable", err, applog.ComponentLoader, applog.OpLoad,
			applog.NewFields().With(applog.FieldPath, r.URL.Path))
		http.Error(w, "Dataset not available", http.StatusServiceUnavailable)
		return core.Dataset{}, false
	}
	return ds, true
}
