package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecomdash/internal/core"
	"ecomdash/internal/loader"
	applog "ecomdash/internal/log"
	"ecomdash/internal/source/memory"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() core.Dataset {
	return core.Dataset{
		Categories: []core.CategoryRevenue{
			{Category: "Electronics", Price: decimal.NewFromInt(100), PurchasedAt: day(2017, 5, 1).Add(9 * time.Hour)},
			{Category: "Toys", Price: decimal.NewFromInt(50), PurchasedAt: day(2017, 5, 1)},
			{Category: "Electronics", Price: decimal.NewFromInt(30), PurchasedAt: day(2018, 1, 1)},
		},
		States: []core.StateConcentration{
			{State: "SP", UniqueCustomers: 1000},
			{State: "RJ", UniqueCustomers: 400},
			{State: "MG", UniqueCustomers: 5000},
		},
		TopCategories: []core.TopCategory{
			{Category: "health_beauty", Price: decimal.RequireFromString("300.50")},
			{Category: "watches_gifts", Price: decimal.RequireFromString("200.25")},
			{Category: "bed_bath_table", Price: decimal.RequireFromString("100")},
		},
	}
}

func newTestServer(t *testing.T, ds core.Dataset, opts Options) (*Server, *loader.Loader) {
	t.Helper()
	ld := loader.New(memory.New(ds))
	if err := ld.Init(context.Background()); err != nil {
		t.Fatalf("init loader: %v", err)
	}
	srv := NewServer(":0", ld, applog.NewWriter(io.Discard, applog.ComponentHTTP), opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, ld
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestRevenuePage(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	rr := get(t, srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"E-Commerce Public Dataset Analysis",
		"© 2025 | E-Commerce Public Dataset Analysis",
		"/charts/revenue/categories.svg?",
		"/charts/revenue/states.svg?",
		"In the selected period, Electronics is the largest revenue contributor.",
		"State MG has the highest customer concentration at the end of 2018.",
		`value="2017-05-01"`,
		`value="2018-01-01"`,
		`<input type="range" id="top" name="top" value="5" min="1" max="10" step="1">`,
		`<output for="top">5</output>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("revenue page missing %q", want)
		}
	}
	if strings.Contains(body, "Raw Data") {
		t.Error("raw preview shown without raw=1")
	}
}

func TestRevenuePageEmptyRangeShowsWarning(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	rr := get(t, srv, "/?start=2017-06-01&end=2017-12-01")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "No category revenue in the selected date range.") {
		t.Fatal("expected empty-range warning")
	}
	if strings.Contains(body, "/charts/revenue/categories.svg") {
		t.Fatal("category chart must not be rendered for an empty range")
	}
	if strings.Contains(body, "largest revenue contributor") {
		t.Fatal("category insight must be hidden for an empty range")
	}
}

func TestRevenuePageRawPreview(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	body := get(t, srv, "/?raw=1").Body.String()
	if !strings.Contains(body, "Raw Data") || !strings.Contains(body, "Showing 3 of 3 rows") {
		t.Fatalf("expected raw preview, got %s", body)
	}
	if !strings.Contains(body, "R$ 100.00") {
		t.Fatal("expected formatted price in raw preview")
	}
}

func TestOverviewPage(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	tests := []struct {
		name    string
		target  string
		want    []string
		notWant []string
	}{
		{
			name:   "defaults",
			target: "/overview",
			want:    []string{"6,400", "R$ 600.75", "health_beauty is the largest revenue contributor", "/charts/overview/states.svg?"},
			notWant: []string{"In the selected period"},
		},
		{
			name:   "selected states and top",
			target: "/overview?state=SP&state=MG&top=2",
			want:   []string{"6,000", "R$ 500.75", "State MG has the highest"},
		},
		{
			name:    "explicit empty selection",
			target:  "/overview?states_submitted=1",
			want:    []string{"No states selected.", ">0<"},
			notWant: []string{"/charts/overview/states.svg", "has the highest customer concentration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			body := rr.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("missing %q", w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(body, w) {
					t.Errorf("unexpected %q", w)
				}
			}
		})
	}
}

func TestOverviewStateCheckboxes(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	body := get(t, srv, "/overview?state=RJ&top=2").Body.String()
	if !strings.Contains(body, `<input type="range" id="top" name="top" value="2" min="1" max="3" step="1">`) {
		t.Error("top slider should be bounded by the top category rows")
	}
	if !strings.Contains(body, `<output for="top">2</output>`) {
		t.Error("slider label should show the applied top value")
	}
	if !strings.Contains(body, `value="RJ" checked`) {
		t.Error("RJ should be checked")
	}
	if strings.Contains(body, `value="SP" checked`) {
		t.Error("SP should not be checked")
	}
	if !strings.Contains(body, `name="states_submitted" value="1"`) {
		t.Error("form must mark submitted state selections")
	}
}

func TestChartEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	rr := get(t, srv, "/charts/revenue/categories.svg?top=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "<svg") {
		t.Fatal("expected svg body")
	}

	// raw does not change the chart, so it shares the cache entry
	if rr := get(t, srv, "/charts/revenue/categories.svg?raw=1&top=2"); rr.Code != http.StatusOK {
		t.Fatalf("second status=%d", rr.Code)
	}
	if stats := srv.charts.Stats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %+v", stats)
	}
}

func TestChartEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	tests := []struct {
		target string
		code   int
	}{
		{"/charts/overview/states.svg?states_submitted=1", http.StatusNotFound},
		{"/charts/revenue/categories.svg?start=2017-06-01&end=2017-12-01", http.StatusNotFound},
		{"/charts/revenue/pie.svg", http.StatusNotFound},
		{"/charts/sales/states.svg", http.StatusNotFound},
		{"/charts/revenue/states.png", http.StatusNotFound},
		{"/charts/overview/states.svg", http.StatusOK},
	}
	for _, tt := range tests {
		if rr := get(t, srv, tt.target); rr.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.code, rr.Code)
		}
	}
}

func TestRoutingAndMethods(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	if rr := get(t, srv, "/nope"); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path: expected 404, got %d", rr.Code)
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/overview", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	ld := loader.New(memory.New(fixture()))
	srv := NewServer(":0", ld, applog.NewWriter(io.Discard, applog.ComponentHTTP), Options{})
	defer func() { _ = srv.Shutdown(context.Background()) }()

	if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr := get(t, srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load: expected 503, got %d", rr.Code)
	}
	if rr := get(t, srv, "/"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("page before load: expected 503, got %d", rr.Code)
	}

	if err := ld.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if rr := get(t, srv, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz after load: expected 200, got %d", rr.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{RateLimitPerMinute: 2})

	rr := get(t, srv, "/healthz")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header not set")
	}

	get(t, srv, "/healthz")
	if rr := get(t, srv, "/healthz"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, fixture(), Options{})

	rr := get(t, srv, "/static/style.css")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Fatalf("unexpected Cache-Control %q", cc)
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.RequireFromString("1234.5"), "R$ 1,234.50"},
		{decimal.RequireFromString("0.99"), "R$ 0.99"},
		{decimal.RequireFromString("-12.3"), "-R$ 12.30"},
	}
	for _, tt := range tests {
		if got := formatCurrency(tt.in); got != tt.want {
			t.Errorf("formatCurrency(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := formatCount(41746); got != "41,746" {
		t.Errorf("formatCount = %q", got)
	}
	if got := formatDate(time.Time{}); got != "" {
		t.Errorf("zero date should format empty, got %q", got)
	}
}
