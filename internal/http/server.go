package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"ecomdash/internal/cache"
	"ecomdash/internal/loader"
	applog "ecomdash/internal/log"
	"ecomdash/internal/middleware/ratelimit"
	"ecomdash/internal/middleware/security"
	"ecomdash/internal/middleware/trace"
	appweb "ecomdash/web"
)

// Options tunes the server's caches and limits. Zero values use defaults.
type Options struct {
	ChartCacheSize     int
	ChartCacheTTL      time.Duration
	RateLimitPerMinute int
	CleanupInterval    time.Duration
	// TrustedProxies are CIDRs whose forwarded headers name the client.
	TrustedProxies []string
}

func (o Options) withDefaults() Options {
	if o.ChartCacheSize <= 0 {
		o.ChartCacheSize = 200
	}
	if o.ChartCacheTTL <= 0 {
		o.ChartCacheTTL = 10 * time.Minute
	}
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = 120
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 5 * time.Minute
	}
	return o
}

type Server struct {
	http.Server
	templates *template.Template
	loader    *loader.Loader
	logger    *applog.Logger
	events    *applog.StructuredLogger

	charts   *cache.LRUCache[[]byte]
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and the middleware chain, returning
// a ready-to-run http.Server. Pages read the dataset memoized by ld.
func NewServer(addr string, ld *loader.Loader, logger *applog.Logger, opts Options) *Server {
	opts = opts.withDefaults()
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		loader:   ld,
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		charts:   cache.NewLRUCache[[]byte](opts.ChartCacheSize, opts.ChartCacheTTL),
		caches:   cache.NewManager(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.caches.Register("charts", s.charts)
	s.caches.StartCleanup(opts.CleanupInterval)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.CacheControl(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/{$}", s.handleRevenue)
	mux.HandleFunc("/overview", s.handleOverview)
	mux.HandleFunc("/charts/{page}/{file}", s.handleChart)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, nil)
	withLogger := applog.RequestIDMiddleware(logger, trace.GetRequestID)

	s.Handler = s.tracer.Middleware(
		withLogger(
			headers.Middleware(
				s.detector.Middleware(
					limit(mux)))))
	return s
}

// Shutdown stops the background cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()

		stats := s.charts.Stats()
		s.logger.Info("Chart cache stats at shutdown",
			"hits", stats.Hits,
			"misses", stats.Misses,
			"entries", stats.Size)

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 until the dataset has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil || !s.loader.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
