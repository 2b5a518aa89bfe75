// Package http serves the JSON API, the HTMX dashboard and the operational
// endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/gateway"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	// Ready is pinged by /readyz.
	Ready  gateway.Pinger
	Logger *applog.Logger
	// RateLimitPerMinute caps mutating requests per client. Zero uses the default.
	RateLimitPerMinute int
}

type appMetrics struct {
	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
	started time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	tx        *services.TransactionService
	dash      *services.DashboardService
	ready     gateway.Pinger
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  appMetrics

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.Format() },
	"color": core.CategoryColor,
	"date":  func(d core.Date) string { return d.String() },
}

// NewServer wires routes and middleware. Templates are parsed eagerly; a
// parse failure is returned.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	limitCfg := ratelimit.DefaultConfig()
	limitCfg.RequestsPerMinute = deps.RateLimitPerMinute

	s := &Server{
		templates: t,
		tx:        deps.Transactions,
		dash:      deps.Dashboard,
		ready:     deps.Ready,
		logger:    deps.Logger.WithComponent(applog.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(limitCfg),
		detector:  security.NewDetector(),
	}
	s.metrics.started = time.Now()
	s.tracer = trace.NewMiddleware(deps.Logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories/breakdown", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /ui/transactions", s.handleTransactionsPartial)
	mux.HandleFunc("POST /ui/transactions", s.handleUICreate)
	mux.HandleFunc("GET /ui/transactions/new", s.handleUINewForm)
	mux.HandleFunc("GET /ui/transactions/{id}/edit", s.handleUIEditForm)
	mux.HandleFunc("POST /ui/transactions/{id}", s.handleUIUpdate)
	mux.HandleFunc("DELETE /ui/transactions/{id}", s.handleUIDelete)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again in a minute").Write(w)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
