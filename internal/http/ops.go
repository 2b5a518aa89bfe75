package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady pings the record store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.ready == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.ready.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if c := s.dash.Cache(); c != nil {
		checks["cache"] = map[string]any{"entries": c.Size(), "status": "ok"}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients(), "status": "ok"}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.GetMetrics()
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_requests_in_flight", "gauge", "Requests currently being served", tm.InFlight)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	metric("http_panics_total", "counter", "Recovered handler panics", tm.Panics)
	metric("http_request_duration_seconds_sum", "counter", "Cumulative request latency", fmt.Sprintf("%.6f", tm.TotalDurationSec))

	fmt.Fprintf(w, "# HELP transactions_mutations_total Transactions written through the API\n")
	fmt.Fprintf(w, "# TYPE transactions_mutations_total counter\n")
	fmt.Fprintf(w, "transactions_mutations_total{op=\"create\"} %d\n", s.metrics.created.Load())
	fmt.Fprintf(w, "transactions_mutations_total{op=\"update\"} %d\n", s.metrics.updated.Load())
	fmt.Fprintf(w, "transactions_mutations_total{op=\"delete\"} %d\n\n", s.metrics.deleted.Load())

	if c := s.dash.Cache(); c != nil {
		st := c.Stats()
		metric("dashboard_cache_hits_total", "counter", "Dashboard cache hits", st.Hits)
		metric("dashboard_cache_misses_total", "counter", "Dashboard cache misses", st.Misses)
		metric("dashboard_cache_entries", "gauge", "Cached dashboard snapshots", st.Size)
	}

	rl := s.limiter.GetMetrics()
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rl.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged as probing", s.detector.GetMetrics().SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Process uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.metrics.started).Seconds()))
}
