// Package http holds the HTTP surface of the dashboard: health and metrics
// endpoints, and the middleware shared by every route. Feed routes live in
// the feed subpackage.
package http

import (
	"net/http"
	"time"

	"bayarea-dashboard/internal/handler/http/respond"
	"bayarea-dashboard/internal/resilience/limiter"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of a single check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CacheStats is implemented by cache stores that can report their size.
type CacheStats interface {
	Len() int
}

// HealthHandler reports whether the service can answer feed requests.
//
// The process holds no connections of its own, so health is about
// configuration: at least one feed must be loaded. Cache size and limiter
// occupancy are reported for operators but never make the service unhealthy;
// a saturated limiter only slows responses down.
type HealthHandler struct {
	Version  string
	Feeds    int
	Cache    CacheStats
	Limiters *limiter.Registry
	Now      func() time.Time
}

// ServeHTTP writes the health report. 200 if healthy, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	// フィード定義チェック
	checks := map[string]CheckStatus{
		"catalog": h.checkCatalog(),
	}
	if h.Cache != nil {
		checks["cache"] = CheckStatus{
			Status:  "healthy",
			Details: map[string]any{"keys": h.Cache.Len()},
		}
	}
	if h.Limiters != nil {
		checks["limiters"] = h.checkLimiters()
	}

	// 全体のステータス決定（degraded は 200 のまま）
	status, code := "healthy", http.StatusOK
	for _, c := range checks {
		if c.Status == "unhealthy" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkCatalog() CheckStatus {
	if h.Feeds == 0 {
		return CheckStatus{Status: "unhealthy", Message: "no feeds configured"}
	}
	return CheckStatus{Status: "healthy", Details: map[string]any{"feeds": h.Feeds}}
}

// checkLimiters reports each limiter's occupancy. A limiter with waiters is
// "degraded", which is informational only.
func (h *HealthHandler) checkLimiters() CheckStatus {
	status := "healthy"
	details := make(map[string]any)
	for _, name := range h.Limiters.Names() {
		l := h.Limiters.Get(name)
		if l == nil {
			continue
		}
		if l.Queued() > 0 {
			status = "degraded"
		}
		details[name] = map[string]int{
			"max":       l.Max(),
			"in_flight": l.InFlight(),
			"queued":    l.Queued(),
		}
	}
	return CheckStatus{Status: status, Details: details}
}
