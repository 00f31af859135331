package feed

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bayarea-dashboard/internal/handler/http/respond"
	"bayarea-dashboard/internal/usecase/assemble"
	feedUC "bayarea-dashboard/internal/usecase/feed"
)

// BypassHeader forces a cache bypass, like ?nocache=1.
const BypassHeader = "X-Cache-Bypass"

// GetHandler serves one feed.
//
// Known feeds always answer 200 with an envelope, whatever the health of
// their upstreams; degradation is reported in the envelope's status. Only
// an unknown feed or category is a 404.
type GetHandler struct{ Svc Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	env, err := h.Svc.Get(r.Context(), name, category, bypass(r))
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, feedUC.ErrFeedNotFound) || errors.Is(err, feedUC.ErrCategoryNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	w.Header().Set("X-Cache", cacheHeader(env))
	w.Header().Set("Cache-Control", cacheControl(env))
	respond.JSON(w, http.StatusOK, env)
}

// bypass reports whether the client asked to skip the cache read.
func bypass(r *http.Request) bool {
	return truthy(r.URL.Query().Get("nocache")) || truthy(r.Header.Get(BypassHeader))
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func cacheHeader(env assemble.Envelope) string {
	switch {
	case env.Status == assemble.StatusStale:
		return "STALE"
	case env.CacheHit:
		return "HIT"
	case env.CacheMode == assemble.ModeBypass:
		return "BYPASS"
	default:
		return "MISS"
	}
}

// cacheControl lets browsers reuse a fresh envelope until the server side
// entry expires. Degraded envelopes are never reused.
func cacheControl(env assemble.Envelope) string {
	if env.Status != assemble.StatusOK || env.CacheExpiresInSeconds <= 0 {
		return "no-store"
	}
	return "public, max-age=" + strconv.Itoa(env.CacheExpiresInSeconds)
}
