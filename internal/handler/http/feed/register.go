// Package feed serves the aggregated feeds over HTTP.
package feed

import (
	"context"
	"net/http"

	"bayarea-dashboard/internal/usecase/assemble"
	feedUC "bayarea-dashboard/internal/usecase/feed"
)

// Service is the part of the feed use case the handlers need.
type Service interface {
	Feeds() []feedUC.Summary
	Get(ctx context.Context, name, category string, bypass bool) (assemble.Envelope, error)
}

// Register mounts the feed routes on mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET /api/feeds", ListHandler{Svc: svc})
	mux.Handle("GET /api/feeds/{name}", GetHandler{Svc: svc})
}
