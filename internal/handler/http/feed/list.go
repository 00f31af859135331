package feed

import (
	"net/http"

	"bayarea-dashboard/internal/handler/http/respond"
	feedUC "bayarea-dashboard/internal/usecase/feed"
)

// ListResponse is the body of GET /api/feeds.
type ListResponse struct {
	Feeds []feedUC.Summary `json:"feeds"`
}

// ListHandler lists the configured feeds.
type ListHandler struct{ Svc Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, ListResponse{Feeds: h.Svc.Feeds()})
}
