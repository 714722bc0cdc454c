package handlers

import (
	"net/http"

	"github.com/offlinefoundation/core/pkg/cachemgr"
)

// CacheHandler exposes read-only introspection into the response cache
// manager's namespace occupancy and hit rate.
type CacheHandler struct {
	manager *cachemgr.Manager
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(manager *cachemgr.Manager) *CacheHandler {
	return &CacheHandler{manager: manager}
}

// Stats handles GET /cache/stats - per-namespace byte usage, budget, and
// hit rate.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(h.manager.Stats()))
}
