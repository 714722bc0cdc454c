package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/offlinefoundation/core/pkg/overlay"
)

// OverlayHandler exposes the floating overlay controller's persisted popup
// layout per authScope.
type OverlayHandler struct {
	store overlay.Store
}

// NewOverlayHandler creates a new overlay handler.
func NewOverlayHandler(store overlay.Store) *OverlayHandler {
	return &OverlayHandler{store: store}
}

// Get handles GET /overlay/{authScope} - fetch the persisted popup layout.
func (h *OverlayHandler) Get(w http.ResponseWriter, r *http.Request) {
	authScope := chi.URLParam(r, "authScope")

	doc, found, err := h.store.Load(authScope)
	if err != nil {
		InternalServerError(w, "failed to load overlay document")
		return
	}
	if !found {
		NotFound(w, "no overlay document for authScope")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(doc))
}

// Put handles PUT /overlay/{authScope} - save the popup layout.
func (h *OverlayHandler) Put(w http.ResponseWriter, r *http.Request) {
	authScope := chi.URLParam(r, "authScope")

	var doc overlay.Document
	if !decodeJSONBody(w, r, &doc) {
		return
	}

	if err := h.store.Save(authScope, doc); err != nil {
		InternalServerError(w, "failed to save overlay document")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(doc))
}
