package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/offlinefoundation/core/pkg/conflict"
)

// ConflictHandler exposes the conflict resolution engine: listing
// conflicts awaiting a decision and applying a user's chosen resolution.
type ConflictHandler struct {
	manager *conflict.Manager
}

// NewConflictHandler creates a new conflict handler.
func NewConflictHandler(manager *conflict.Manager) *ConflictHandler {
	return &ConflictHandler{manager: manager}
}

// List handles GET /conflicts?status=awaiting_user - list conflict records,
// optionally filtered by status. An empty status lists awaiting_user
// conflicts, since that is the status a human is expected to act on.
func (h *ConflictHandler) List(w http.ResponseWriter, r *http.Request) {
	status := conflict.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = conflict.StatusAwaitingUser
	}

	records, err := h.manager.List(status)
	if err != nil {
		InternalServerError(w, "failed to list conflicts")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(records))
}

// resolveRequest is the body of POST /conflicts/{id}/resolve. MergedValue
// is accepted for forward compatibility with a client-supplied merge
// result; the engine currently recomputes the merge itself from the
// conflict's recorded base/mine/theirs.
type resolveRequest struct {
	Choice      conflict.Action `json:"choice" validate:"required,oneof=keep_mine use_theirs merge force_save"`
	MergedValue json.RawMessage `json:"mergedValue,omitempty"`
}

// Resolve handles POST /conflicts/{id}/resolve.
func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req resolveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validate.Struct(&req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.manager.Resolve(r.Context(), id, req.Choice); err != nil {
		Conflict(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(nil))
}
