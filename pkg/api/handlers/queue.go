package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/offlinefoundation/core/pkg/replayqueue"
)

// QueueHandler exposes introspection and control over the write replay
// queue: listing queued operations, per-status counts, and manual
// requeue/discard for operations stuck in dead_letter or conflict.
type QueueHandler struct {
	queue *replayqueue.Queue
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(queue *replayqueue.Queue) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// List handles GET /queue?status=pending - list operations, optionally
// filtered by status. An empty or missing status lists every operation.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	status := replayqueue.Status(r.URL.Query().Get("status"))

	ops, err := h.queue.List(status)
	if err != nil {
		InternalServerError(w, "failed to list queued operations")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(ops))
}

// Stats handles GET /queue/stats - operation counts by status.
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats()
	if err != nil {
		InternalServerError(w, "failed to compute queue stats")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(stats))
}

// Requeue handles POST /queue/{id}/requeue - moves an operation back to
// pending for another drain attempt.
func (h *QueueHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.queue.Requeue(id); err != nil {
		NotFound(w, "operation not found or not requeueable")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(nil))
}

// Discard handles POST /queue/{id}/discard - permanently drops an
// operation without replaying it.
func (h *QueueHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.queue.Discard(id); err != nil {
		NotFound(w, "operation not found")
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(nil))
}
