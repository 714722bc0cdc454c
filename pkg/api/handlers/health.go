package handlers

import (
	"net/http"

	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/netquality"
	"github.com/offlinefoundation/core/pkg/replayqueue"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and report process-level liveness
// plus the readiness of the subsystems a request actually depends on: the
// network quality detector, the circuit breaker, and the replay queue.
type HealthHandler struct {
	detector netquality.Detector
	breaker  *breaker.Breaker
	queue    *replayqueue.Queue
}

// NewHealthHandler creates a new health handler. Any dependency may be nil,
// in which case Readiness reports that subsystem as not initialized.
func NewHealthHandler(detector netquality.Detector, b *breaker.Breaker, queue *replayqueue.Queue) *HealthHandler {
	return &HealthHandler{detector: detector, breaker: b, queue: queue}
}

// Liveness handles GET /healthz - simple liveness probe.
//
// Returns 200 OK if the server process is running, matching the "probing
// never throws" contract: liveness never depends on subsystem state.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "offline-foundation",
	}))
}

// ReadinessStatus reports per-subsystem readiness.
type ReadinessStatus struct {
	DetectorAttached bool   `json:"detectorAttached"`
	NetworkQuality   string `json:"networkQuality,omitempty"`
	BreakerState     string `json:"breakerState,omitempty"`
	QueueDepth       int    `json:"queueDepth"`
}

// Readiness handles GET /readyz - readiness probe.
//
// Returns 503 if the detector or breaker were never wired, since no
// request can be served meaningfully without them.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.detector == nil || h.breaker == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("detector or circuit breaker not initialized"))
		return
	}

	status := ReadinessStatus{
		DetectorAttached: true,
		NetworkQuality:   h.detector.CurrentQuality().String(),
		BreakerState:     h.breaker.State().String(),
	}

	if h.queue != nil {
		stats, err := h.queue.Stats()
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(status))
			return
		}
		for _, count := range stats.Counts {
			status.QueueDepth += count
		}
	}

	writeJSON(w, http.StatusOK, healthyResponse(status))
}
