package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/pkg/api/handlers"
	apiMiddleware "github.com/offlinefoundation/core/pkg/api/middleware"
	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/cachemgr"
	"github.com/offlinefoundation/core/pkg/conflict"
	"github.com/offlinefoundation/core/pkg/netquality"
	"github.com/offlinefoundation/core/pkg/overlay"
	"github.com/offlinefoundation/core/pkg/replayqueue"
)

// Dependencies wires the subsystems the router exposes over HTTP. Any field
// may be nil; handlers that depend on a nil collaborator degrade gracefully
// (health reports not-ready, others are simply not mounted).
type Dependencies struct {
	Detector  netquality.Detector
	Breaker   *breaker.Breaker
	Queue     *replayqueue.Queue
	Cache     *cachemgr.Manager
	Conflicts *conflict.Manager
	Overlay   overlay.Store
	JWTSecret string
}

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET  /healthz              - Liveness probe
//   - GET  /readyz               - Readiness probe
//   - GET  /queue                - List replay queue operations
//   - GET  /queue/stats          - Replay queue counts by status
//   - POST /queue/{id}/requeue   - Requeue a dead-lettered or conflicted op
//   - POST /queue/{id}/discard   - Permanently drop an operation
//   - GET  /cache/stats          - Per-namespace cache occupancy and hit rate
//   - GET  /conflicts            - List conflicts awaiting resolution
//   - POST /conflicts/{id}/resolve - Apply a resolution action
//   - GET  /overlay/{authScope}  - Fetch the persisted popup layout
//   - PUT  /overlay/{authScope}  - Save the popup layout
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.Detector, deps.Breaker, deps.Queue)
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/healthz", http.StatusTemporaryRedirect)
	})

	authed := func(r chi.Router) {
		if deps.JWTSecret != "" {
			r.Use(apiMiddleware.JWTAuth(deps.JWTSecret))
		}
	}

	if deps.Queue != nil {
		queueHandler := handlers.NewQueueHandler(deps.Queue)
		r.Route("/queue", func(r chi.Router) {
			authed(r)
			r.Get("/", queueHandler.List)
			r.Get("/stats", queueHandler.Stats)
			r.Post("/{id}/requeue", queueHandler.Requeue)
			r.Post("/{id}/discard", queueHandler.Discard)
		})
	}

	if deps.Cache != nil {
		cacheHandler := handlers.NewCacheHandler(deps.Cache)
		r.Route("/cache", func(r chi.Router) {
			authed(r)
			r.Get("/stats", cacheHandler.Stats)
		})
	}

	if deps.Conflicts != nil {
		conflictHandler := handlers.NewConflictHandler(deps.Conflicts)
		r.Route("/conflicts", func(r chi.Router) {
			authed(r)
			r.Get("/", conflictHandler.List)
			r.Post("/{id}/resolve", conflictHandler.Resolve)
		})
	}

	if deps.Overlay != nil {
		overlayHandler := handlers.NewOverlayHandler(deps.Overlay)
		r.Route("/overlay/{authScope}", func(r chi.Router) {
			authed(r)
			r.Get("/", overlayHandler.Get)
			r.Put("/", overlayHandler.Put)
		})
	}

	return r
}

// requestLogger is a custom middleware that logs requests using the internal
// logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
