package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying across the network detector, circuit breaker, replay queue,
// cache manager, conflict engine, and overlay controller.
const (
	// ========================================================================
	// Distributed tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Component / scope identification
	// ========================================================================
	KeyComponent = "component"  // netquality, breaker, replayqueue, cachemgr, conflict, overlay
	KeyAuthScope = "auth_scope" // tenant/user owning the operation or cache entry

	// ========================================================================
	// Network quality & circuit breaker
	// ========================================================================
	KeyQuality      = "quality"      // good, degraded, offline
	KeyRTTMs        = "rtt_ms"       // smoothed round-trip time
	KeyBreakerState = "breaker_state" // closed, open, half_open
	KeyFailureClass = "failure_class"
	KeyBackoffMs    = "backoff_ms"

	// ========================================================================
	// Write replay queue
	// ========================================================================
	KeyOperationID = "operation_id"
	KeyMethod      = "method"
	KeyURL         = "url"
	KeyStatus      = "status" // pending, in_flight, conflict, dead_letter, done
	KeyAttempts    = "attempts"
	KeyStatusCode  = "status_code"
	KeyBatchSize   = "batch_size"

	// ========================================================================
	// Cache manager
	// ========================================================================
	KeyCacheNamespace = "cache_namespace"
	KeyCacheKey       = "cache_key"
	KeyCacheHit       = "cache_hit"
	KeyCacheStale     = "cache_stale"
	KeyByteSize       = "byte_size"
	KeyBudgetBytes    = "budget_bytes"
	KeyEvicted        = "evicted"

	// ========================================================================
	// Conflict resolution
	// ========================================================================
	KeyConflictID = "conflict_id"
	KeyChoice     = "choice" // keep_mine, use_theirs, merge, force_save
	KeyMergeable  = "mergeable"

	// ========================================================================
	// Overlay controller
	// ========================================================================
	KeyPopupID   = "popup_id"
	KeyDriftPx   = "drift_px"
	KeyAdapterID = "adapter_id"

	// ========================================================================
	// Generic
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
	KeyPath       = "path"
)

// TraceID returns a slog.Attr for an OpenTelemetry trace id.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for an OpenTelemetry span id.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Component returns a slog.Attr naming the emitting subsystem.
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

// AuthScope returns a slog.Attr for the tenant/user scope tag.
func AuthScope(scope string) slog.Attr { return slog.String(KeyAuthScope, scope) }

// Quality returns a slog.Attr for a network quality classification.
func Quality(q string) slog.Attr { return slog.String(KeyQuality, q) }

// RTTMs returns a slog.Attr for a smoothed round-trip time in milliseconds.
func RTTMs(ms float64) slog.Attr { return slog.Float64(KeyRTTMs, ms) }

// BreakerState returns a slog.Attr for a circuit breaker state.
func BreakerState(state string) slog.Attr { return slog.String(KeyBreakerState, state) }

// FailureClass returns a slog.Attr for an error taxonomy kind.
func FailureClass(class string) slog.Attr { return slog.String(KeyFailureClass, class) }

// BackoffMs returns a slog.Attr for a computed backoff delay.
func BackoffMs(ms int64) slog.Attr { return slog.Int64(KeyBackoffMs, ms) }

// OperationID returns a slog.Attr for a replay queue operation id.
func OperationID(id string) slog.Attr { return slog.String(KeyOperationID, id) }

// Method returns a slog.Attr for an HTTP method.
func Method(m string) slog.Attr { return slog.String(KeyMethod, m) }

// URL returns a slog.Attr for a request URL.
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }

// Status returns a slog.Attr for an operation or cache status.
func Status(s string) slog.Attr { return slog.String(KeyStatus, s) }

// Attempts returns a slog.Attr for a retry attempt count.
func Attempts(n int) slog.Attr { return slog.Int(KeyAttempts, n) }

// StatusCode returns a slog.Attr for an HTTP status code.
func StatusCode(code int) slog.Attr { return slog.Int(KeyStatusCode, code) }

// BatchSize returns a slog.Attr for the number of entries drained in a batch.
func BatchSize(n int) slog.Attr { return slog.Int(KeyBatchSize, n) }

// CacheNamespace returns a slog.Attr for a cache namespace name.
func CacheNamespace(ns string) slog.Attr { return slog.String(KeyCacheNamespace, ns) }

// CacheKey returns a slog.Attr for a canonical cache key.
func CacheKey(key string) slog.Attr { return slog.String(KeyCacheKey, key) }

// CacheHit returns a slog.Attr for a cache hit/miss outcome.
func CacheHit(hit bool) slog.Attr { return slog.Bool(KeyCacheHit, hit) }

// CacheStale returns a slog.Attr for a stale-while-revalidate outcome.
func CacheStale(stale bool) slog.Attr { return slog.Bool(KeyCacheStale, stale) }

// ByteSize returns a slog.Attr for a payload size.
func ByteSize(n int64) slog.Attr { return slog.Int64(KeyByteSize, n) }

// BudgetBytes returns a slog.Attr for a namespace byte budget.
func BudgetBytes(n int64) slog.Attr { return slog.Int64(KeyBudgetBytes, n) }

// Evicted returns a slog.Attr for an eviction count.
func Evicted(n int) slog.Attr { return slog.Int(KeyEvicted, n) }

// ConflictID returns a slog.Attr for a conflict record id.
func ConflictID(id string) slog.Attr { return slog.String(KeyConflictID, id) }

// Choice returns a slog.Attr for a conflict resolution choice.
func Choice(choice string) slog.Attr { return slog.String(KeyChoice, choice) }

// Mergeable returns a slog.Attr for whether a three-way merge is computable.
func Mergeable(ok bool) slog.Attr { return slog.Bool(KeyMergeable, ok) }

// PopupID returns a slog.Attr for an overlay popup id.
func PopupID(id string) slog.Attr { return slog.String(KeyPopupID, id) }

// DriftPx returns a slog.Attr for an overlay reconciliation drift distance.
func DriftPx(px float64) slog.Attr { return slog.Float64(KeyDriftPx, px) }

// AdapterID returns a slog.Attr identifying a registered overlay adapter.
func AdapterID(id string) slog.Attr { return slog.String(KeyAdapterID, id) }

// DurationMs returns a slog.Attr for an elapsed duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error value. Returns an empty attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// RequestID returns a slog.Attr for an HTTP request id (chi middleware.RequestID).
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }

// RemoteAddr returns a slog.Attr for a client remote address.
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }

// Path returns a slog.Attr for an HTTP request path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
