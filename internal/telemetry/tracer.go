package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for span decoration across the offline subsystems.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client / request attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrRequestID  = "http.request_id"
	AttrMethod     = "http.method"
	AttrURL        = "http.url"
	AttrStatusCode = "http.status_code"

	// ========================================================================
	// Scope / identity attributes
	// ========================================================================
	AttrAuthScope = "auth.scope"

	// ========================================================================
	// Network quality / circuit breaker attributes
	// ========================================================================
	AttrQuality      = "netquality.quality"
	AttrRTTMs        = "netquality.rtt_ms"
	AttrBreakerState = "breaker.state"
	AttrFailureClass = "breaker.failure_class"

	// ========================================================================
	// Write replay queue attributes
	// ========================================================================
	AttrOperationID = "replayqueue.operation_id"
	AttrOpStatus    = "replayqueue.status"
	AttrAttempts    = "replayqueue.attempts"
	AttrBatchSize   = "replayqueue.batch_size"

	// ========================================================================
	// Cache manager attributes
	// ========================================================================
	AttrCacheNamespace = "cache.namespace"
	AttrCacheKey       = "cache.key"
	AttrCacheHit       = "cache.hit"
	AttrCacheStale     = "cache.stale"
	AttrByteSize       = "cache.byte_size"

	// ========================================================================
	// Conflict resolution attributes
	// ========================================================================
	AttrConflictID = "conflict.id"
	AttrChoice     = "conflict.choice"

	// ========================================================================
	// Overlay controller attributes
	// ========================================================================
	AttrPopupID   = "overlay.popup_id"
	AttrDriftPx   = "overlay.drift_px"
	AttrAdapterID = "overlay.adapter_id"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	SpanDetectorProbe     = "netquality.probe"
	SpanBreakerTransition = "breaker.transition"
	SpanQueueEnqueue      = "replayqueue.enqueue"
	SpanQueueDrain        = "replayqueue.drain"
	SpanQueueReplay       = "replayqueue.replay"
	SpanCacheLookup       = "cache.lookup"
	SpanCacheWrite        = "cache.write"
	SpanCacheEvict        = "cache.evict"
	SpanConflictDetect    = "conflict.detect"
	SpanConflictResolve   = "conflict.resolve"
	SpanOverlaySync       = "overlay.sync"
)

// ClientIP returns an attribute for client IP address.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// RequestID returns an attribute for the HTTP request id (chi RequestID middleware).
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// Method returns an attribute for the HTTP method.
func Method(method string) attribute.KeyValue {
	return attribute.String(AttrMethod, method)
}

// URL returns an attribute for the request URL.
func URL(url string) attribute.KeyValue {
	return attribute.String(AttrURL, url)
}

// StatusCode returns an attribute for an HTTP status code.
func StatusCode(code int) attribute.KeyValue {
	return attribute.Int(AttrStatusCode, code)
}

// AuthScope returns an attribute for the tenant/user scope tag.
func AuthScope(scope string) attribute.KeyValue {
	return attribute.String(AttrAuthScope, scope)
}

// Quality returns an attribute for a network quality classification.
func Quality(q string) attribute.KeyValue {
	return attribute.String(AttrQuality, q)
}

// RTTMs returns an attribute for a smoothed round-trip time.
func RTTMs(ms float64) attribute.KeyValue {
	return attribute.Float64(AttrRTTMs, ms)
}

// BreakerState returns an attribute for a circuit breaker state.
func BreakerState(state string) attribute.KeyValue {
	return attribute.String(AttrBreakerState, state)
}

// FailureClass returns an attribute for an error taxonomy kind.
func FailureClass(class string) attribute.KeyValue {
	return attribute.String(AttrFailureClass, class)
}

// OperationID returns an attribute for a replay queue operation id.
func OperationID(id string) attribute.KeyValue {
	return attribute.String(AttrOperationID, id)
}

// OpStatus returns an attribute for a replay queue operation status.
func OpStatus(status string) attribute.KeyValue {
	return attribute.String(AttrOpStatus, status)
}

// Attempts returns an attribute for a retry attempt count.
func Attempts(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempts, n)
}

// BatchSize returns an attribute for the number of entries drained in a batch.
func BatchSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBatchSize, n)
}

// CacheNamespace returns an attribute for a cache namespace.
func CacheNamespace(ns string) attribute.KeyValue {
	return attribute.String(AttrCacheNamespace, ns)
}

// CacheKey returns an attribute for a canonical cache key.
func CacheKey(key string) attribute.KeyValue {
	return attribute.String(AttrCacheKey, key)
}

// CacheHit returns an attribute for a cache hit/miss outcome.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// CacheStale returns an attribute for a stale-while-revalidate outcome.
func CacheStale(stale bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheStale, stale)
}

// ByteSize returns an attribute for a payload size.
func ByteSize(n int64) attribute.KeyValue {
	return attribute.Int64(AttrByteSize, n)
}

// ConflictID returns an attribute for a conflict record id.
func ConflictID(id string) attribute.KeyValue {
	return attribute.String(AttrConflictID, id)
}

// Choice returns an attribute for a conflict resolution choice.
func Choice(choice string) attribute.KeyValue {
	return attribute.String(AttrChoice, choice)
}

// PopupID returns an attribute for an overlay popup id.
func PopupID(id string) attribute.KeyValue {
	return attribute.String(AttrPopupID, id)
}

// DriftPx returns an attribute for an overlay reconciliation drift distance.
func DriftPx(px float64) attribute.KeyValue {
	return attribute.Float64(AttrDriftPx, px)
}

// AdapterID returns an attribute identifying a registered overlay adapter.
func AdapterID(id string) attribute.KeyValue {
	return attribute.String(AttrAdapterID, id)
}

// StartDetectorSpan starts a span for a network quality probe.
func StartDetectorSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanDetectorProbe, trace.WithAttributes(attrs...))
}

// StartQueueSpan starts a span for a replay queue operation.
func StartQueueSpan(ctx context.Context, spanName, operationID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{OperationID(operationID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartCacheSpan starts a span for a cache manager operation.
func StartCacheSpan(ctx context.Context, spanName, namespace, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{CacheNamespace(namespace), CacheKey(key)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartConflictSpan starts a span for a conflict resolution operation.
func StartConflictSpan(ctx context.Context, spanName, conflictID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ConflictID(conflictID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartOverlaySpan starts a span for an overlay controller operation.
func StartOverlaySpan(ctx context.Context, authScope string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{AuthScope(authScope)}, attrs...)
	return StartSpan(ctx, SpanOverlaySync, trace.WithAttributes(allAttrs...))
}
