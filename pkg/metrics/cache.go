package metrics

// CacheMetrics observes the response cache: per-namespace occupancy and
// hit/miss counts, used to derive the hit rate the /cache/stats endpoint
// reports.
type CacheMetrics interface {
	RecordHit(namespace string)
	RecordMiss(namespace string)
	RecordEviction(namespace, reason string)
	SetNamespaceBytes(namespace string, bytes int64)
}
