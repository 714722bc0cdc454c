package metrics

// OverlayMetrics observes the floating overlay controller: how often a
// reconciliation pass corrects drift beyond tolerance, and the current
// persisted revision per auth scope.
type OverlayMetrics interface {
	RecordDriftCorrection(authScope string)
	SetRevision(authScope string, revision int64)
}
