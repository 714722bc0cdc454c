package metrics

import "time"

// QueueMetrics observes the write replay queue: depth by status, drain
// outcomes, and per-operation replay latency.
type QueueMetrics interface {
	SetDepth(status string, count int)
	ObserveDrain(scopeCount int, duration time.Duration)
	RecordReplay(outcome string)
}
