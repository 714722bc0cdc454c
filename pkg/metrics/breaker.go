package metrics

// BreakerMetrics observes the circuit breaker's state transitions and
// classified failures.
type BreakerMetrics interface {
	SetState(state string)
	RecordFailure(class string)
	RecordSuccess()
	SetBackoffMs(ms int64)
}
