// Package replayqueue implements the write replay queue: a durable,
// FIFO-per-scope queue of mutating HTTP operations captured while offline
// or after a failed send, drained once connectivity and the circuit
// breaker allow it.
package replayqueue

import "time"

// Status is the lifecycle state of a queued Operation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInFlight   Status = "in_flight"
	StatusConflict   Status = "conflict"
	StatusDeadLetter Status = "dead_letter"
	StatusDone       Status = "done"
)

// Operation is a single captured write, replayed against the origin
// server once it can be sent successfully.
type Operation struct {
	ID             string            `json:"id"`
	AuthScope      string            `json:"authScope"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey"`
	Status         Status            `json:"status"`
	Attempts       int               `json:"attempts"`
	EnqueuedAt     time.Time         `json:"enqueuedAt"`
	NextAttemptAt  time.Time         `json:"nextAttemptAt"`
	LastError      string            `json:"lastError,omitempty"`
}
