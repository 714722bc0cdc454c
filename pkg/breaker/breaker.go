// Package breaker implements the circuit breaker state machine that sits
// in front of outbound write replay: closed -> open -> half_open -> closed,
// with a fixed cooldown before half_open and exponential backoff with full
// jitter governing the retry delay it reports.
package breaker

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/pkg/metrics"
)

// State is a circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// FailureClass identifies which outcomes count against the breaker.
// Network errors, timeouts, 5xx, and 429 count; other 4xx responses do not.
type FailureClass int

const (
	FailureNone FailureClass = iota
	FailureNetwork
	FailureTimeout
	FailureServerError
	FailureRateLimited
	FailureClientError // does not count against the breaker
)

func (f FailureClass) counts() bool {
	return f.Counts()
}

// String returns the failure class label used in metrics and logs.
func (f FailureClass) String() string {
	switch f {
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureServerError:
		return "server_error"
	case FailureRateLimited:
		return "rate_limited"
	case FailureClientError:
		return "client_error"
	default:
		return "none"
	}
}

// Counts reports whether this failure class affects the breaker's state.
func (f FailureClass) Counts() bool {
	switch f {
	case FailureNetwork, FailureTimeout, FailureServerError, FailureRateLimited:
		return true
	default:
		return false
	}
}

// Config configures a Breaker.
type Config struct {
	OpenThreshold  int
	OpenCooldown   time.Duration
	CloseSuccesses int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
}

// Breaker is the circuit breaker's public contract.
type Breaker struct {
	cfg Config

	mu               sync.Mutex
	state            State
	consecutiveFails int
	halfOpenSuccess  int
	openedAt         time.Time
	attempt          int
	listeners        []func(State)
	metrics          metrics.BreakerMetrics
}

// New constructs a Breaker in the Closed state. metrics may be nil, in
// which case metric collection is skipped.
func New(cfg Config, m metrics.BreakerMetrics) *Breaker {
	b := &Breaker{cfg: cfg, state: Closed, metrics: m}
	if b.metrics != nil {
		b.metrics.SetState(Closed.String())
	}
	return b
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// stateLocked recomputes Open -> HalfOpen transitions lazily based on
// elapsed cooldown, without requiring a background timer.
func (b *Breaker) stateLocked() State {
	if b.state == Open && time.Since(b.openedAt) >= b.cfg.OpenCooldown {
		b.transition(HalfOpen)
	}
	return b.state
}

// Allow reports whether a request should be attempted given the current
// state. Closed and HalfOpen allow; Open does not (until cooldown elapses).
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked() != Open
}

// RecordSuccess reports a successful outbound call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFails = 0
	b.attempt = 0

	if b.metrics != nil {
		b.metrics.RecordSuccess()
	}

	switch b.stateLocked() {
	case HalfOpen:
		b.halfOpenSuccess++
		if b.halfOpenSuccess >= b.cfg.CloseSuccesses {
			b.transition(Closed)
		}
	case Closed:
		// no-op
	}
}

// RecordFailure reports a failed outbound call of the given class.
// Only classes that count (network, timeout, 5xx, 429) affect the breaker.
func (b *Breaker) RecordFailure(class FailureClass) {
	if !class.counts() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordFailure(class.String())
	}

	switch b.stateLocked() {
	case HalfOpen:
		b.transition(Open)
	case Closed:
		b.consecutiveFails++
		if b.consecutiveFails >= b.cfg.OpenThreshold {
			b.transition(Open)
		}
	}
}

// transition must be called with mu held.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to

	switch to {
	case Open:
		b.openedAt = time.Now()
		b.halfOpenSuccess = 0
	case HalfOpen:
		b.halfOpenSuccess = 0
	case Closed:
		b.consecutiveFails = 0
		b.attempt = 0
	}

	logger.Info("circuit breaker transition",
		logger.Component("breaker"),
		logger.BreakerState(to.String()),
		"from", from.String())

	if b.metrics != nil {
		b.metrics.SetState(to.String())
	}

	listeners := append([]func(State){}, b.listeners...)
	go notifyAll(listeners, to)
}

func notifyAll(listeners []func(State), s State) {
	for _, l := range listeners {
		l(s)
	}
}

// Subscribe registers a listener invoked on every state transition.
func (b *Breaker) Subscribe(listener func(State)) func() {
	b.mu.Lock()
	b.listeners = append(b.listeners, listener)
	idx := len(b.listeners) - 1
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if idx < len(b.listeners) {
				b.listeners[idx] = func(State) {}
			}
		})
	}
}

// CurrentBackoffMs computes the next retry delay using an exponential
// backoff with full jitter, delegating the curve shape to
// cenkalti/backoff/v4's ExponentialBackOff and applying our own jitter
// so the randomization is bounded to [0, computed] rather than
// backoff's proportional randomization factor.
func (b *Breaker) CurrentBackoffMs() int64 {
	b.mu.Lock()
	attempt := b.attempt
	b.attempt++
	b.mu.Unlock()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.cfg.BackoffBase
	eb.MaxInterval = b.cfg.BackoffCap
	eb.Multiplier = 2
	eb.RandomizationFactor = 0

	var next time.Duration
	for i := 0; i <= attempt; i++ {
		next = eb.NextBackOff()
	}
	if next > b.cfg.BackoffCap {
		next = b.cfg.BackoffCap
	}

	// Full jitter: uniform random delay in [0, next].
	jittered := time.Duration(rand.Int63n(int64(next) + 1))
	ms := jittered.Milliseconds()
	if b.metrics != nil {
		b.metrics.SetBackoffMs(ms)
	}
	return ms
}

// Reset returns the breaker to Closed with a zeroed failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(Closed)
}

// ClassifyHTTPStatus maps an HTTP status code to a FailureClass per the
// breaker's counted-failure taxonomy.
func ClassifyHTTPStatus(statusCode int) FailureClass {
	switch {
	case statusCode == 429:
		return FailureRateLimited
	case statusCode >= 500:
		return FailureServerError
	case statusCode >= 400:
		return FailureClientError
	default:
		return FailureNone
	}
}
