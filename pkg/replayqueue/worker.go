package replayqueue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/netquality"
)

// Worker drives Queue.Drain from three trigger sources: network quality or
// breaker state transitions, an explicit "Sync Now" request, and a
// periodic ticker. Triggers coalesce so at most one drain runs at a time;
// a trigger that arrives mid-drain schedules exactly one more pass rather
// than stacking up.
type Worker struct {
	queue        *Queue
	tickInterval time.Duration

	trigger  chan struct{}
	draining atomic.Bool
	pending  atomic.Bool

	cancel context.CancelFunc
}

// NewWorker constructs a Worker for queue, ticking at tickInterval.
func NewWorker(queue *Queue, tickInterval time.Duration) *Worker {
	return &Worker{
		queue:        queue,
		tickInterval: tickInterval,
		trigger:      make(chan struct{}, 1),
	}
}

// Start begins the worker's trigger loop in a background goroutine.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.loop(ctx)
}

// Stop ends the worker's trigger loop.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// SyncNow requests an immediate drain pass. Safe to call from any
// goroutine, including breaker/detector listener callbacks.
func (w *Worker) SyncNow() {
	select {
	case w.trigger <- struct{}{}:
	default:
		// a drain is already queued; coalesce.
	}
}

// OnQualityChange is suitable for registration via netquality.Detector.Subscribe.
func (w *Worker) OnQualityChange(quality netquality.Quality) {
	if quality != netquality.Offline {
		w.SyncNow()
	}
}

// OnBreakerChange is suitable for registration via breaker.Breaker.Subscribe.
func (w *Worker) OnBreakerChange(state breaker.State) {
	if state != breaker.Open {
		w.SyncNow()
	}
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runDrain(ctx)
		case <-w.trigger:
			w.runDrain(ctx)
		}
	}
}

// runDrain executes a single drain pass, coalescing concurrent triggers
// into at most one additional pass immediately following the current one.
func (w *Worker) runDrain(ctx context.Context) {
	if !w.draining.CompareAndSwap(false, true) {
		w.pending.Store(true)
		return
	}
	defer w.draining.Store(false)

	for {
		n, err := w.queue.Drain(ctx)
		if err != nil {
			logger.ErrorCtx(ctx, "drain pass failed", logger.Component("replayqueue"), logger.Err(err))
		} else if n > 0 {
			logger.InfoCtx(ctx, "drain pass completed", logger.Component("replayqueue"), logger.BatchSize(n))
		}

		if !w.pending.CompareAndSwap(true, false) {
			return
		}
	}
}
