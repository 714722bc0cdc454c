package replayqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/internal/telemetry"
	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence contract the Queue depends on. Defined here
// (rather than importing pkg/replayqueue/store) to avoid an import cycle,
// since store.Store's methods already operate on this package's Operation
// type; store.BadgerStore and store.NullStore both satisfy it.
type Store interface {
	Put(op *Operation) error
	Get(id string) (*Operation, bool, error)
	Delete(id string) error
	ListByStatus(status Status) ([]*Operation, error)
	ListPending(authScope string) ([]*Operation, error)
	Close() error
}

// Sender performs the actual outbound HTTP replay of an Operation.
// Implementations live outside this package (the browser-side runtime's
// HTTP client in the original system); this interface is what Drain
// depends on so it can be tested with a fake.
type Sender interface {
	Send(ctx context.Context, op *Operation) (statusCode int, err error)
}

// Invalidator is notified of the canonical URL of every operation that
// replays successfully, so the cache manager can drop any cached response
// for the same resource. Optional: a Queue with no Invalidator simply
// skips the notification.
type Invalidator interface {
	InvalidateURL(authScope, canonicalURL string)
}

// Config configures a Queue's drain behavior.
type Config struct {
	MaxBatch            int
	MaxAttempts         int
	MaxConcurrentScopes int
}

// Queue is the write replay queue. Enqueue is synchronous and never
// rejects an operation due to connectivity; Drain performs the bounded,
// per-scope-serial replay pass.
type Queue struct {
	store       Store
	breaker     *breaker.Breaker
	sender      Sender
	cfg         Config
	invalidator Invalidator
	metrics     metrics.QueueMetrics
}

// New constructs a Queue. m may be nil, in which case metric collection is
// skipped.
func New(store Store, b *breaker.Breaker, sender Sender, cfg Config, m metrics.QueueMetrics) *Queue {
	return &Queue{store: store, breaker: b, sender: sender, cfg: cfg, metrics: m}
}

// SetInvalidator wires a cache invalidator to be notified on every
// successful replay, so stale cached reads for the same resource are
// dropped. Called once during startup wiring.
func (q *Queue) SetInvalidator(inv Invalidator) {
	q.invalidator = inv
}

// Enqueue persists a new operation in Pending status, ready for the next
// Drain. It never blocks on or requires connectivity.
func (q *Queue) Enqueue(ctx context.Context, authScope, method, url, body string, headers map[string]string) (*Operation, error) {
	ctx, span := telemetry.StartQueueSpan(ctx, telemetry.SpanQueueEnqueue, "")
	defer span.End()

	op := &Operation{
		ID:             uuid.NewString(),
		AuthScope:      authScope,
		Method:         method,
		URL:            url,
		Headers:        headers,
		Body:           body,
		IdempotencyKey: uuid.NewString(),
		Status:         StatusPending,
		EnqueuedAt:     time.Now(),
		NextAttemptAt:  time.Now(),
	}

	if err := q.store.Put(op); err != nil {
		logger.ErrorCtx(ctx, "failed to enqueue operation", logger.Component("replayqueue"), logger.Err(err))
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "enqueue failed", err)
	}

	logger.InfoCtx(ctx, "operation enqueued",
		logger.Component("replayqueue"), logger.OperationID(op.ID), logger.AuthScope(authScope), logger.Method(method))
	return op, nil
}

// List returns operations in the given status, or all statuses if empty.
func (q *Queue) List(status Status) ([]*Operation, error) {
	if status == "" {
		var all []*Operation
		for _, s := range []Status{StatusPending, StatusInFlight, StatusConflict, StatusDeadLetter, StatusDone} {
			ops, err := q.store.ListByStatus(s)
			if err != nil {
				return nil, err
			}
			all = append(all, ops...)
		}
		return all, nil
	}
	return q.store.ListByStatus(status)
}

// Stats summarizes queue depth by status, used by the /queue/stats endpoint.
type Stats struct {
	Counts map[Status]int `json:"counts"`
}

// Stats computes operation counts per status.
func (q *Queue) Stats() (Stats, error) {
	counts := map[Status]int{}
	for _, s := range []Status{StatusPending, StatusInFlight, StatusConflict, StatusDeadLetter, StatusDone} {
		ops, err := q.store.ListByStatus(s)
		if err != nil {
			return Stats{}, err
		}
		counts[s] = len(ops)
		if q.metrics != nil {
			q.metrics.SetDepth(string(s), len(ops))
		}
	}
	return Stats{Counts: counts}, nil
}

// Requeue resets a conflict or dead-lettered operation back to Pending for
// immediate retry, used by the operator-facing requeue action.
func (q *Queue) Requeue(id string) error {
	op, found, err := q.store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return offlineerrors.New(offlineerrors.CodeClientFatal, "operation not found: "+id)
	}

	op.Status = StatusPending
	op.NextAttemptAt = time.Now()
	op.Attempts = 0
	op.LastError = ""
	return q.store.Put(op)
}

// Discard removes an operation from the queue permanently, used by the
// operator to abandon an operation that should never be replayed.
func (q *Queue) Discard(id string) error {
	return q.store.Delete(id)
}

// Get fetches a single operation by id, used by the conflict engine's
// resender to reconstruct the forced request from a conflicted operation.
func (q *Queue) Get(id string) (*Operation, bool, error) {
	return q.store.Get(id)
}

// MarkDone marks an operation Done outside the normal Drain path, used
// after a conflict resolution forces a resend directly.
func (q *Queue) MarkDone(id string) error {
	op, found, err := q.store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return offlineerrors.New(offlineerrors.CodeClientFatal, "operation not found: "+id)
	}
	op.Status = StatusDone
	return q.store.Put(op)
}

// Drain implements the replay pass: for each authScope with pending
// operations, replay up to MaxBatch entries strictly in (nextAttemptAt,
// enqueuedAt) order, one at a time, stopping the scope's drain as soon as
// the breaker opens or an attempt is not yet due. Scopes drain
// concurrently, bounded by MaxConcurrentScopes.
func (q *Queue) Drain(ctx context.Context) (drained int, err error) {
	ctx, span := telemetry.StartQueueSpan(ctx, telemetry.SpanQueueDrain, "")
	defer span.End()

	start := time.Now()

	if !q.breaker.Allow() {
		logger.DebugCtx(ctx, "drain skipped: circuit breaker open", logger.Component("replayqueue"))
		return 0, nil
	}

	scopes, err := q.pendingScopes()
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.cfg.MaxConcurrentScopes)

	var total int
	for _, scope := range scopes {
		scope := scope
		g.Go(func() error {
			n, err := q.drainScope(gctx, scope)
			total += n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return total, err
	}

	if q.metrics != nil {
		q.metrics.ObserveDrain(len(scopes), time.Since(start))
	}
	return total, nil
}

// pendingScopes discovers the distinct authScopes with at least one
// pending operation by scanning the Pending status list once.
func (q *Queue) pendingScopes() ([]string, error) {
	ops, err := q.store.ListByStatus(StatusPending)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var scopes []string
	for _, op := range ops {
		if !seen[op.AuthScope] {
			seen[op.AuthScope] = true
			scopes = append(scopes, op.AuthScope)
		}
	}
	return scopes, nil
}

// drainScope replays one authScope's pending operations strictly
// sequentially, honoring per-operation NextAttemptAt and stopping early if
// the breaker trips mid-scope.
func (q *Queue) drainScope(ctx context.Context, authScope string) (int, error) {
	ops, err := q.store.ListPending(authScope)
	if err != nil {
		return 0, err
	}

	drained := 0
	now := time.Now()
	for i, op := range ops {
		if i >= q.cfg.MaxBatch {
			break
		}
		if op.NextAttemptAt.After(now) {
			break
		}
		if !q.breaker.Allow() {
			break
		}

		if err := q.replayOne(ctx, op); err != nil {
			return drained, err
		}
		drained++
	}
	return drained, nil
}

// replayOne sends a single operation and records the outcome against the
// operation record and the circuit breaker.
func (q *Queue) replayOne(ctx context.Context, op *Operation) error {
	ctx, span := telemetry.StartQueueSpan(ctx, telemetry.SpanQueueReplay, op.ID, telemetry.Attempts(op.Attempts))
	defer span.End()

	op.Status = StatusInFlight
	_ = q.store.Put(op)

	statusCode, sendErr := q.sender.Send(ctx, op)

	if sendErr == nil && statusCode >= 200 && statusCode < 300 {
		q.breaker.RecordSuccess()
		op.Status = StatusDone
		logger.InfoCtx(ctx, "operation replayed", logger.Component("replayqueue"), logger.OperationID(op.ID), logger.StatusCode(statusCode))
		if q.invalidator != nil {
			q.invalidator.InvalidateURL(op.AuthScope, op.URL)
		}
		if q.metrics != nil {
			q.metrics.RecordReplay("done")
		}
		return q.store.Put(op)
	}

	if statusCode == 409 || statusCode == 412 {
		op.Status = StatusConflict
		op.LastError = "version conflict"
		logger.InfoCtx(ctx, "operation requires conflict resolution", logger.Component("replayqueue"), logger.OperationID(op.ID))
		if q.metrics != nil {
			q.metrics.RecordReplay("conflict")
		}
		return q.store.Put(op)
	}

	class := breaker.ClassifyHTTPStatus(statusCode)
	if sendErr != nil {
		class = breaker.FailureNetwork
	}
	q.breaker.RecordFailure(class)

	if !class.Counts() && sendErr == nil {
		// Non-retryable client error (400, 401, 403, 404, 422).
		op.Status = StatusDeadLetter
		op.LastError = "client error"
		logger.WarnCtx(ctx, "operation moved to dead letter", logger.Component("replayqueue"), logger.OperationID(op.ID), logger.StatusCode(statusCode))
		if q.metrics != nil {
			q.metrics.RecordReplay("dead_letter")
		}
		return q.store.Put(op)
	}

	op.Attempts++
	if sendErr != nil {
		op.LastError = sendErr.Error()
	} else {
		op.LastError = "server error"
	}

	if op.Attempts >= q.cfg.MaxAttempts {
		op.Status = StatusDeadLetter
		logger.WarnCtx(ctx, "operation exhausted retries", logger.Component("replayqueue"), logger.OperationID(op.ID), logger.Attempts(op.Attempts))
		if q.metrics != nil {
			q.metrics.RecordReplay("dead_letter")
		}
		return q.store.Put(op)
	}

	backoffMs := q.breaker.CurrentBackoffMs()
	op.Status = StatusPending
	op.NextAttemptAt = time.Now().Add(time.Duration(backoffMs) * time.Millisecond)
	if q.metrics != nil {
		q.metrics.RecordReplay("retry")
	}
	return q.store.Put(op)
}

// FailureClass is re-exported for callers classifying their own HTTP
// responses before calling replayOne's equivalent logic elsewhere.
type FailureClass = breaker.FailureClass
