package conflict

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/internal/telemetry"
	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/conflict/merge"
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
)

// Store is the persistence contract the Manager depends on.
type Store interface {
	Put(rec *ConflictRecord) error
	Get(id string) (*ConflictRecord, bool, error)
	ListByStatus(status Status) ([]*ConflictRecord, error)
	Delete(id string) error
	Close() error
}

// Resender re-sends an operation's value with a force indicator, used by
// keep_mine and force_save.
type Resender interface {
	ResendForced(ctx context.Context, operationID string, value json.RawMessage) error
}

// Completer marks an operation done without re-sending it, used by
// use_theirs to release the underlying operation from conflict status.
type Completer interface {
	Done(operationID string) error
}

// Invalidator is notified of affected keys on successful resolution, so
// the cache manager can drop stale reads.
type Invalidator interface {
	InvalidateURL(authScope, canonicalURL string)
}

// Config configures conflict timeout escalation.
type Config struct {
	Timeout     time.Duration
	MaxTimeouts int
}

// Manager mediates write-write conflicts surfaced by the replay queue.
type Manager struct {
	store       Store
	merger      merge.Merger
	breaker     *breaker.Breaker
	resender    Resender
	completer   Completer
	invalidator Invalidator
	cfg         Config
	metrics     metrics.ConflictMetrics
}

// New constructs a Manager. merger may be nil to disable the merge action
// entirely (MergeAvailable is always false). m may be nil, in which case
// metric collection is skipped.
func New(store Store, merger merge.Merger, b *breaker.Breaker, resender Resender, completer Completer, invalidator Invalidator, cfg Config, m metrics.ConflictMetrics) *Manager {
	return &Manager{store: store, merger: merger, breaker: b, resender: resender, completer: completer, invalidator: invalidator, cfg: cfg, metrics: m}
}

// Open records a new conflict awaiting user decision. mergeAvailable is
// computed eagerly so the API surface can advertise it without attempting
// the merge twice.
func (m *Manager) Open(ctx context.Context, operationID, authScope, canonicalURL string, base, mine, theirs json.RawMessage) (*ConflictRecord, error) {
	ctx, span := telemetry.StartConflictSpan(ctx, telemetry.SpanConflictDetect, "")
	defer span.End()

	mergeAvailable := false
	if m.merger != nil {
		_, ok := m.merger.Merge(base, mine, theirs)
		mergeAvailable = ok
	}

	rec := &ConflictRecord{
		ID:             uuid.NewString(),
		OperationID:    operationID,
		AuthScope:      authScope,
		CanonicalURL:   canonicalURL,
		Base:           base,
		Mine:           mine,
		Theirs:         theirs,
		Status:         StatusAwaitingUser,
		MergeAvailable: mergeAvailable,
		CreatedAt:      time.Now(),
		DeadlineAt:     time.Now().Add(m.cfg.Timeout),
	}

	if err := m.store.Put(rec); err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to persist conflict record", err)
	}

	if m.metrics != nil {
		m.metrics.RecordOpened()
	}

	logger.InfoCtx(ctx, "conflict opened", logger.Component("conflict"), logger.ConflictID(rec.ID), logger.AuthScope(authScope))
	return rec, nil
}

// Resolve applies one of the four resolution actions.
func (m *Manager) Resolve(ctx context.Context, id string, action Action) error {
	ctx, span := telemetry.StartConflictSpan(ctx, telemetry.SpanConflictResolve, id, telemetry.Choice(string(action)))
	defer span.End()

	rec, found, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return offlineerrors.New(offlineerrors.CodeClientFatal, "conflict not found: "+id)
	}

	rec.Status = StatusResolving
	if err := m.store.Put(rec); err != nil {
		return err
	}

	switch action {
	case ActionKeepMine, ActionForceSave:
		if err := m.resender.ResendForced(ctx, rec.OperationID, rec.Mine); err != nil {
			rec.Status = StatusAwaitingUser
			_ = m.store.Put(rec)
			return err
		}
	case ActionUseTheirs:
		// no re-send; mark the underlying operation done directly so it
		// leaves conflict status without resubmitting mine.
		if err := m.completer.Done(rec.OperationID); err != nil {
			rec.Status = StatusAwaitingUser
			_ = m.store.Put(rec)
			return err
		}
	case ActionMerge:
		if !rec.MergeAvailable || m.merger == nil {
			return offlineerrors.New(offlineerrors.CodeClientFatal, "merge is not available for conflict "+id)
		}
		merged, ok := m.merger.Merge(rec.Base, rec.Mine, rec.Theirs)
		if !ok {
			return offlineerrors.New(offlineerrors.CodeClientFatal, "merge could not be computed for conflict "+id)
		}
		if err := m.resender.ResendForced(ctx, rec.OperationID, merged); err != nil {
			rec.Status = StatusAwaitingUser
			_ = m.store.Put(rec)
			return err
		}
	default:
		return offlineerrors.New(offlineerrors.CodeClientFatal, "unknown resolution action: "+string(action))
	}

	rec.Status = StatusResolved
	rec.ResolvedAction = action
	rec.ResolvedAt = time.Now()
	if err := m.store.Put(rec); err != nil {
		return err
	}

	if m.invalidator != nil {
		m.invalidator.InvalidateURL(rec.AuthScope, rec.CanonicalURL)
	}

	if m.metrics != nil {
		m.metrics.RecordResolved(string(action))
	}

	logger.InfoCtx(ctx, "conflict resolved", logger.Component("conflict"), logger.ConflictID(id), logger.Choice(string(action)))
	return nil
}

// List returns conflicts in the given status.
func (m *Manager) List(status Status) ([]*ConflictRecord, error) {
	return m.store.ListByStatus(status)
}

// SweepTimeouts reverts awaiting_user conflicts past their deadline to
// pending with an escalated backoff delay, demoting repeat timeouts to
// dead_letter. The Manager does not schedule it; each call performs one
// sweep.
func (m *Manager) SweepTimeouts(ctx context.Context) (int, error) {
	awaiting, err := m.store.ListByStatus(StatusAwaitingUser)
	if err != nil {
		return 0, err
	}

	swept := 0
	now := time.Now()
	for _, rec := range awaiting {
		if rec.DeadlineAt.After(now) {
			continue
		}

		rec.TimeoutCount++
		if rec.TimeoutCount >= m.cfg.MaxTimeouts {
			rec.Status = StatusDeadLetter
			if m.metrics != nil {
				m.metrics.RecordAbandoned()
			}
			logger.WarnCtx(ctx, "conflict dead-lettered after repeated timeouts",
				logger.Component("conflict"), logger.ConflictID(rec.ID), logger.Attempts(rec.TimeoutCount))
		} else {
			backoffMs := m.breaker.CurrentBackoffMs()
			rec.Status = StatusPending
			rec.DeadlineAt = now.Add(m.cfg.Timeout + time.Duration(backoffMs)*time.Millisecond)
			if m.metrics != nil {
				m.metrics.RecordTimeout()
			}
			logger.InfoCtx(ctx, "conflict reverted to pending after timeout",
				logger.Component("conflict"), logger.ConflictID(rec.ID), logger.BackoffMs(backoffMs))
		}

		if err := m.store.Put(rec); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}
