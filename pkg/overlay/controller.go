package overlay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/internal/telemetry"
	"github.com/offlinefoundation/core/pkg/events"
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
)

// Config configures a Controller.
type Config struct {
	// DriftTolerancePx is the maximum allowed distance between a popup's
	// observed screen position and the screen position its world
	// position would produce under the current transform.
	DriftTolerancePx float64
}

// Controller owns the popup map and the active adapter exclusively.
// External code never mutates a PopupDescriptor directly: every accessor
// returns a copy. Transform updates from an adapter are serialised — a
// transform in flight completes reconciliation before the next begins —
// and coalesced under load via the same single-in-flight-plus-one-more
// pattern the replay worker uses to drain triggers.
type Controller struct {
	authScope string
	cfg       Config

	mu      sync.Mutex
	adapter Adapter
	unsub   func()
	popups  map[string]*PopupDescriptor
	current Transform

	reconciling atomic.Bool
	pending     atomic.Bool
	metrics     metrics.OverlayMetrics
}

// New constructs a Controller with no adapter registered (identity
// transform) and an empty popup set. m may be nil, in which case metric
// collection is skipped.
func New(authScope string, cfg Config, m metrics.OverlayMetrics) *Controller {
	if cfg.DriftTolerancePx <= 0 {
		cfg.DriftTolerancePx = DefaultDriftTolerancePx
	}
	return &Controller{
		authScope: authScope,
		cfg:       cfg,
		popups:    make(map[string]*PopupDescriptor),
		current:   Identity,
		metrics:   m,
	}
}

// RegisterAdapter installs an adapter, atomically replacing and
// unsubscribing from any prior one, then performs an initial transform
// read and reconciliation pass.
func (c *Controller) RegisterAdapter(adapter Adapter) {
	c.mu.Lock()
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	c.adapter = adapter
	c.unsub = adapter.Subscribe(c.onTransform)
	initial := adapter.GetTransform()
	c.mu.Unlock()

	c.onTransform(initial)
}

// UnregisterAdapter reverts to the identity transform. Popups keep their
// screen positions; their world positions become equal to screen, per the
// round-trip law: no adapter means world and screen coincide.
func (c *Controller) UnregisterAdapter() {
	c.mu.Lock()
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	c.adapter = nil
	c.mu.Unlock()

	c.onTransform(Identity)
}

// GetTransform returns the current transform, or Identity if no adapter
// is registered.
func (c *Controller) GetTransform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// RegisterPopup adds a popup to the registry. If no adapter is registered,
// worldPosition is set equal to screenPosition.
func (c *Controller) RegisterPopup(desc PopupDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adapter == nil {
		desc.WorldPosition = desc.ScreenPosition
	}
	clone := desc
	c.popups[desc.ID] = &clone
}

// UnregisterPopup removes a popup from the registry.
func (c *Controller) UnregisterPopup(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.popups, id)
}

// GetPopup returns a copy of a popup's current descriptor.
func (c *Controller) GetPopup(id string) (PopupDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.popups[id]
	if !ok {
		return PopupDescriptor{}, false
	}
	return *p, true
}

// ListPopups returns copies of every registered popup.
func (c *Controller) ListPopups() []PopupDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PopupDescriptor, 0, len(c.popups))
	for _, p := range c.popups {
		out = append(out, *p)
	}
	return out
}

// UpdatePopupPosition sets a popup's screen position, the authoritative
// source of truth. World position is derived via the inverse transform
// when an adapter is registered; drift beyond the configured tolerance
// logs a correction event and recomputes world from screen directly.
func (c *Controller) UpdatePopupPosition(id string, screen Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.popups[id]
	if !ok {
		return offlineerrors.New(offlineerrors.CodeClientFatal, "popup not registered: "+id)
	}

	p.ScreenPosition = screen
	if c.adapter == nil {
		p.WorldPosition = screen
		return nil
	}

	world := ToWorld(c.current, screen)
	if !WithinTolerance(c.current, screen, p.WorldPosition, c.cfg.DriftTolerancePx) {
		drift := Drift(c.current, screen, p.WorldPosition)
		events.Publish(events.Event{
			Kind:      "overlay.drift_correction",
			Timestamp: time.Now(),
			Fields:    map[string]any{"popup_id": id, "auth_scope": c.authScope, "drift_px": drift},
		})
		if c.metrics != nil {
			c.metrics.RecordDriftCorrection(c.authScope)
		}
		logger.WarnCtx(context.Background(), "popup drift correction applied",
			logger.Component("overlay"), logger.PopupID(id), logger.AuthScope(c.authScope), logger.DriftPx(drift))
	}
	p.WorldPosition = world
	return nil
}

// SetActiveLayer is gated on Capabilities().LayerToggle.
func (c *Controller) SetActiveLayer(layer string) error {
	return c.withCapability(func(caps Capabilities) bool { return caps.LayerToggle }, func() error {
		return c.adapter.SetActiveLayer(layer)
	})
}

// RegisterShortcut is gated on Capabilities().Shortcuts.
func (c *Controller) RegisterShortcut(combo string, fn func()) error {
	return c.withCapability(func(caps Capabilities) bool { return caps.Shortcuts }, func() error {
		return c.adapter.RegisterShortcut(combo, fn)
	})
}

// ResetView is gated on Capabilities().ResetView.
func (c *Controller) ResetView() error {
	return c.withCapability(func(caps Capabilities) bool { return caps.ResetView }, func() error {
		return c.adapter.ResetView()
	})
}

// ToggleSidebar is gated on Capabilities().ToggleSidebar.
func (c *Controller) ToggleSidebar() error {
	return c.withCapability(func(caps Capabilities) bool { return caps.ToggleSidebar }, func() error {
		return c.adapter.ToggleSidebar()
	})
}

func (c *Controller) withCapability(has func(Capabilities) bool, call func() error) error {
	c.mu.Lock()
	adapter := c.adapter
	c.mu.Unlock()

	if adapter == nil || !has(adapter.Capabilities()) {
		return offlineerrors.New(offlineerrors.CodeCapabilityAbsent, "overlay adapter does not support this operation")
	}
	return call()
}

// onTransform is the adapter's transform callback. Reconciliation passes
// are serialised: if one is already running, the new transform is
// recorded and the running pass re-runs once more against the latest
// transform before settling, the same coalescing shape
// pkg/replayqueue.Worker uses for drain triggers.
func (c *Controller) onTransform(t Transform) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()

	if !c.reconciling.CompareAndSwap(false, true) {
		c.pending.Store(true)
		return
	}

	for {
		c.reconcile()
		if !c.pending.CompareAndSwap(true, false) {
			break
		}
	}
	c.reconciling.Store(false)
}

func (c *Controller) reconcile() {
	ctx, span := telemetry.StartOverlaySpan(context.Background(), c.authScope)
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, p := range c.popups {
		if c.adapter == nil {
			p.WorldPosition = p.ScreenPosition
			continue
		}
		drift := Drift(c.current, p.ScreenPosition, p.WorldPosition)
		if drift > c.cfg.DriftTolerancePx {
			events.Publish(events.Event{
				Kind:      "overlay.drift_correction",
				Timestamp: time.Now(),
				Fields:    map[string]any{"popup_id": id, "auth_scope": c.authScope, "drift_px": drift},
			})
			if c.metrics != nil {
				c.metrics.RecordDriftCorrection(c.authScope)
			}
			logger.WarnCtx(ctx, "reconciliation drift correction",
				logger.Component("overlay"), logger.PopupID(id), logger.DriftPx(drift))
			p.WorldPosition = ToWorld(c.current, p.ScreenPosition)
		}
	}
}
