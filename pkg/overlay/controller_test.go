package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/offlinefoundation/core/pkg/offlineerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	caps      Capabilities
	mu        sync.Mutex
	listeners []func(Transform)
	current   Transform

	layerCalls    []string
	shortcutCalls []string
	resetCalls    int
	sidebarCalls  int
}

func newFakeAdapter(caps Capabilities) *fakeAdapter {
	return &fakeAdapter{caps: caps, current: Identity}
}

func (f *fakeAdapter) Capabilities() Capabilities { return f.caps }

func (f *fakeAdapter) GetTransform() Transform {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeAdapter) Subscribe(listener func(Transform)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, listener)
	idx := len(f.listeners) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners[idx] = nil
	}
}

func (f *fakeAdapter) emit(t Transform) {
	f.mu.Lock()
	f.current = t
	listeners := append([]func(Transform){}, f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l(t)
		}
	}
}

func (f *fakeAdapter) SetActiveLayer(layer string) error {
	f.layerCalls = append(f.layerCalls, layer)
	return nil
}

func (f *fakeAdapter) RegisterShortcut(combo string, fn func()) error {
	f.shortcutCalls = append(f.shortcutCalls, combo)
	return nil
}

func (f *fakeAdapter) ResetView() error {
	f.resetCalls++
	return nil
}

func (f *fakeAdapter) ToggleSidebar() error {
	f.sidebarCalls++
	return nil
}

func TestRegisterPopupWithNoAdapterSetsWorldEqualScreen(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	c.RegisterPopup(PopupDescriptor{ID: "p1", ScreenPosition: Point{X: 10, Y: 20}})

	p, ok := c.GetPopup("p1")
	require.True(t, ok)
	assert.Equal(t, Point{X: 10, Y: 20}, p.WorldPosition)
}

func TestUnregisterAdapterRevertsToIdentityKeepingScreen(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	adapter := newFakeAdapter(Capabilities{Transforms: true})
	c.RegisterAdapter(adapter)
	adapter.emit(Transform{TranslateX: 10, TranslateY: 0, Scale: 2})

	c.RegisterPopup(PopupDescriptor{ID: "p1", ScreenPosition: Point{X: 30, Y: 0}, WorldPosition: Point{X: 10, Y: 0}})

	c.UnregisterAdapter()

	p, ok := c.GetPopup("p1")
	require.True(t, ok)
	assert.Equal(t, Point{X: 30, Y: 0}, p.ScreenPosition)
	assert.Equal(t, Point{X: 30, Y: 0}, p.WorldPosition)
	assert.Equal(t, Identity, c.GetTransform())
}

func TestUpdatePopupPositionDerivesWorldViaInverseTransform(t *testing.T) {
	c := New("tenant-1", Config{DriftTolerancePx: 5}, nil)
	adapter := newFakeAdapter(Capabilities{Transforms: true})
	c.RegisterAdapter(adapter)
	adapter.emit(Transform{TranslateX: 10, TranslateY: 0, Scale: 2})

	c.RegisterPopup(PopupDescriptor{ID: "p1"})
	require.NoError(t, c.UpdatePopupPosition("p1", Point{X: 30, Y: 0}))

	p, ok := c.GetPopup("p1")
	require.True(t, ok)
	assert.InDelta(t, 10, p.WorldPosition.X, 1e-9)
}

func TestUpdatePopupPositionUnknownPopupFails(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	err := c.UpdatePopupPosition("missing", Point{})
	assert.Error(t, err)
}

func TestCapabilityGatedOperationFailsWhenUnsupported(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	adapter := newFakeAdapter(Capabilities{})
	c.RegisterAdapter(adapter)

	err := c.SetActiveLayer("layer-2")
	require.Error(t, err)
	assert.Equal(t, offlineerrors.CodeCapabilityAbsent, offlineerrors.CodeOf(err))
}

func TestCapabilityGatedOperationSucceedsWhenSupported(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	adapter := newFakeAdapter(Capabilities{LayerToggle: true, ResetView: true, ToggleSidebar: true, Shortcuts: true})
	c.RegisterAdapter(adapter)

	require.NoError(t, c.SetActiveLayer("layer-2"))
	require.NoError(t, c.ResetView())
	require.NoError(t, c.ToggleSidebar())
	require.NoError(t, c.RegisterShortcut("ctrl+1", func() {}))

	assert.Equal(t, []string{"layer-2"}, adapter.layerCalls)
	assert.Equal(t, 1, adapter.resetCalls)
	assert.Equal(t, 1, adapter.sidebarCalls)
}

func TestOperationWithNoAdapterFailsWithCapabilityAbsent(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	err := c.ResetView()
	require.Error(t, err)
	assert.Equal(t, offlineerrors.CodeCapabilityAbsent, offlineerrors.CodeOf(err))
}

func TestReconciliationCorrectsDriftBeyondTolerance(t *testing.T) {
	c := New("tenant-1", Config{DriftTolerancePx: 1}, nil)
	adapter := newFakeAdapter(Capabilities{Transforms: true})
	c.RegisterAdapter(adapter)

	c.RegisterPopup(PopupDescriptor{ID: "p1", ScreenPosition: Point{X: 0, Y: 0}, WorldPosition: Point{X: 0, Y: 0}})

	adapter.emit(Transform{TranslateX: 100, TranslateY: 0, Scale: 1})

	p, ok := c.GetPopup("p1")
	require.True(t, ok)
	assert.InDelta(t, -100, p.WorldPosition.X, 1e-9)
}

func TestRapidTransformUpdatesCoalesceWithoutPanicking(t *testing.T) {
	c := New("tenant-1", Config{}, nil)
	adapter := newFakeAdapter(Capabilities{Transforms: true})
	c.RegisterAdapter(adapter)

	for i := 0; i < 50; i++ {
		adapter.emit(Transform{TranslateX: float64(i), TranslateY: 0, Scale: 1})
	}

	time.Sleep(10 * time.Millisecond)
	assert.False(t, c.reconciling.Load())
}
