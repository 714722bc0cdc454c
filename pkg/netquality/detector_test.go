package netquality

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{
		ProbeURL:         url,
		ProbeTimeout:     500 * time.Millisecond,
		GoodInterval:     10 * time.Second,
		DegradedInterval: 3 * time.Second,
		OfflineInterval:  2 * time.Second,
		JitterFraction:   0.2,
		WindowSize:       16,
		EWMAAlpha:        0.3,
		ThreshFail:       0.3,
		ThreshOffline:    0.8,
	}
}

func TestProbeRecordsSuccessSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(testConfig(srv.URL)).(*httpDetector)
	sample := d.Probe(context.Background())

	assert.True(t, sample.OK)
	require.NotNil(t, sample.RTTMs)
	assert.Equal(t, Good, d.CurrentQuality())
}

func TestProbeRecordsFailureOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(testConfig(srv.URL)).(*httpDetector)
	sample := d.Probe(context.Background())

	assert.False(t, sample.OK)
}

func TestProbeNeverErrorsOnUnreachableHost(t *testing.T) {
	d := New(testConfig("http://127.0.0.1:1")).(*httpDetector)

	require.NotPanics(t, func() {
		sample := d.Probe(context.Background())
		assert.False(t, sample.OK)
		assert.Nil(t, sample.RTTMs)
	})
}

func TestClassifyAllGood(t *testing.T) {
	window := []Sample{{OK: true}, {OK: true}, {OK: true}}
	assert.Equal(t, Good, classify(window, 0.3, 0.8))
}

func TestClassifyAllFailedIsOffline(t *testing.T) {
	window := []Sample{{OK: false}, {OK: false}}
	assert.Equal(t, Offline, classify(window, 0.3, 0.8))
}

func TestClassifyMixedIsDegraded(t *testing.T) {
	window := []Sample{{OK: true}, {OK: false}, {OK: true}}
	assert.Equal(t, Degraded, classify(window, 0.3, 0.8))
}

func TestClassifyMostlyFailedIsOffline(t *testing.T) {
	window := make([]Sample, 16)
	for i := range window {
		window[i] = Sample{OK: i >= 15}
	}
	assert.Equal(t, Offline, classify(window, 0.3, 0.8))
}

func TestSubscribeFiresOnTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(testConfig(srv.URL)).(*httpDetector)

	received := make(chan Quality, 4)
	unsubscribe := d.Subscribe(func(q Quality) { received <- q })
	defer unsubscribe()

	d.Probe(context.Background())

	select {
	case q := <-received:
		assert.Equal(t, Offline, q)
	case <-time.After(time.Second):
		t.Fatal("expected a quality transition notification")
	}
}

func TestWindowTrimsToConfiguredSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.WindowSize = 3
	d := New(cfg).(*httpDetector)

	for i := 0; i < 5; i++ {
		d.Probe(context.Background())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Len(t, d.window, 3)
}
