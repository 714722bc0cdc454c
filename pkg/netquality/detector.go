// Package netquality implements the network quality detector: a background
// prober that classifies outbound connectivity as good, degraded, or
// offline by polling a configured health endpoint on an adaptive interval.
package netquality

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/internal/telemetry"
)

// Quality classifies the current state of outbound connectivity.
type Quality int

const (
	Good Quality = iota
	Degraded
	Offline
)

func (q Quality) String() string {
	switch q {
	case Good:
		return "good"
	case Degraded:
		return "degraded"
	default:
		return "offline"
	}
}

// Sample is a single probe result. Probing never panics or returns an
// error to the caller — failures are folded into OK: false.
type Sample struct {
	Timestamp time.Time
	RTTMs     *float64
	OK        bool
}

// Detector is the network quality detector's public contract.
type Detector interface {
	Probe(ctx context.Context) Sample
	CurrentQuality() Quality
	Subscribe(listener func(Quality)) (unsubscribe func())
	Start(ctx context.Context)
	Stop()
}

// Config configures an httpDetector.
type Config struct {
	ProbeURL         string
	ProbeTimeout     time.Duration
	GoodInterval     time.Duration
	DegradedInterval time.Duration
	OfflineInterval  time.Duration
	JitterFraction   float64
	WindowSize       int
	EWMAAlpha        float64

	// ThreshFail is the fraction of the window that must have failed to
	// classify Degraded; ThreshOffline is the fraction for Offline.
	ThreshFail    float64
	ThreshOffline float64
}

// httpDetector polls ProbeURL with HEAD requests on an adaptive
// interval and classifies quality from a rolling window of samples.
// Grounded on the timeout-guarded health check pattern (context.WithTimeout
// plus latency measurement) generalized into a recurring poller.
type httpDetector struct {
	cfg    Config
	client *http.Client

	mu          sync.Mutex
	window      []Sample
	rttEWMA     float64
	rttEWMASet  bool
	quality     Quality
	listeners   []func(Quality)
	stopCh      chan struct{}
	stoppedOnce sync.Once
}

// New constructs a Detector with the given configuration.
func New(cfg Config) Detector {
	return &httpDetector{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.ProbeTimeout,
		},
		quality: Good,
		stopCh:  make(chan struct{}),
	}
}

// Probe performs a single probe and folds the result into the rolling
// window, recomputing quality and notifying listeners on transition.
// It never returns an error or panics: network failures, timeouts, and
// 5xx status codes are all recorded as Sample{OK: false}.
func (d *httpDetector) Probe(ctx context.Context) Sample {
	ctx, span := telemetry.StartDetectorSpan(ctx)
	defer span.End()

	probeCtx, cancel := context.WithTimeout(ctx, d.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, d.cfg.ProbeURL, nil)
	if err != nil {
		return d.record(Sample{Timestamp: start, OK: false})
	}

	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.DebugCtx(ctx, "network probe failed", logger.Component("netquality"), logger.Err(err))
		return d.record(Sample{Timestamp: start, OK: false})
	}
	defer resp.Body.Close()

	rttMs := float64(elapsed.Microseconds()) / 1000.0
	ok := resp.StatusCode < 500
	sample := Sample{Timestamp: start, RTTMs: &rttMs, OK: ok}
	return d.record(sample)
}

// record appends sample to the rolling window, updates the RTT EWMA,
// reclassifies quality, and fires listeners if quality changed.
func (d *httpDetector) record(sample Sample) Sample {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.window = append(d.window, sample)
	if len(d.window) > d.cfg.WindowSize {
		d.window = d.window[len(d.window)-d.cfg.WindowSize:]
	}

	if sample.OK && sample.RTTMs != nil {
		if !d.rttEWMASet {
			d.rttEWMA = *sample.RTTMs
			d.rttEWMASet = true
		} else {
			alpha := d.cfg.EWMAAlpha
			d.rttEWMA = alpha*(*sample.RTTMs) + (1-alpha)*d.rttEWMA
		}
	}

	newQuality := classify(d.window, d.cfg.ThreshFail, d.cfg.ThreshOffline)
	if newQuality != d.quality {
		d.quality = newQuality
		listeners := append([]func(Quality){}, d.listeners...)
		go notifyAll(listeners, newQuality)
	}

	return sample
}

func notifyAll(listeners []func(Quality), q Quality) {
	for _, l := range listeners {
		l(q)
	}
}

// classify derives a Quality from the rolling window: if at least
// threshOffline of the window failed, Offline; else if at least threshFail
// failed, Degraded; else Good.
func classify(window []Sample, threshFail, threshOffline float64) Quality {
	if len(window) == 0 {
		return Good
	}

	failures := 0
	for _, s := range window {
		if !s.OK {
			failures++
		}
	}

	failRate := float64(failures) / float64(len(window))
	if failRate >= threshOffline {
		return Offline
	}
	if failRate >= threshFail {
		return Degraded
	}
	return Good
}

// CurrentQuality returns the most recently computed classification.
func (d *httpDetector) CurrentQuality() Quality {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quality
}

// Subscribe registers a listener invoked on every quality transition.
// The returned function removes the listener; it is safe to call once.
func (d *httpDetector) Subscribe(listener func(Quality)) func() {
	d.mu.Lock()
	d.listeners = append(d.listeners, listener)
	idx := len(d.listeners) - 1
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if idx < len(d.listeners) {
				d.listeners[idx] = func(Quality) {}
			}
		})
	}
}

// Start begins the adaptive probe loop in a background goroutine. It
// returns immediately; call Stop to terminate the loop.
func (d *httpDetector) Start(ctx context.Context) {
	go d.loop(ctx)
}

// Stop terminates the probe loop. Safe to call multiple times.
func (d *httpDetector) Stop() {
	d.stoppedOnce.Do(func() {
		close(d.stopCh)
	})
}

func (d *httpDetector) loop(ctx context.Context) {
	for {
		d.Probe(ctx)

		interval := d.nextInterval()
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-d.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// nextInterval picks the base interval for the current quality and
// applies +/- JitterFraction jitter so probes from many clients don't
// synchronize against the same server.
func (d *httpDetector) nextInterval() time.Duration {
	base := d.intervalFor(d.CurrentQuality())
	if d.cfg.JitterFraction <= 0 {
		return base
	}

	jitter := 1 + (rand.Float64()*2-1)*d.cfg.JitterFraction
	return time.Duration(float64(base) * jitter)
}

func (d *httpDetector) intervalFor(q Quality) time.Duration {
	switch q {
	case Good:
		return d.cfg.GoodInterval
	case Degraded:
		return d.cfg.DegradedInterval
	default:
		return d.cfg.OfflineInterval
	}
}
