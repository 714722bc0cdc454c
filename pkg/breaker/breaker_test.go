package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		OpenThreshold:  3,
		OpenCooldown:   50 * time.Millisecond,
		CloseSuccesses: 2,
		BackoffBase:    10 * time.Millisecond,
		BackoffCap:     100 * time.Millisecond,
	}
}

func TestStartsClosed(t *testing.T) {
	b := New(testConfig(), nil)
	assert.Equal(t, Closed, b.State())
	assert.True(t, b.Allow())
}

func TestOpensAfterThreshold(t *testing.T) {
	b := New(testConfig(), nil)

	for i := 0; i < 3; i++ {
		b.RecordFailure(FailureNetwork)
	}

	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestNonCountingFailureNeverOpens(t *testing.T) {
	b := New(testConfig(), nil)

	for i := 0; i < 10; i++ {
		b.RecordFailure(FailureClientError)
	}

	assert.Equal(t, Closed, b.State())
}

func TestTransitionsToHalfOpenAfterCooldown(t *testing.T) {
	b := New(testConfig(), nil)
	for i := 0; i < 3; i++ {
		b.RecordFailure(FailureNetwork)
	}
	require := assert.New(t)
	require.Equal(Open, b.State())

	time.Sleep(60 * time.Millisecond)
	require.Equal(HalfOpen, b.State())
}

func TestHalfOpenClosesAfterSuccesses(t *testing.T) {
	b := New(testConfig(), nil)
	for i := 0; i < 3; i++ {
		b.RecordFailure(FailureNetwork)
	}
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, HalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(testConfig(), nil)
	for i := 0; i < 3; i++ {
		b.RecordFailure(FailureNetwork)
	}
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, HalfOpen, b.State())

	b.RecordFailure(FailureTimeout)
	assert.Equal(t, Open, b.State())
}

func TestCurrentBackoffMsGrowsAndRespectsCap(t *testing.T) {
	b := New(testConfig(), nil)

	for i := 0; i < 20; i++ {
		ms := b.CurrentBackoffMs()
		assert.LessOrEqual(t, ms, b.cfg.BackoffCap.Milliseconds())
		assert.GreaterOrEqual(t, ms, int64(0))
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, FailureRateLimited, ClassifyHTTPStatus(429))
	assert.Equal(t, FailureServerError, ClassifyHTTPStatus(503))
	assert.Equal(t, FailureClientError, ClassifyHTTPStatus(404))
	assert.Equal(t, FailureNone, ClassifyHTTPStatus(200))
}

func TestSubscribeNotifiesOnTransition(t *testing.T) {
	b := New(testConfig(), nil)
	received := make(chan State, 4)
	unsub := b.Subscribe(func(s State) { received <- s })
	defer unsub()

	for i := 0; i < 3; i++ {
		b.RecordFailure(FailureNetwork)
	}

	select {
	case s := <-received:
		assert.Equal(t, Open, s)
	case <-time.After(time.Second):
		t.Fatal("expected a state transition notification")
	}
}
