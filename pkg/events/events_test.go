package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureSink struct {
	received []Event
}

func (c *captureSink) Emit(e Event) {
	c.received = append(c.received, e)
}

func TestPublishFansOutToAllSinks(t *testing.T) {
	Reset()
	defer Reset()

	a := &captureSink{}
	b := &captureSink{}
	Register(a)
	Register(b)

	Publish(Event{Kind: "breaker.state_change", Timestamp: time.Unix(0, 0), Fields: map[string]any{"state": "open"}})

	assert.Len(t, a.received, 1)
	assert.Len(t, b.received, 1)
	assert.Equal(t, "breaker.state_change", a.received[0].Kind)
}

func TestPublishWithNoSinksDoesNotPanic(t *testing.T) {
	Reset()
	defer Reset()
	assert.NotPanics(t, func() {
		Publish(Event{Kind: "overlay.drift_correction"})
	})
}

func TestResetClearsRegisteredSinks(t *testing.T) {
	Reset()
	defer Reset()

	a := &captureSink{}
	Register(a)
	Reset()
	Publish(Event{Kind: "queue.drain"})

	assert.Empty(t, a.received)
}
