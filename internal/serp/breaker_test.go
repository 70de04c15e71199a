package serp

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := newBreaker()
	for i := 0; i < 20; i++ {
		assert.True(t, b.allow())
		b.record(nil)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newBreaker()
	errProvider := eris.New("provider down")

	for i := 0; i < breakerThreshold; i++ {
		assert.True(t, b.allow())
		b.record(errProvider)
	}
	assert.False(t, b.allow())
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := newBreaker()
	errProvider := eris.New("provider down")

	for i := 0; i < breakerThreshold-1; i++ {
		b.record(errProvider)
	}
	b.record(nil)
	for i := 0; i < breakerThreshold-1; i++ {
		b.record(errProvider)
	}
	assert.True(t, b.allow())
}

func TestBreakerHalfOpensAfterCooldown(t *testing.T) {
	now := time.Now()
	b := newBreaker()
	b.now = func() time.Time { return now }

	for i := 0; i < breakerThreshold; i++ {
		b.record(eris.New("provider down"))
	}
	assert.False(t, b.allow())

	// Cooldown elapsed: exactly one probe is admitted.
	now = now.Add(breakerCooldown)
	assert.True(t, b.allow())
	assert.False(t, b.allow())

	// A successful probe closes the breaker again.
	b.record(nil)
	assert.True(t, b.allow())
}
