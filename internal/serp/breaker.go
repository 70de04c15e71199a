package serp

import (
	"sync"
	"time"
)

const (
	// breakerThreshold is how many consecutive primary failures open the
	// breaker.
	breakerThreshold = 5
	// breakerCooldown is how long probes skip the primary once open.
	breakerCooldown = 30 * time.Second
)

// breaker tracks consecutive primary-provider failures so that a dead
// provider stops costing a timeout per probe. Once open, probes go straight
// to the fallback until the cooldown elapses; one probe then tests recovery.
type breaker struct {
	mu       sync.Mutex
	failures int
	openedAt time.Time

	now func() time.Time
}

func newBreaker() *breaker {
	return &breaker{now: time.Now}
}

// allow reports whether the primary should be tried.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < breakerThreshold {
		return true
	}
	// Open; admit a single probe after the cooldown by rolling the window.
	if b.now().Sub(b.openedAt) >= breakerCooldown {
		b.openedAt = b.now()
		return true
	}
	return false
}

func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures == breakerThreshold {
		b.openedAt = b.now()
	}
}
