package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(requests int, window time.Duration) (*Limiter, *time.Time) {
	l := NewLimiter(requests, window)
	current := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLimiterEnforcesBudget(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "request %d within budget", i)
	}
	assert.False(t, l.Allow("1.2.3.4"), "budget exhausted")

	// A different client has its own bucket
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestLimiterRefills(t *testing.T) {
	l, current := newTestLimiter(2, time.Minute)
	defer l.Close()

	assert.True(t, l.Allow("ip"))
	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))

	// Half the window refills one token
	*current = current.Add(30 * time.Second)
	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))
}

func TestLimiterCleanupDropsIdleBuckets(t *testing.T) {
	l, current := newTestLimiter(1, time.Minute)
	defer l.Close()

	l.Allow("stale")
	*current = current.Add(time.Hour)
	l.Allow("fresh")

	l.cleanup()

	l.mu.Lock()
	_, staleKept := l.buckets["stale"]
	_, freshKept := l.buckets["fresh"]
	l.mu.Unlock()

	assert.False(t, staleKept)
	assert.True(t, freshKept)
}
