package ratelimit

import (
	"sync"
	"time"
)

// tokenBucket is a classic token bucket: capacity tokens, refilled at a fixed
// rate, one token per request.
type tokenBucket struct {
	capacity   int
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now,
	}
}

func (b *tokenBucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Limiter tracks one token bucket per client key (IP). Idle buckets are
// dropped by a background cleanup goroutine.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	lastAccess map[string]time.Time
	capacity   int
	refillRate float64
	now        func() time.Time
	done       chan struct{}
	closeOnce  sync.Once
}

// NewLimiter creates a limiter allowing `requests` per `window` per key, with
// bursts up to `requests`.
func NewLimiter(requests int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*tokenBucket),
		lastAccess: make(map[string]time.Time),
		capacity:   requests,
		refillRate: float64(requests) / window.Seconds(),
		now:        time.Now,
		done:       make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request for the given key may proceed.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = newTokenBucket(l.capacity, l.refillRate, now)
		l.buckets[key] = bucket
	}
	l.lastAccess[key] = now
	l.mu.Unlock()

	return bucket.allow(now)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	cutoff := l.now().Add(-10 * time.Minute)

	l.mu.Lock()
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
	l.mu.Unlock()
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
