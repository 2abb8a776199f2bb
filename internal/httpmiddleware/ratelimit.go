package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// TokenBucket is an in-memory limiter with one bucket per key.
type TokenBucket struct {
	capacity int
	rate     int
	clock    func() time.Time
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter holding capacity tokens refilled at perMinute.
func NewTokenBucket(capacity, perMinute int, clock func() time.Time) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		clock:    clock,
		state:    make(map[string]*bucket),
	}
}

// Middleware rejects requests over the limit with 429. Requests without a
// key fall back to the client IP.
func (l *TokenBucket) Middleware(key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := ""
		if key != nil {
			k = key(c)
		}
		if k == "" {
			k = c.ClientIP()
		}
		if k == "" {
			k = "unknown"
		}
		if !l.Allow(k) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."})
			return
		}
		c.Next()
	}
}

// Allow takes a token from key's bucket.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := l.clock()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Forget drops buckets untouched for idle.
func (l *TokenBucket) Forget(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.clock().Add(-idle)
	for k, b := range l.state {
		if b.last.Before(cutoff) {
			delete(l.state, k)
		}
	}
}
