package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/models"
	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL  = time.Hour
	bucketSweepGap = 5 * time.Minute
)

// buckets holds one token bucket per caller (API key, else client IP).
type buckets struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	byID  map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newBuckets(cfg config.RateLimitConfig) *buckets {
	return &buckets{
		limit: rate.Limit(cfg.RequestsPerSecond),
		burst: cfg.Burst,
		byID:  make(map[string]*bucket),
	}
}

func (b *buckets) allow(id string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bk, ok := b.byID[id]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byID[id] = bk
	}
	bk.lastSeen = now
	return bk.limiter.AllowN(now, 1)
}

// sweep drops buckets idle since before cutoff and returns how many remain.
func (b *buckets) sweep(cutoff time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, bk := range b.byID {
		if bk.lastSeen.Before(cutoff) {
			delete(b.byID, id)
		}
	}
	return len(b.byID)
}

// retryAfter is the whole number of seconds until one token refills.
func (b *buckets) retryAfter() int {
	if b.limit <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(b.limit))))
}

// RateLimit admits scrape requests per caller with a token bucket. Every
// admitted request may launch a Chrome process, so rejected callers get 429
// with a Retry-After hint instead of queueing.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	b := newBuckets(cfg)

	go func() {
		ticker := time.NewTicker(bucketSweepGap)
		defer ticker.Stop()
		for now := range ticker.C {
			b.sweep(now.Add(-bucketIdleTTL))
		}
	}()

	return func(c *gin.Context) {
		id := c.GetString(CallerKey)
		if id == "" {
			id = c.ClientIP()
		}

		if !b.allow(id, time.Now()) {
			c.Header("Retry-After", strconv.Itoa(b.retryAfter()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "rate limit exceeded, please slow down",
			})
			return
		}

		c.Next()
	}
}
