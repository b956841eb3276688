package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"golang.org/x/time/rate"
)

// idleAfter is how long an identity may stay silent before its bucket is
// dropped.
const idleAfter = time.Hour

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per identity.
type limiterSet struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

func newLimiterSet(cfg config.RateLimitConfig) *limiterSet {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &limiterSet{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
	}
}

// reserve takes one token for identity. It returns zero when the request may
// proceed, or how long the caller should wait.
func (s *limiterSet) reserve(identity string, now time.Time) time.Duration {
	s.mu.Lock()
	b, ok := s.buckets[identity]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[identity] = b
	}
	b.lastSeen = now
	s.mu.Unlock()

	if b.limiter.AllowN(now, 1) {
		return 0
	}
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Second
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return delay
}

// sweep drops buckets idle since before cutoff.
func (s *limiterSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, id)
		}
	}
}

// RateLimit returns per-identity token-bucket rate limiting middleware. The
// identity is the API key set by Auth, or the client IP without auth.
// Rejected requests get 429 with a Retry-After header.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	set := newLimiterSet(cfg)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			set.sweep(now.Add(-idleAfter))
		}
	}()

	return func(c *gin.Context) {
		identity := c.ClientIP()
		if key, ok := c.Get(IdentityKey); ok {
			identity = key.(string)
		}

		if wait := set.reserve(identity, time.Now()); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
