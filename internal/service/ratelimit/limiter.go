package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	xhttp "AstroChart/pkg/http"
	xlogger "AstroChart/pkg/logger"
)

// Limiter hands out one token bucket per key. Idle keys are forgotten after idleTTL.
type Limiter struct {
	mu       sync.Mutex
	buckets  *expirable.LRU[string, *rate.Limiter]
	capacity int
	refill   rate.Limit
}

// New creates a limiter allowing capacity requests in a burst, refilled at refillPerSec.
func New(capacity, refillPerSec float64, maxKeys int, idleTTL time.Duration) *Limiter {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		buckets:  expirable.NewLRU[string, *rate.Limiter](maxKeys, nil, idleTTL),
		capacity: int(math.Max(1, capacity)),
		refill:   rate.Limit(refillPerSec),
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(l.refill, l.capacity)
	}
	// re-adding refreshes the idle deadline
	l.buckets.Add(key, b)
	return b
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// RetryAfter estimates how long key has to wait for the next token.
func (l *Limiter) RetryAfter(key string) time.Duration {
	r := l.bucket(key).Reserve()
	defer r.Cancel()
	return r.Delay()
}

// Keys returns the number of tracked keys.
func (l *Limiter) Keys() int {
	return l.buckets.Len()
}

// Middleware limits /api requests per client IP.
func Middleware(l *Limiter, log *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().URL.Path, "/api") {
				return next(c)
			}
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}

			wait := l.RetryAfter(key)
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			log.Debug("rate limit exceeded",
				xlogger.String("ip", key),
				xlogger.String("path", c.Request().URL.Path))
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError(http.StatusText(http.StatusTooManyRequests)).
				WithParam("retry_after", secs))
		}
	}
}
