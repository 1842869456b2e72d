package fakegateway

import (
	"hash/fnv"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	headerRetryAfter      = "Retry-After"
	headerRateLimitScope  = "X-RateLimit-Scope"
	headerRateLimitBucket = "X-RateLimit-Bucket"

	rateLimitMessage = "You are being rate limited."
)

// RateLimitBody is the JSON body sent with a 429.
type RateLimitBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

// tokenLimiter keeps one token bucket per Authorization value.
type tokenLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newTokenLimiter(perSecond float64, burst int) *tokenLimiter {
	if burst < 1 {
		burst = 1
	}
	return &tokenLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *tokenLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// reserve returns how long key must wait before its next request is admitted.
// Zero means the request is admitted now.
func (l *tokenLimiter) reserve(key string, now time.Time) time.Duration {
	res := l.get(key).ReserveN(now, 1)
	if !res.OK() {
		return time.Second
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

// RateLimit answers 429 with a retry_after body once a token exhausts its bucket.
// A non-positive rate disables limiting.
func RateLimit(perSecond float64, burst int) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	limiter := newTokenLimiter(perSecond, burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(echo.HeaderAuthorization)
			scope := "user"
			if key == "" {
				key = c.RealIP()
				scope = "shared"
			}

			delay := limiter.reserve(key, time.Now())
			if delay <= 0 {
				return next(c)
			}

			retryAfter := math.Ceil(delay.Seconds()*1000) / 1000
			h := c.Response().Header()
			h.Set(headerRetryAfter, strconv.Itoa(int(math.Ceil(retryAfter))))
			h.Set(headerRateLimitScope, scope)
			h.Set(headerRateLimitBucket, bucketID(key))

			return c.JSON(http.StatusTooManyRequests, RateLimitBody{
				Message:    rateLimitMessage,
				RetryAfter: retryAfter,
			})
		}
	}
}

// bucketID hides the raw token while keeping buckets distinguishable.
func bucketID(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}
