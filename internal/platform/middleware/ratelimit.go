package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/healthhub/portal/internal/platform/auth"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops limiters for clients not seen for this long.
	IdleTTL time.Duration
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 3 * time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		idle:    idle,
		now:     time.Now,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if c, ok := rl.clients[key]; ok {
		c.seen = now
		return c.lim
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[key] = &client{lim: l, seen: now}
	return l
}

// Prune drops idle clients and reports how many remain.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idle)
	for key, c := range rl.clients {
		if c.seen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	return len(rl.clients)
}

// Middleware limits per identity when one is known and per IP otherwise.
func (rl *RateLimiter) Middleware(skip func(echo.Context) bool) echo.MiddlewareFunc {
	limitHeader := strconv.FormatFloat(float64(rl.limit), 'f', -1, 64)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}
			key := "ip:" + c.RealIP()
			if id := auth.IdentityIDFromContext(c.Request().Context()); id != "" {
				key = "id:" + id
			}

			res := rl.get(key).ReserveN(rl.now(), 1)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			if !res.OK() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			if delay := res.DelayFrom(rl.now()); delay > 0 {
				res.CancelAt(rl.now())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
