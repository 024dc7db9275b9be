package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/eventra-app/admin-service/internal/auth"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// operatorLimiter throttles mutations per operator, falling back to the
// client IP for unauthenticated calls.
type operatorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
}

func newOperatorLimiter(rps float64, burst int) *operatorLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &operatorLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
	}
}

func (l *operatorLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// MutationRateLimit rejects operators exceeding rps with 429. A non-positive
// rps disables limiting.
func MutationRateLimit(rps float64, burst int) fiber.Handler {
	if rps <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	limiter := newOperatorLimiter(rps, burst)
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if principal, ok := auth.PrincipalFromContext(c); ok {
			key = "operator:" + principal.OperatorID
		}
		if !limiter.get(key, time.Now()).Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
		}
		return c.Next()
	}
}
