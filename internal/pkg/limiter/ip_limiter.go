/*
Package limiter provides request rate limiting keyed by client IP address.

It uses the token bucket algorithm (rate.Limiter) to bound the request
frequency of each client IP, with a cleanup goroutine that drops idle
buckets so the map does not grow with every visitor the relay ever saw.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/logx"
	"nexchat/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// cleanupInterval is how often idle limiters are reaped.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter is a per-client-IP token bucket limiter.
type IPRateLimiter struct {
	mu sync.RWMutex

	// limits maps client IP address to its *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the refill rate, events allowed per second.
	r rate.Limit

	// b is the burst size of each bucket.
	b int
}

// NewIPRateLimiter creates a new IPRateLimiter with rate r and burst b,
// and starts the background cleanup goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter retrieves the rate limiter for the given IP, creating one on
// first sight. Double-checked locking keeps creation concurrent-safe.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanUpVisitors periodically removes limiters whose bucket is full
// again (no recent traffic from that IP).
func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		removed := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				removed++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()

		if removed > 0 {
			logx.Info("Rate limiter cleanup", "removed", removed, "remaining", remaining)
		}
	}
}

// Middleware enforces the rate limit on incoming requests, answering
// 429 Too Many Requests when a client exceeds its budget.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !i.GetLimiter(ip).Allow() {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
