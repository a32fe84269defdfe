package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimitByIP limits requests per client IP with a token bucket.
// Applied to the register/login routes to slow down brute forcing;
// account-level lockout is handled separately by the login limiter.
func RateLimitByIP(perMinute, burst int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*ipBucket)
	)
	limit := rate.Every(time.Minute / time.Duration(perMinute))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			mu.Lock()
			b, ok := buckets[ip]
			if !ok {
				b = &ipBucket{lim: rate.NewLimiter(limit, burst)}
				buckets[ip] = b
			}
			b.lastSeen = time.Now()
			if len(buckets) > 1024 {
				sweep(buckets)
			}
			allowed := b.lim.Allow()
			mu.Unlock()

			if !allowed {
				w.Header().Set("Retry-After", "60")
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sweep drops buckets idle for over an hour. Caller holds the lock.
func sweep(buckets map[string]*ipBucket) {
	cutoff := time.Now().Add(-time.Hour)
	for ip, b := range buckets {
		if b.lastSeen.Before(cutoff) {
			delete(buckets, ip)
		}
	}
}

// clientIP resolves the caller's address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
