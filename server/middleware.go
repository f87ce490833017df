package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"
)

// clientKey identifies the client for rate limiting: the configured header
// when present, otherwise the remote host.
func clientKey(r *http.Request, keyHeader string) string {
	if keyHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
			return v
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}

// rateLimitMiddleware enforces a per-client token bucket. Limiters are kept
// per key for the lifetime of the process; the key space is operator-facing
// (API keys or client hosts), not unbounded public traffic.
func rateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	limiters := xsync.NewMap[string, *rate.Limiter]()

	limiterFor := func(key string) *rate.Limiter {
		if l, ok := limiters.Load(key); ok {
			return l
		}
		l, _ := limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst))

		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(clientKey(r, cfg.KeyHeader)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
