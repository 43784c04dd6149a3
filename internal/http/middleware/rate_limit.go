package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/noid254/nikosoko/internal/http/response"
	"github.com/noid254/nikosoko/pkg/logger"
)

// Counter increments a fixed-window counter and returns the new count.
// The window starts with the first increment of a key.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	Scope    string                         // Prefix keeping limiters apart
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	counter Counter
	config  RateLimitConfig
}

func NewRateLimiter(counter Counter, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientKeys
	}
	return &RateLimiter{counter: counter, config: config}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.config.Window.Seconds())))
					response.WriteError(w, http.StatusTooManyRequests, "Too many requests. Try again later.", response.ErrCodeRateLimited)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Hash the key for privacy
	sum := sha256.Sum256([]byte(key))
	hashedKey := fmt.Sprintf("ratelimit:%s:%x", rl.config.Scope, sum)

	count, err := rl.counter.Incr(ctx, hashedKey, rl.config.Window)
	if err != nil {
		// fail open
		logger.WarnContext(ctx, "Rate limit counter unavailable", "error", err)
		return true
	}
	return count <= int64(rl.config.Requests)
}

// ClientKeys limits by client IP and, inside a session, by session id.
func ClientKeys(r *http.Request) []string {
	var keys []string
	if ip := clientIP(r); ip != "" {
		keys = append(keys, "ip:"+ip)
	}
	if sid := SessionID(r); sid != "" {
		keys = append(keys, "sid:"+sid)
	}
	return keys
}

// clientIP extracts the real client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
