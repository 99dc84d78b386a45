package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientIP extracts the client IP from the request. Rate limiting and the
// auth event log both key on this value.
func ClientIP(r *http.Request) string {
	// X-Real-IP is set by reverse proxies
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// X-Forwarded-For can contain multiple IPs; take the first one
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return ip
	}

	// RemoteAddr is ip:port. Every TCP connection carries a fresh ephemeral
	// port, so limiter windows must key on the bare IP or a direct client
	// could dodge the ceiling by reconnecting per attempt.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a new limiter cache.
func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
// Returns true if the cache was cleared.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// GlobalRateLimiter applies a per-IP token bucket across the general API
// surface for abuse resistance.
type GlobalRateLimiter struct {
	cache *limiterCache[string]
}

// NewGlobalRateLimiter creates a new global rate limiter.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		cache: newLimiterCache[string](rps, burst),
	}
}

// Middleware returns the rate limiting middleware (returns JSON errors).
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !rl.cache.get(ip).Allow() {
				slog.Warn("rate limit exceeded", "category", "rate_limit", "ip", ip, "path", r.URL.Path)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Prune clears the limiter cache when it grows past maxSize. Called
// periodically by the maintenance scheduler.
func (rl *GlobalRateLimiter) Prune(maxSize int) {
	if rl.cache.clearIfExceeds(maxSize) {
		slog.Info("cleared global rate limiter cache due to size")
	}
}

// LoginLimiter enforces a fixed-window attempt ceiling per client address
// on the login route. Every attempt counts against the window, including
// attempts that are themselves rejected, so the ceiling cannot be bypassed
// by retrying.
type LoginLimiter struct {
	mu      sync.Mutex
	windows map[string]*attemptWindow

	maxAttempts int
	window      time.Duration

	// now is replaceable for tests.
	now func() time.Time
}

// attemptWindow counts attempts from one address within a fixed window.
type attemptWindow struct {
	count int
	start time.Time
}

// LoginLimiterConfig holds configuration for the login limiter.
type LoginLimiterConfig struct {
	// MaxAttempts is the attempt ceiling per window (default: 5).
	MaxAttempts int
	// Window is the fixed window duration (default: 15 minutes).
	Window time.Duration
}

// DefaultLoginLimiterConfig returns sensible defaults.
func DefaultLoginLimiterConfig() LoginLimiterConfig {
	return LoginLimiterConfig{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

// NewLoginLimiter creates a new login limiter.
func NewLoginLimiter(cfg LoginLimiterConfig) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &LoginLimiter{
		windows:     make(map[string]*attemptWindow),
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		now:         time.Now,
	}
}

// Allow records one attempt for addr and reports whether it is within the
// ceiling. The increment-and-check is atomic with respect to concurrent
// callers sharing the same window.
func (ll *LoginLimiter) Allow(addr string) bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := ll.now()
	w, exists := ll.windows[addr]
	if !exists || now.Sub(w.start) >= ll.window {
		// New window: the counter resets to zero once the window elapses.
		ll.windows[addr] = &attemptWindow{count: 1, start: now}
		return true
	}

	w.count++
	return w.count <= ll.maxAttempts
}

// PruneStale removes windows that have elapsed. Called periodically by the
// maintenance scheduler.
func (ll *LoginLimiter) PruneStale() {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := ll.now()
	for addr, w := range ll.windows {
		if now.Sub(w.start) >= ll.window {
			delete(ll.windows, addr)
		}
	}
}

// Middleware returns HTTP middleware enforcing the login attempt ceiling.
func (ll *LoginLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !ll.Allow(ip) {
				slog.Warn("login rate limit exceeded", "category", "auth", "ip", ip)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many login attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
