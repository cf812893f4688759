package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/config"
)

const rateWindow = 60 * time.Second

// RateLimiter is an in-memory fixed-window limiter keyed on client IP and
// route group. Single-instance only; every entry in a bucket is a request
// timestamp inside the current window.
type RateLimiter struct {
	enabled bool
	perMin  int
	burst   int

	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	return &RateLimiter{
		enabled: cfg.Enabled,
		perMin:  cfg.RequestsPerMinute,
		burst:   burst,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// routeGroup buckets sensitive surfaces separately so a portal scan cannot
// starve the staff API and vice versa. Matching is on route prefixes, not
// substrings: staff routes like /deals/:id/portal/rotate stay in the staff
// bucket. Proof uploads get the upload cap regardless of which surface
// they arrive on.
func routeGroup(path string) string {
	switch {
	case strings.HasSuffix(path, "/proofs/upload"):
		return "uploads"
	case strings.HasPrefix(path, "/api/v1/auth"):
		return "auth"
	case strings.HasPrefix(path, "/api/v1/portal"):
		return "portal"
	case strings.HasPrefix(path, "/api/v1/uploads"):
		return "uploads"
	default:
		return "other"
	}
}

func (rl *RateLimiter) limitFor(group string) int {
	switch group {
	case "auth", "portal", "uploads":
		return rl.burst
	default:
		return rl.perMin
	}
}

// Allow records the request and reports whether it fits the window.
func (rl *RateLimiter) Allow(ip, path string) bool {
	if !rl.enabled {
		return true
	}

	group := routeGroup(path)
	key := ip + ":" + group
	now := rl.now()
	cutoff := now.Add(-rateWindow)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	q := rl.buckets[key]
	kept := q[:0]
	for _, t := range q {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limitFor(group) {
		rl.buckets[key] = kept
		return false
	}

	rl.buckets[key] = append(kept, now)
	return true
}

func (rl *RateLimiter) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !rl.Allow(ip, r.URL.Path) {
			w.Header().Set("Retry-After", "60")
			errors.Write(w, errors.ErrRateLimited)
			return
		}

		next(w, r)
	}
}
