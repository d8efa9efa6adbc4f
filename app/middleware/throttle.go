package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mytheresa/product-catalog/app/api"
)

// Throttle limits requests per client address with a token bucket.
//
// The key is r.RemoteAddr, so forwarded headers only count when RealIP
// accepted them from a trusted proxy.
type Throttle struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	maxKeys  int
	// idle is how long a bucket takes to refill completely. A bucket unused
	// for that long is indistinguishable from a new one.
	idle time.Duration
	// overflow is shared by new clients while the table is full of active
	// buckets.
	overflow *rate.Limiter
	now      func() time.Time

	// retryAfter is the refill interval of one token, in whole seconds.
	retryAfter string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle allows perMinute requests per client per minute, in bursts of
// up to perMinute.
func NewThrottle(perMinute int) *Throttle {
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	return &Throttle{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    perMinute,
		maxKeys:  10000,
		idle:     time.Minute,
		overflow: rate.NewLimiter(limit, perMinute),
		now:      time.Now,

		retryAfter: strconv.Itoa((60 + perMinute - 1) / perMinute),
	}
}

func (t *Throttle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	v, ok := t.visitors[key]
	if !ok {
		if len(t.visitors) >= t.maxKeys {
			t.prune(now)
		}
		if len(t.visitors) >= t.maxKeys {
			return t.overflow.AllowN(now, 1)
		}
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// prune drops buckets that have refilled completely.
func (t *Throttle) prune(now time.Time) {
	for key, v := range t.visitors {
		if now.Sub(v.lastSeen) >= t.idle {
			delete(t.visitors, key)
		}
	}
}

func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(clientKey(r)) {
			w.Header().Set("Retry-After", t.retryAfter)
			api.Error(w, http.StatusTooManyRequests, "Too Many Attempts.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
