package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

// maxTracked caps the visitor map so a scan across many source addresses
// cannot grow it without bound.
const maxTracked = 65536

// Throttle is a per-client-IP token bucket. Each visitor starts with a
// full burst; tokens refill continuously at the configured rate. It is
// meant for the credential endpoints, which must stay slow for guessing
// even when everything else is fast.
type Throttle struct {
	rate  float64 // tokens per second
	burst float64

	mu       sync.Mutex
	visitors map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewThrottle returns a Throttle allowing burst immediate requests per IP
// and rate requests per second sustained.
func NewThrottle(rate float64, burst int) *Throttle {
	return &Throttle{
		rate:     rate,
		burst:    float64(burst),
		visitors: make(map[string]*bucket),
		now:      time.Now,
	}
}

// Handler wraps next, answering 429 when the caller's bucket is empty.
// The Retry-After header tells the client when one token will be back.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(clientIP(r)) {
			retryAfter := int(math.Ceil(1 / t.rate))
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.visitors[ip]
	if !ok {
		if len(t.visitors) >= maxTracked {
			t.sweepLocked(now)
		}
		b = &bucket{tokens: t.burst, last: now}
		t.visitors[ip] = b
	}

	b.tokens = math.Min(t.burst, b.tokens+now.Sub(b.last).Seconds()*t.rate)
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweepLocked drops visitors whose buckets have fully refilled; they are
// indistinguishable from ones never seen. Called with mu held.
func (t *Throttle) sweepLocked(now time.Time) {
	for ip, b := range t.visitors {
		if b.tokens+now.Sub(b.last).Seconds()*t.rate >= t.burst {
			delete(t.visitors, ip)
		}
	}
}

// clientIP keys buckets by the peer address only. Forwarding headers are
// client-controlled and would let an attacker choose their own bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
