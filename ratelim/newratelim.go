package ratelim

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound requests, one token bucket per host.
type RateLimiter struct {
	hosts map[string]*rate.Limiter
	mu    sync.Mutex
	limit rate.Limit
	burst int
}

// NewRateLimiter allows perSecond requests per host with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		hosts: make(map[string]*rate.Limiter),
		limit: limit,
		burst: burst,
	}
}

// Get or create a limiter for a host
func (rl *RateLimiter) getLimiter(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.hosts[host]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.hosts[host] = limiter
	return limiter
}

type transport struct {
	rl   *RateLimiter
	next http.RoundTripper
}

// Transport waits for the host's bucket before every request. The wait honours the
// request context, so a cancelled caller is not held up.
func (rl *RateLimiter) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{rl: rl, next: next}
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.rl.getLimiter(r.URL.Host).Wait(r.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(r)
}
