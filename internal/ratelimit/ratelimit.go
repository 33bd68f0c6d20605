// Package ratelimit provides fixed-window admission control keyed by source address.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"menumakers/internal/metrics"
)

// Counter increments the hit count for key within a window starting at the
// first hit. It returns the count after the increment and the time left
// until the window resets.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Result describes the decision for one request.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most Max requests per Window for each key.
type Limiter struct {
	counter Counter
	scope   string
	max     int
	window  time.Duration
}

// New creates a limiter. scope namespaces keys and labels metrics.
func New(counter Counter, scope string, max int, window time.Duration) *Limiter {
	return &Limiter{counter: counter, scope: scope, max: max, window: window}
}

// Allow records a hit for key and reports whether it is admitted.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetIn, err := l.counter.Incr(ctx, l.scope+":"+key, l.window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", l.scope, err)
	}

	res := Result{
		Allowed:   count <= int64(l.max),
		Limit:     l.max,
		Remaining: l.max - int(count),
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = resetIn
	}
	return res, nil
}

// RejectFunc writes the response for a rejected request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, res Result)

// Middleware enforces the limiter before next runs. Counter failures admit
// the request.
func (l *Limiter) Middleware(reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), KeyFromRequest(r))
			if err != nil {
				log.Printf("[RATELIMIT] %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				metrics.RecordRateLimited(l.scope)
				log.Printf("[RATELIMIT] %s limit reached for %s", l.scope, KeyFromRequest(r))
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				reject(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// KeyFromRequest returns the client address without the port. Proxy headers
// are expected to have been applied to RemoteAddr already.
func KeyFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
