package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ipLimiters hands out one token bucket per client address. Idle buckets
// expire, so a scan across many source addresses cannot grow the set for
// the process lifetime.
type ipLimiters struct {
	buckets *cache.Cache
	limit   int
	per     time.Duration
}

func newIPLimiters(limit int, per time.Duration) *ipLimiters {
	if limit <= 0 {
		limit = 1
	}
	return &ipLimiters{
		buckets: cache.New(10*per, per),
		limit:   limit,
		per:     per,
	}
}

func (m *ipLimiters) get(ip string) *rate.Limiter {
	if v, ok := m.buckets.Get(ip); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Every(m.per/time.Duration(m.limit)), m.limit)
	if err := m.buckets.Add(ip, l, cache.DefaultExpiration); err != nil {
		// Lost the insert race to a concurrent request from the same address.
		if v, ok := m.buckets.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (m *ipLimiters) size() int { return m.buckets.ItemCount() }

// RateLimit applies a per-client token bucket: limit requests per window,
// keyed by client IP. Provider submissions are billable, so this sits in
// front of the transformation endpoint.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	limiters := newIPLimiters(limit, per)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientIPForRateLimit(r)).Allow() {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
