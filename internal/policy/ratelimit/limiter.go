// Package ratelimit implements token-bucket rate limiting keyed by host.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// DefaultInterval is the minimum spacing between requests to one host.
	// Zero or negative means no limit.
	DefaultInterval time.Duration
	// Burst is the token bucket size (default 1, strict spacing).
	Burst int
}

// Limiter manages per-host token buckets. Hosts may carry individual
// intervals, typically sourced from a robots.txt Crawl-delay directive.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	fallback rate.Limit
	burst    int
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	limit := rate.Inf
	if cfg.DefaultInterval > 0 {
		limit = rate.Every(cfg.DefaultInterval)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		fallback: limit,
		burst:    burst,
	}
}

// SetHostInterval overrides the spacing for one host. The override only ever
// slows a host down; an interval shorter than the default is ignored.
func (l *Limiter) SetHostInterval(host string, interval time.Duration) {
	if interval <= 0 {
		return
	}
	override := rate.Every(interval)
	if override > l.fallback {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	host = hostKey(host)
	if lim, ok := l.limiters[host]; ok {
		lim.SetLimit(override)
		return
	}
	l.limiters[host] = rate.NewLimiter(override, l.burst)
}

// Wait blocks until a token is available for the URL's host, honoring ctx.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = hostKey(u.Hostname())
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.fallback, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", host, err)
	}
	return nil
}

func hostKey(host string) string {
	return strings.ToLower(host)
}
