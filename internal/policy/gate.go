package policy

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/policy/ratelimit"
)

// DeniedError reports that robots.txt disallows the URL for this crawler.
// Callers treat it as a skip, never as a crawl-halting fault.
type DeniedError struct {
	URL string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("robots.txt disallows %s", e.URL)
}

// Gate combines the robots check and the per-host rate limit. Every outbound
// page fetch passes through Admit before it is made.
type Gate struct {
	robots  Robots
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewGate wires the robots policy and limiter together.
func NewGate(robots Robots, limiter *ratelimit.Limiter, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{robots: robots, limiter: limiter, logger: logger}
}

// Admit blocks until the URL may be fetched. It returns *DeniedError when
// robots.txt forbids the URL and the ctx error when the wait is cancelled.
// A robots Crawl-delay directive stretches the host's request spacing before
// the wait begins.
func (g *Gate) Admit(ctx context.Context, rawURL string) error {
	if !g.robots.Allowed(ctx, rawURL) {
		return &DeniedError{URL: rawURL}
	}
	if delay := g.robots.CrawlDelay(ctx, rawURL); delay > 0 {
		g.limiter.SetHostInterval(hostOf(rawURL), delay)
	}
	return g.limiter.Wait(ctx, rawURL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
