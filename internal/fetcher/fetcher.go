// Package fetcher implements bounded HTTP retrieval on top of the Colly
// collector. A single pooled transport is shared across requests; every fetch
// clones the base collector so per-request hooks never leak between calls.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	VerifyTLS    bool
	MaxBodyBytes int64
}

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRedirects = 10
)

// Request describes a single fetch. Method defaults to GET. When WantBody is
// false the body is discarded after headers are read (HEAD requests never
// carry one anyway).
type Request struct {
	URL        string
	Method     string
	WantBody   bool
	RangeBytes string
}

// Result is the structured outcome of a fetch. HTTP error statuses (4xx/5xx)
// are returned here, not as Go errors, so callers can treat e.g. a 403 as a
// soft skip instead of a crawl-halting fault.
type Result struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the response status is 2xx.
func (r Result) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// ContentType returns the media type portion of the Content-Type header,
// lowercased and without parameters.
func (r Result) ContentType() string {
	return mediaType(r.Headers.Get("Content-Type"))
}

// Fetcher performs HTTP requests with bounded timeout and redirect hops.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher with a pooled transport. With cfg.VerifyTLS false the
// transport skips certificate validation, matching the operator toggle for
// sites with broken chains.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector()
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true // robots policy is enforced upstream by the policy gate
	base.ParseHTTPErrorResponse = true
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	base.WithTransport(newTransport(cfg))
	base.SetRequestTimeout(cfg.Timeout)
	if cfg.MaxBodyBytes > 0 {
		base.MaxBodySize = int(cfg.MaxBodyBytes)
	}

	return &Fetcher{cfg: cfg, baseCollector: base, logger: logger}
}

// Fetch executes the request and returns a structured result. The final URL
// after redirect resolution is recorded separately from the requested one.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	var (
		result   Result
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	collector.SetRedirectHandler(f.redirectHandler())

	collector.OnRequest(func(r *colly.Request) {
		if req.RangeBytes != "" {
			r.Headers.Set("Range", req.RangeBytes)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = Result{
			URL:        req.URL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    cloneHeaders(r.Headers),
			Duration:   time.Since(start),
		}
		if req.WantBody {
			result.Body = append([]byte(nil), r.Body...)
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			// HTTP-level failure that still produced a response.
			result = Result{
				URL:        req.URL,
				FinalURL:   r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Headers:    cloneHeaders(r.Headers),
				Duration:   time.Since(start),
			}
			return
		}
		fetchErr = err
	})

	visit := collector.Visit
	if req.Method == http.MethodHead {
		visit = collector.Head
	}

	done := make(chan error, 1)
	go func() {
		done <- visit(req.URL)
	}()

	select {
	case <-ctx.Done():
		return Result{}, &NetworkError{URL: req.URL, Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			collector.Wait()
			if result.StatusCode > 0 {
				// The error hook captured an HTTP-level failure; hand the
				// structured result back instead of a transport error.
				return result, nil
			}
			return Result{}, classifyErr(req.URL, err)
		}
	}
	collector.Wait()

	if fetchErr != nil {
		return Result{}, classifyErr(req.URL, fetchErr)
	}
	if result.StatusCode == 0 {
		return Result{}, &NetworkError{URL: req.URL, Err: fmt.Errorf("no response received")}
	}
	return result, nil
}

func (f *Fetcher) redirectHandler() func(req *http.Request, via []*http.Request) error {
	maxHops := f.cfg.MaxRedirects
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxHops {
			return fmt.Errorf("stopped after %d redirects", maxHops)
		}
		return nil
	}
}

func newTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS}, //nolint:gosec // operator toggle
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

func cloneHeaders(h *http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt
}
