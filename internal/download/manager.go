// Package download persists admitted PDF URLs to disk. Downloads stream
// through a temp file that is renamed into place only on success, so a failed
// or oversized transfer never leaves a partial PDF behind.
package download

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/urlutil"
)

// ErrDuplicate reports that the URL (or the URL its redirects resolved to)
// has already been downloaded this run.
var ErrDuplicate = errors.New("already downloaded")

// SizeExceededError reports a transfer that crossed the configured cap,
// whether announced by Content-Length or discovered mid-stream.
type SizeExceededError struct {
	URL   string
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("download %s exceeds size limit %d bytes", e.URL, e.Limit)
}

// Config controls the download client and destination.
type Config struct {
	OutputDir    string
	UserAgent    string
	Timeout      time.Duration
	MaxFileBytes int64
	VerifyTLS    bool
}

// Item describes one completed download.
type Item struct {
	URL      string
	FinalURL string
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Manager downloads PDFs with per-run URL deduplication. It is not safe for
// concurrent use; the crawl engine drives it from a single worker.
type Manager struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	done   map[string]struct{}
}

// NewManager creates the output directory and a Manager writing into it.
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if cfg.OutputDir == "" {
		return nil, errors.New("download: output directory is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS}, //nolint:gosec // operator toggle
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Manager{
		cfg:    cfg,
		client: client,
		logger: logger,
		done:   map[string]struct{}{},
	}, nil
}

// Seen reports whether the normalized form of rawURL was already downloaded.
func (m *Manager) Seen(rawURL string) bool {
	norm, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false
	}
	_, ok := m.done[norm]
	return ok
}

// Count returns how many distinct files were written this run.
func (m *Manager) Count() int { return len(m.done) }

// Download fetches rawURL and writes it under the output directory. Redirects
// are followed; deduplication applies to both the requested URL and the final
// one, so two share links resolving to the same file download once.
func (m *Manager) Download(ctx context.Context, rawURL string) (Item, error) {
	norm, err := urlutil.Normalize(rawURL)
	if err != nil {
		return Item{}, fmt.Errorf("normalize %s: %w", rawURL, err)
	}
	if _, ok := m.done[norm]; ok {
		return Item{}, ErrDuplicate
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Item{}, fmt.Errorf("build request: %w", err)
	}
	if m.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", m.cfg.UserAgent)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return Item{}, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Item{}, fmt.Errorf("get %s: http status %d", rawURL, resp.StatusCode)
	}

	finalURL := resp.Request.URL.String()
	finalNorm, err := urlutil.Normalize(finalURL)
	if err != nil {
		finalNorm = finalURL
	}
	if _, ok := m.done[finalNorm]; ok {
		m.done[norm] = struct{}{}
		return Item{}, ErrDuplicate
	}

	if m.cfg.MaxFileBytes > 0 && resp.ContentLength > m.cfg.MaxFileBytes {
		return Item{}, &SizeExceededError{URL: rawURL, Limit: m.cfg.MaxFileBytes}
	}

	dest := m.uniquePath(filenameFor(resp, finalURL))
	written, err := m.writeFile(dest, resp.Body)
	if err != nil {
		return Item{}, err
	}

	m.done[norm] = struct{}{}
	m.done[finalNorm] = struct{}{}

	item := Item{
		URL:      rawURL,
		FinalURL: finalURL,
		Path:     dest,
		Bytes:    written,
		Duration: time.Since(start),
	}
	m.logger.Info("pdf downloaded",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("bytes", written),
	)
	return item, nil
}

// writeFile streams body into a temp file and renames it into place. The cap
// is enforced while streaming, so a lying or absent Content-Length cannot
// sneak an oversized file through.
func (m *Manager) writeFile(dest string, body io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(m.cfg.OutputDir, ".pdfhound-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	reader := body
	if m.cfg.MaxFileBytes > 0 {
		reader = io.LimitReader(body, m.cfg.MaxFileBytes+1)
	}
	written, err := io.Copy(tmp, reader)
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	if m.cfg.MaxFileBytes > 0 && written > m.cfg.MaxFileBytes {
		cleanup()
		return 0, &SizeExceededError{URL: dest, Limit: m.cfg.MaxFileBytes}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return written, nil
}

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// filenameFor derives a safe filename from Content-Disposition, falling back
// to the final URL path. The .pdf suffix is always enforced.
func filenameFor(resp *http.Response, finalURL string) string {
	name := ""
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			name = params["filename"]
		}
	}
	if name == "" {
		if u, err := url.Parse(finalURL); err == nil {
			name = path.Base(u.Path)
		}
	}

	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" || name == "/" {
		name = "document"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// uniquePath appends -1, -2, ... before the extension until the name is free.
func (m *Manager) uniquePath(name string) string {
	dest := filepath.Join(m.cfg.OutputDir, name)
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		return dest
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dest = filepath.Join(m.cfg.OutputDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
	}
}
