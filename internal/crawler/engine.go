// Package crawler drives the breadth-first PDF hunt: a single worker pulls
// page tasks off the frontier, runs each page through the detection pipeline,
// and hands admitted candidates to the download manager.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/cloudurl"
	"github.com/pdfhound/pdfhound/internal/detector"
	"github.com/pdfhound/pdfhound/internal/download"
	"github.com/pdfhound/pdfhound/internal/fetcher"
	"github.com/pdfhound/pdfhound/internal/policy"
	"github.com/pdfhound/pdfhound/internal/progress"
	"github.com/pdfhound/pdfhound/internal/urlutil"
	"github.com/pdfhound/pdfhound/internal/verifier"
)

// Config holds the run parameters the engine itself interprets; component
// configuration (timeouts, limits, output paths) lives with each component.
type Config struct {
	SeedURL string
	// MaxDepth bounds the crawl: the seed is depth 0 and only tasks with
	// depth < MaxDepth are enqueued. Zero or negative means unbounded.
	MaxDepth int
	// Mode is the detection mode shared with the pipeline and verifier. In
	// strict mode even direct candidates are probed before download.
	Mode detector.Mode
}

// Failure records one candidate that could not be downloaded.
type Failure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Summary is the final account of a crawl run.
type Summary struct {
	RunID     string          `json:"run_id"`
	Seed      string          `json:"seed"`
	Stats     StatsSnapshot   `json:"stats"`
	Downloads []download.Item `json:"downloads"`
	Failures  []Failure       `json:"failures"`
	Duration  time.Duration   `json:"duration"`
}

// Engine runs one crawl from seed to completion. It owns the frontier and
// stats; collaborators are injected so tests can substitute them.
type Engine struct {
	cfg      Config
	fetcher  PageFetcher
	detector Detector
	verifier CandidateVerifier
	download Downloader
	gate     Admitter
	emitter  progress.Emitter
	logger   *zap.Logger

	runID    uuid.UUID
	stats    *Stats
	frontier *Frontier
	items    []download.Item
	failures []Failure
}

// New assembles an Engine. The seed URL may omit its scheme; https is
// assumed. Returns an error for an unusable seed.
func New(cfg Config, pf PageFetcher, det Detector, ver CandidateVerifier, dl Downloader, gate Admitter, emitter progress.Emitter, logger *zap.Logger) (*Engine, error) {
	seed, err := urlutil.Normalize(urlutil.EnsureScheme(cfg.SeedURL))
	if err != nil {
		return nil, fmt.Errorf("seed url: %w", err)
	}
	cfg.SeedURL = seed
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		fetcher:  pf,
		detector: det,
		verifier: ver,
		download: dl,
		gate:     gate,
		emitter:  emitter,
		logger:   logger,
		runID:    uuid.New(),
		stats:    NewStats(),
		frontier: NewFrontier(seed, cfg.MaxDepth),
	}, nil
}

// RunID identifies this run in progress events and reports.
func (e *Engine) RunID() string { return e.runID.String() }

// Stats exposes the live counters for polling while Run is in flight.
func (e *Engine) Stats() *Stats { return e.stats }

// Run executes the crawl to exhaustion or cancellation and returns the run
// summary. Cancellation is cooperative: the context is checked between page
// tasks and between candidate verifications, and in-flight work is allowed to
// finish.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	e.emit(progress.Event{Kind: progress.KindRunStarted, URL: e.cfg.SeedURL})

	// The seed bypasses the frontier depth check: depth 0 is always in
	// budget, and a foreign redirect target would be caught at fetch time.
	e.frontier.EnqueueSeed(e.cfg.SeedURL)
	e.stats.addDiscovered(1)

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			e.frontier.Drain()
			runErr = err
			break
		}
		task, ok := e.frontier.Dequeue()
		if !ok {
			break
		}
		if err := e.crawlPage(ctx, task); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.frontier.Drain()
				runErr = err
				break
			}
			// Recoverable page failure; already counted and logged.
		}
	}

	summary := Summary{
		RunID:     e.runID.String(),
		Seed:      e.cfg.SeedURL,
		Stats:     e.stats.Snapshot(),
		Downloads: e.items,
		Failures:  e.failures,
		Duration:  time.Since(start),
	}
	e.emit(progress.Event{Kind: progress.KindRunDone, Dur: summary.Duration})
	return summary, runErr
}

// crawlPage fetches one page, feeds it through detection, and processes the
// outcome. The returned error is non-nil only for faults the caller must act
// on; recoverable failures are absorbed into stats.
func (e *Engine) crawlPage(ctx context.Context, task PageTask) error {
	if err := e.gate.Admit(ctx, task.URL); err != nil {
		var denied *policy.DeniedError
		if errors.As(err, &denied) {
			e.stats.addSkip()
			e.logger.Info("page skipped by robots policy", zap.String("url", task.URL))
			return nil
		}
		return err
	}

	res, err := e.fetcher.Fetch(ctx, fetcher.Request{URL: task.URL, WantBody: true})
	if err != nil {
		e.stats.addError()
		e.emit(progress.Event{Kind: progress.KindCrawlError, URL: task.URL, Note: err.Error()})
		e.logger.Warn("page fetch failed", zap.String("url", task.URL), zap.Error(err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	if !res.OK() {
		// An HTTP status failure on a page fetch is a skip, not an error;
		// the error counter is reserved for transport-level faults.
		e.stats.addSkip()
		e.emit(progress.Event{
			Kind: progress.KindCrawlError,
			URL:  task.URL,
			Note: fmt.Sprintf("http status %d", res.StatusCode),
		})
		e.logger.Info("page skipped on http status",
			zap.String("url", task.URL), zap.Int("status", res.StatusCode))
		return nil
	}

	e.stats.addCrawled()
	e.emit(progress.Event{
		Kind:  progress.KindPageVisited,
		URL:   task.URL,
		Bytes: int64(len(res.Body)),
		Dur:   res.Duration,
	})

	// A seed or link can point straight at a PDF; there is nothing to parse.
	if isPDFContentType(res.ContentType()) {
		e.processCandidate(ctx, task, detector.Candidate{
			URL:        task.URL,
			Page:       task.Parent,
			Confidence: detector.ConfidenceHigh,
			Direct:     true,
		})
		return nil
	}
	if !isHTMLContentType(res.ContentType()) {
		return nil
	}

	result, err := e.detector.Detect(detector.Page{URL: res.FinalURL, Body: res.Body})
	if err != nil {
		e.stats.addError()
		e.logger.Warn("page parse failed", zap.String("url", task.URL), zap.Error(err))
		return nil
	}

	for _, cand := range result.Candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.processCandidate(ctx, task, cand)
	}

	for _, link := range result.PageLinks {
		if urlutil.SameSite(link, e.cfg.SeedURL) && !e.frontier.Seen(link) {
			e.stats.addDiscovered(1)
		}
		e.frontier.Enqueue(link, task.Depth+1, task.URL)
	}
	return nil
}

// processCandidate transforms, verifies, and downloads one candidate. Every
// failure path is recoverable; outcomes land in stats and the failure list.
func (e *Engine) processCandidate(ctx context.Context, task PageTask, cand detector.Candidate) {
	target := cloudurl.Transform(cand.URL)

	e.emit(progress.Event{
		Kind:  progress.KindCandidateFound,
		URL:   target,
		Page:  cand.Page,
		Layer: cand.Layer,
		Tier:  string(cand.Confidence),
	})

	if e.download.Seen(target) {
		e.stats.addSkip()
		return
	}

	if err := e.gate.Admit(ctx, target); err != nil {
		var denied *policy.DeniedError
		if errors.As(err, &denied) {
			e.stats.addSkip()
			return
		}
		e.stats.addError()
		return
	}

	if !cand.Direct || e.cfg.Mode == detector.ModeStrict {
		probe := cand
		probe.URL = target
		ver := e.verifier.Verify(ctx, probe)
		if ver.Outcome == verifier.Rejected {
			e.stats.addSkip()
			e.logger.Debug("candidate rejected",
				zap.String("url", target), zap.String("reason", ver.Reason))
			// A candidate that turned out to be an ordinary page can still
			// hold links; hand it back to the frontier.
			if ver.HTML && urlutil.SameSite(target, e.cfg.SeedURL) {
				if e.frontier.Enqueue(target, task.Depth+1, cand.Page) {
					e.stats.addDiscovered(1)
				}
			}
			return
		}
		if ver.FinalURL != "" {
			target = ver.FinalURL
		}
	}

	e.stats.addPdfFound()

	item, err := e.download.Download(ctx, target)
	if err != nil {
		if errors.Is(err, download.ErrDuplicate) {
			e.stats.addSkip()
			return
		}
		e.stats.addError()
		e.failures = append(e.failures, Failure{URL: target, Reason: err.Error()})
		e.emit(progress.Event{Kind: progress.KindDownloadFailed, URL: target, Note: err.Error()})
		e.logger.Warn("download failed", zap.String("url", target), zap.Error(err))
		return
	}

	e.stats.addPdfDownloaded()
	e.items = append(e.items, item)
	e.emit(progress.Event{
		Kind:  progress.KindPDFDownloaded,
		URL:   item.URL,
		Page:  cand.Page,
		Bytes: item.Bytes,
		Dur:   item.Duration,
	})
}

func (e *Engine) emit(evt progress.Event) {
	evt.RunID = progress.UUIDToBytes(e.runID)
	evt.TS = time.Now().UTC()
	e.emitter.Emit(evt)
}

func isPDFContentType(ct string) bool {
	return ct == "application/pdf" || ct == "application/x-pdf"
}

func isHTMLContentType(ct string) bool {
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml")
}
