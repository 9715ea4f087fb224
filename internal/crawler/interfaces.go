package crawler

import (
	"context"

	"github.com/pdfhound/pdfhound/internal/detector"
	"github.com/pdfhound/pdfhound/internal/download"
	"github.com/pdfhound/pdfhound/internal/fetcher"
	"github.com/pdfhound/pdfhound/internal/verifier"
)

// PageFetcher retrieves pages and candidate resources.
type PageFetcher interface {
	Fetch(ctx context.Context, req fetcher.Request) (fetcher.Result, error)
}

// Detector classifies a fetched page into PDF candidates and page links.
type Detector interface {
	Detect(page detector.Page) (detector.Result, error)
}

// CandidateVerifier probes a candidate before download.
type CandidateVerifier interface {
	Verify(ctx context.Context, cand detector.Candidate) verifier.Verification
}

// Downloader persists admitted PDFs.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (download.Item, error)
	Seen(rawURL string) bool
}

// Admitter gates outbound requests behind robots and rate-limit policy.
type Admitter interface {
	Admit(ctx context.Context, rawURL string) error
}
