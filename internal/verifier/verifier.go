// Package verifier probes candidate URLs to confirm they actually serve PDF
// content before any download is attempted. Probing is cheap: a HEAD request,
// falling back to a one-byte ranged GET for servers that refuse HEAD.
package verifier

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/detector"
	"github.com/pdfhound/pdfhound/internal/fetcher"
)

// Outcome is the verification verdict for one candidate.
type Outcome string

const (
	// Admitted means the probe confirmed PDF content.
	Admitted Outcome = "admitted"
	// AdmittedByPolicy means the probe was inconclusive but the aggressive
	// policy admits the candidate anyway.
	AdmittedByPolicy Outcome = "admitted_by_policy"
	// Rejected means the candidate is not a PDF or could not be probed.
	Rejected Outcome = "rejected"
)

// Verification is the structured probe result handed back to the engine.
type Verification struct {
	Outcome     Outcome
	FinalURL    string
	ContentType string
	Reason      string
	// HTML marks rejections where the server returned an ordinary web page.
	// The engine may still crawl such URLs for links.
	HTML bool
}

// Probe is the subset of the fetcher the verifier needs.
type Probe interface {
	Fetch(ctx context.Context, req fetcher.Request) (fetcher.Result, error)
}

// Verifier checks candidates against live server responses.
type Verifier struct {
	probe  Probe
	mode   detector.Mode
	logger *zap.Logger
}

// New builds a Verifier. In detector.ModeAggressive, candidates whose probe
// succeeds but stays inconclusive are admitted by policy instead of rejected;
// in detector.ModeStrict, only definitive PDF signals admit.
func New(probe Probe, mode detector.Mode, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{probe: probe, mode: mode, logger: logger}
}

var pdfContentTypes = map[string]bool{
	"application/pdf":   true,
	"application/x-pdf": true,
}

// Verify probes the candidate URL and classifies the response. A failed probe
// rejects the candidate but never fails the crawl; the reason records what
// went wrong.
func (v *Verifier) Verify(ctx context.Context, cand detector.Candidate) Verification {
	res, err := v.probe.Fetch(ctx, fetcher.Request{URL: cand.URL, Method: http.MethodHead})
	if err != nil || res.StatusCode == http.StatusMethodNotAllowed || res.StatusCode == http.StatusNotImplemented {
		// Some servers refuse or drop HEAD entirely; retry with a one-byte
		// ranged GET before giving up.
		res, err = v.probe.Fetch(ctx, fetcher.Request{URL: cand.URL, RangeBytes: "bytes=0-0"})
	}
	if err != nil {
		v.logger.Debug("verification probe failed", zap.String("url", cand.URL), zap.Error(err))
		return Verification{Outcome: Rejected, Reason: "probe failed: " + err.Error()}
	}

	ver := Verification{
		FinalURL:    res.FinalURL,
		ContentType: res.ContentType(),
	}

	if !res.OK() && res.StatusCode != http.StatusPartialContent {
		ver.Outcome = Rejected
		ver.Reason = fmt.Sprintf("http status %d", res.StatusCode)
		return ver
	}

	disposition := res.Headers.Get("Content-Disposition")

	// The HTML check sits above the extension check: a .pdf-named URL that
	// serves an ordinary web page must never be admitted for its name alone.
	switch {
	case pdfContentTypes[ver.ContentType]:
		ver.Outcome = Admitted
		ver.Reason = "content type"
	case dispositionNamesPDF(disposition):
		ver.Outcome = Admitted
		ver.Reason = "content disposition filename"
	case strings.HasPrefix(ver.ContentType, "text/html"):
		ver.Outcome = Rejected
		ver.Reason = "html page"
		ver.HTML = true
	case finalPathIsPDF(res.FinalURL):
		ver.Outcome = Admitted
		ver.Reason = "final url extension"
	case isAttachment(disposition) && cand.Confidence != detector.ConfidenceLow && v.mode != detector.ModeStrict:
		ver.Outcome = Admitted
		ver.Reason = "attachment disposition"
	case v.mode == detector.ModeAggressive:
		ver.Outcome = AdmittedByPolicy
		ver.Reason = "inconclusive, admitted by policy"
	default:
		ver.Outcome = Rejected
		ver.Reason = "inconclusive content type " + ver.ContentType
	}
	return ver
}

// dispositionNamesPDF reports whether Content-Disposition carries a filename
// ending in .pdf.
func dispositionNamesPDF(disposition string) bool {
	if disposition == "" {
		return false
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return strings.Contains(strings.ToLower(disposition), ".pdf")
	}
	name := strings.ToLower(params["filename"])
	return strings.HasSuffix(name, ".pdf")
}

func isAttachment(disposition string) bool {
	kind, _, err := mime.ParseMediaType(disposition)
	if err != nil {
		return false
	}
	return kind == "attachment"
}

func finalPathIsPDF(finalURL string) bool {
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
