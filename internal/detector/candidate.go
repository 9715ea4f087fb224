// Package detector implements the layered PDF-candidate detection pipeline.
// Each layer is a pure classification pass over a fetched HTML page; the
// pipeline composes them in priority order with first-match-wins semantics
// per URL, so a URL is reported under exactly one layer and carries the
// confidence of the winning layer.
package detector

// Confidence is the detection confidence tier. It determines whether a
// candidate must be verified before download.
type Confidence string

// Confidence tiers, strongest first.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Candidate is a URL suspected of referencing a PDF document.
type Candidate struct {
	// URL is the normalized absolute candidate URL.
	URL string
	// Page is the URL of the page the candidate was discovered on.
	Page string
	// Layer is the number of the detection layer that emitted the candidate,
	// kept for diagnostics and progress events.
	Layer int
	// Confidence is the tier assigned by the winning layer.
	Confidence Confidence
	// Context is the link text or attribute that triggered detection.
	Context string
	// Direct marks candidates that are actionable without verification even
	// under a strict policy (embedded viewers name their document directly).
	Direct bool
}

// Page is the detector's view of one fetched HTML document.
type Page struct {
	URL  string
	Body []byte
}

// Result is the classification of everything discovered on a page: PDF
// candidates plus the plain page links that should re-enter the frontier.
type Result struct {
	Candidates []Candidate
	PageLinks  []string
}
