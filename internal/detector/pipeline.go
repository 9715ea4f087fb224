package detector

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/urlutil"
)

// Layer numbers, fixed for diagnostics. Layer 9 is the verification trigger
// and lives in the engine, not here; layer 10 only runs in aggressive mode.
const (
	LayerDirectExtension = 1
	LayerShortenedURL    = 2
	LayerCloudStorage    = 3
	LayerTextKeyword     = 4
	LayerQueryParameter  = 5
	LayerEmbeddedContent = 6
	LayerScriptScan      = 7
	LayerGenericCDN      = 8
	LayerExhaustive      = 10
)

// Pipeline runs the detection layers in priority order over fetched pages.
type Pipeline struct {
	mode   Mode
	logger *zap.Logger
}

// NewPipeline builds a Pipeline. In ModeAggressive, layer 10 treats any
// plausibly-labeled link as a low-confidence candidate to maximize recall.
func NewPipeline(mode Mode, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{mode: mode, logger: logger}
}

// Detect parses the page and runs every layer over it. A URL emitted by a
// higher layer is never re-emitted by a lower one; layer order is the
// tie-break, and the winning layer's confidence sticks.
func (p *Pipeline) Detect(page Page) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}

	s := &scan{
		page:    page,
		doc:     doc,
		claimed: make(map[string]struct{}),
	}
	s.collectAnchors()

	passes := []func() []Candidate{
		s.layerDirectExtension,
		s.layerShortenedURL,
		s.layerCloudStorage,
		s.layerTextKeyword,
		s.layerQueryParameter,
		s.layerEmbeddedContent,
		s.layerScriptScan,
		s.layerGenericCDN,
	}
	if p.mode == ModeAggressive {
		passes = append(passes, s.layerExhaustive)
	}

	var candidates []Candidate
	for _, pass := range passes {
		candidates = append(candidates, pass()...)
	}

	p.logger.Debug("page classified",
		zap.String("page", page.URL),
		zap.Int("candidates", len(candidates)),
		zap.Int("links", len(s.pageLinks())),
	)
	return Result{Candidates: candidates, PageLinks: s.pageLinks()}, nil
}

// anchorLink is one <a href> with the text context the heuristics inspect.
type anchorLink struct {
	url     string // resolved, normalized
	text    string // anchor text, trimmed
	context string // parent element text, lowercased
}

// scan holds the per-page state shared by the layer passes.
type scan struct {
	page    Page
	doc     *goquery.Document
	anchors []anchorLink
	claimed map[string]struct{}
}

func (s *scan) collectAnchors() {
	s.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if skippableRef(href) {
			return
		}
		resolved, err := urlutil.Resolve(s.page.URL, href)
		if err != nil || !httpScheme(resolved) {
			return
		}
		parentText := ""
		if parent := sel.Parent(); parent.Length() > 0 {
			parentText = strings.ToLower(strings.TrimSpace(parent.Text()))
		}
		s.anchors = append(s.anchors, anchorLink{
			url:     resolved,
			text:    strings.TrimSpace(sel.Text()),
			context: parentText,
		})
	})
}

// claim marks url as emitted and reports whether this caller won it.
func (s *scan) claim(url string) bool {
	if _, taken := s.claimed[url]; taken {
		return false
	}
	s.claimed[url] = struct{}{}
	return true
}

// emit builds a candidate for url if no higher layer claimed it yet.
func (s *scan) emit(out []Candidate, url string, layer int, tier Confidence, context string, direct bool) []Candidate {
	if !s.claim(url) {
		return out
	}
	return append(out, Candidate{
		URL:        url,
		Page:       s.page.URL,
		Layer:      layer,
		Confidence: tier,
		Context:    context,
		Direct:     direct,
	})
}

// pageLinks returns the anchors that were not claimed as PDF candidates;
// these re-enter the frontier as ordinary page links.
func (s *scan) pageLinks() []string {
	links := make([]string, 0, len(s.anchors))
	seen := make(map[string]struct{}, len(s.anchors))
	for _, a := range s.anchors {
		if _, claimed := s.claimed[a.url]; claimed {
			continue
		}
		if _, dup := seen[a.url]; dup {
			continue
		}
		seen[a.url] = struct{}{}
		links = append(links, a.url)
	}
	return links
}

func skippableRef(href string) bool {
	href = strings.TrimSpace(strings.ToLower(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, scheme := range skipSchemes {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}

func httpScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
