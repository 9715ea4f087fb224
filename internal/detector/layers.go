package detector

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdfhound/pdfhound/internal/urlutil"
)

// Layer 1: the URL path itself ends in .pdf. The strongest signal there is.
func (s *scan) layerDirectExtension() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		if pdfExtPattern.MatchString(a.url) {
			out = s.emit(out, a.url, LayerDirectExtension, ConfidenceHigh, a.text, false)
		}
	}
	return out
}

// Layer 2: shortened URLs hide their target, so the anchor text has to carry
// the document signal.
func (s *scan) layerShortenedURL() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		lower := strings.ToLower(a.url)
		if !containsAny(lower, shortenerDomains) {
			continue
		}
		text := strings.ToLower(a.text)
		if containsAny(text, pdfTextIndicators) || containsAny(text, documentKeywords) ||
			containsAny(a.context, documentKeywords) {
			out = s.emit(out, a.url, LayerShortenedURL, ConfidenceMedium, a.text, false)
		}
	}
	return out
}

// Layer 3: named cloud-storage share links are high confidence; generic
// CDN-style hosts need a document extension to count, and only at medium.
func (s *scan) layerCloudStorage() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		lower := strings.ToLower(a.url)
		if platform := matchPlatform(lower); platform != "" {
			out = s.emit(out, a.url, LayerCloudStorage, ConfidenceHigh, platform, false)
			continue
		}
		if hasCDNHost(lower) && hasDocumentExtension(lower) {
			out = s.emit(out, a.url, LayerCloudStorage, ConfidenceMedium, a.text, false)
		}
	}
	return out
}

// Layer 4: the link text names a document even though the URL does not. URLs
// that carry a format-declaring query parameter are left for layer 5, which
// reads the stronger structural signal.
func (s *scan) layerTextKeyword() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		if hasFormatParam(a.url) {
			continue
		}
		text := strings.ToLower(a.text)
		if text == "" {
			continue
		}
		if containsAny(text, pdfTextIndicators) || containsAny(text, downloadKeywords) {
			out = s.emit(out, a.url, LayerTextKeyword, ConfidenceLow, a.text, false)
		}
	}
	return out
}

// Layer 5: a query parameter declares the response format, e.g.
// /download?type=pdf or /export?format=pdf.
func (s *scan) layerQueryParameter() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		if pdfFormatParamValue(a.url) {
			out = s.emit(out, a.url, LayerQueryParameter, ConfidenceMedium, a.text, false)
		}
	}
	return out
}

// Layer 6: embed, object, and iframe elements name the document they render,
// so their sources are directly actionable.
func (s *scan) layerEmbeddedContent() []Candidate {
	var out []Candidate
	collect := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, sel *goquery.Selection) {
			src, ok := sel.Attr(attr)
			if !ok || skippableRef(src) {
				return
			}
			resolved, err := urlutil.Resolve(s.page.URL, src)
			if err != nil || !httpScheme(resolved) {
				return
			}
			lower := strings.ToLower(resolved)
			if !pdfExtPattern.MatchString(lower) && !strings.Contains(lower, "pdf") {
				return
			}
			out = s.emit(out, resolved, LayerEmbeddedContent, ConfidenceHigh, goquery.NodeName(sel), true)
		}
	}
	s.doc.Find("embed[src]").Each(collect("src"))
	s.doc.Find("object[data]").Each(collect("data"))
	s.doc.Find("iframe[src]").Each(collect("src"))
	return out
}

// Layer 7: document URLs buried in script text, data-* attributes, or onclick
// handlers. Weak by nature, since the surrounding code may never run.
func (s *scan) layerScriptScan() []Candidate {
	var out []Candidate

	s.doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		for _, m := range inlinePDFPattern.FindAllString(sel.Text(), -1) {
			if resolved, err := urlutil.Normalize(m); err == nil {
				out = s.emit(out, resolved, LayerScriptScan, ConfidenceLow, "script", false)
			}
		}
	})

	s.doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range sel.Get(0).Attr {
			isData := strings.HasPrefix(attr.Key, "data-")
			if !isData && attr.Key != "onclick" {
				continue
			}
			raw := attr.Val
			if !isData {
				m := onclickURLPattern.FindStringSubmatch(raw)
				if m == nil {
					continue
				}
				raw = m[1]
			} else if !pdfExtPattern.MatchString(raw) {
				continue
			}
			resolved, err := urlutil.Resolve(s.page.URL, raw)
			if err != nil || !httpScheme(resolved) {
				continue
			}
			out = s.emit(out, resolved, LayerScriptScan, ConfidenceLow, attr.Key, false)
		}
	})
	return out
}

// Layer 8: CDN-shaped hosts and upload-style paths without any other signal.
func (s *scan) layerGenericCDN() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		lower := strings.ToLower(a.url)
		if hasCDNHost(lower) || containsAny(lower, cdnPathHints) {
			out = s.emit(out, a.url, LayerGenericCDN, ConfidenceLow, a.text, false)
		}
	}
	return out
}

// Layer 10: exhaustive-mode sweep. Any remaining link with meaningful text
// becomes a low-confidence candidate; verification sorts them out.
func (s *scan) layerExhaustive() []Candidate {
	var out []Candidate
	for _, a := range s.anchors {
		if len(a.text) < 4 || !hasLetter(a.text) {
			continue
		}
		if hostMatches(a.url, skipHosts) {
			continue
		}
		out = s.emit(out, a.url, LayerExhaustive, ConfidenceLow, a.text, false)
	}
	return out
}

func matchPlatform(lowerURL string) string {
	for _, p := range namedPlatforms {
		if containsAny(lowerURL, p.patterns) {
			return p.name
		}
	}
	return ""
}

func hasCDNHost(lowerURL string) bool {
	u, err := url.Parse(lowerURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, prefix := range cdnHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}

func hasDocumentExtension(lowerURL string) bool {
	u, err := url.Parse(lowerURL)
	if err != nil {
		return false
	}
	for _, ext := range documentExtensions {
		if strings.HasSuffix(u.Path, ext) {
			return true
		}
	}
	return false
}

// hasFormatParam reports whether any format-declaring query parameter is
// present, regardless of value.
func hasFormatParam(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	q := u.Query()
	for _, key := range formatParams {
		if q.Has(key) {
			return true
		}
	}
	return false
}

// pdfFormatParamValue reports whether a format-declaring query parameter
// names a PDF.
func pdfFormatParamValue(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	q := u.Query()
	for _, key := range formatParams {
		if strings.Contains(strings.ToLower(q.Get(key)), "pdf") {
			return true
		}
	}
	return false
}

func hostMatches(rawURL string, hosts []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
