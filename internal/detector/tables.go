package detector

import "regexp"

// pdfExtPattern matches URLs whose path ends in .pdf, allowing a trailing
// query or fragment.
var pdfExtPattern = regexp.MustCompile(`(?i)\.pdf($|[?#])`)

// inlinePDFPattern finds absolute PDF URLs inside script text and attribute
// soup.
var inlinePDFPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.pdf(?:[^\s"'<>]*)?`)

// onclickURLPattern extracts a quoted document URL from an onclick handler.
var onclickURLPattern = regexp.MustCompile(`(?i)["']([^"']*\.(?:pdf|docx?)[^"']*)["']`)

// shortenerDomains are URL shorteners whose targets cannot be judged from the
// URL alone; anchor text has to carry the signal.
var shortenerDomains = []string{
	"bit.ly/", "tinyurl.com/", "t.co/", "goo.gl/", "ow.ly/", "short.link/",
	"rebrand.ly/", "cutt.ly/", "is.gd/", "buff.ly/", "ift.tt/",
	"tiny.cc/", "lnkd.in/", "fb.me/", "trib.al/", "shar.es/", "po.st/", "v.gd/",
}

// documentKeywords are anchor-text terms that suggest the target is a
// document rather than a page.
var documentKeywords = []string{
	"handbook", "manual", "guide", "document", "report", "brochure",
	"catalog", "specification", "datasheet", "whitepaper", "policy",
	"instructions", "procedures", "guidelines", "standards", "forms",
	"application", "enrollment", "registration", "syllabus", "curriculum",
	"schedule", "calendar", "newsletter", "announcement", "notice", "memo",
	"contract", "agreement", "minutes",
}

// pdfTextIndicators are anchor-text terms that all but name a PDF.
var pdfTextIndicators = []string{
	"pdf", ".pdf", "download pdf", "view pdf", "open pdf",
	"pdf document", "pdf file", "pdf report", "pdf manual",
}

// downloadKeywords extend documentKeywords for the plain text heuristic.
var downloadKeywords = append([]string{"download"}, documentKeywords...)

// cloudPlatform describes one recognized storage platform.
type cloudPlatform struct {
	name     string
	patterns []string
}

// namedPlatforms are cloud-storage providers whose share links very likely
// wrap a document. Matching is substring-based against the lowercased URL.
var namedPlatforms = []cloudPlatform{
	{name: "google-drive", patterns: []string{
		"drive.google.com/file/d/", "drive.google.com/open?id=",
		"docs.google.com/document/d/", "drive.google.com/uc?id=",
		"drive.google.com/uc?export=download", "docs.google.com/viewer?url=",
		"googleusercontent.com", "drive.google.com/viewerng/viewer",
	}},
	{name: "dropbox", patterns: []string{
		"dropbox.com/s/", "dropbox.com/sh/", "dropbox.com/scl/fi/",
		"dl.dropboxusercontent.com", "db.tt/", "dropbox.com/preview/",
	}},
	{name: "onedrive", patterns: []string{
		"onedrive.live.com", "1drv.ms/", "sharepoint.com",
		"officeapps.live.com", "live.com/redir",
	}},
	{name: "box", patterns: []string{
		"box.com/s/", "app.box.com/file/", "box.com/shared/", "box.com/v/",
		"box.net/shared/", "box.com/embed/",
	}},
	{name: "s3", patterns: []string{
		"s3.amazonaws.com", ".s3.", "amazonaws.com", "cloudfront.net",
		"awsstatic.com",
	}},
	{name: "icloud", patterns: []string{
		"icloud.com/iclouddrive/", "icloud.com/attachment/",
	}},
	{name: "wetransfer", patterns: []string{
		"wetransfer.com/downloads/", "we.tl/", "wetransfer.com/dl/",
	}},
	{name: "mediafire", patterns: []string{
		"mediafire.com/file/", "mediafire.com/download/",
	}},
	{name: "mega", patterns: []string{
		"mega.nz/file/", "mega.co.nz/file/", "mega.nz/#!", "mega.co.nz/#!",
	}},
}

// cdnHostPrefixes mark generic CDN/asset hosts; on their own they are only a
// weak hint, so layer 3 additionally requires a document extension and layer
// 8 emits them at low confidence.
var cdnHostPrefixes = []string{
	"cdn.", "assets.", "static.", "files.", "docs.", "downloads.",
	"media.", "content.", "resources.",
}

// cdnPathHints are path fragments common to upload/asset stores.
var cdnPathHints = []string{
	"/uploads/", "/files/", "/documents/", "/attachments/", "/assets/",
}

// documentExtensions are extensions layer 3 and the embed scan accept as
// document-like.
var documentExtensions = []string{".pdf", ".doc", ".docx"}

// formatParams are query parameters whose value may declare the response
// format.
var formatParams = []string{
	"format", "type", "export", "output", "download", "file", "doc", "document",
}

// skipSchemes and skipHosts exclude obvious non-documents from the
// exhaustive layer and from page-link extraction.
var skipSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

var skipHosts = []string{"facebook.com", "twitter.com", "instagram.com", "linkedin.com", "youtube.com"}
