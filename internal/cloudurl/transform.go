// Package cloudurl rewrites share-style links from known cloud platforms into
// direct-download URLs. All transforms are pure and idempotent: transforming
// an already-transformed URL yields the same URL, and unrecognized platforms
// pass through unchanged.
package cloudurl

import (
	"net/url"
	"regexp"
	"strings"
)

var driveFileIDPattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)

// Transform applies the platform-specific rewrite for rawURL, if any.
func Transform(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "drive.google.com"):
		return transformDrive(rawURL)
	case strings.Contains(lower, "dropbox.com"):
		return transformDropbox(rawURL)
	case strings.Contains(lower, "onedrive.live.com"):
		return transformOneDrive(rawURL)
	case strings.Contains(lower, "sharepoint.com"):
		return transformSharePoint(rawURL)
	default:
		return rawURL
	}
}

// transformDrive extracts the file ID from the common Drive share formats and
// rebuilds the uc?export=download form. Already-direct URLs map onto
// themselves because the ID is re-extracted from the query.
func transformDrive(rawURL string) string {
	var fileID string

	if m := driveFileIDPattern.FindStringSubmatch(rawURL); m != nil {
		fileID = m[1]
	} else if u, err := url.Parse(rawURL); err == nil {
		q := u.Query()
		if id := q.Get("id"); id != "" {
			fileID = id
		}
	}

	if fileID == "" {
		return rawURL
	}
	return "https://drive.google.com/uc?export=download&id=" + fileID
}

// transformDropbox flips dl=0 to dl=1 on share links so the response is the
// file instead of the preview page.
func transformDropbox(rawURL string) string {
	lower := strings.ToLower(rawURL)
	shareLink := strings.Contains(lower, "dropbox.com/s/") ||
		strings.Contains(lower, "dropbox.com/sh/") ||
		strings.Contains(lower, "dropbox.com/scl/fi/")
	if !shareLink {
		return rawURL
	}
	return setQueryParam(rawURL, "dl", "1")
}

// transformOneDrive converts viewer URLs to their download form. 1drv.ms
// short links are left alone; redirect resolution handles those.
func transformOneDrive(rawURL string) string {
	if strings.Contains(rawURL, "view.aspx") {
		return strings.Replace(rawURL, "view.aspx", "download.aspx", 1)
	}
	if strings.Contains(rawURL, "redir?resid=") {
		return setQueryParam(rawURL, "download", "1")
	}
	return rawURL
}

func transformSharePoint(rawURL string) string {
	return setQueryParam(rawURL, "download", "1")
}

// setQueryParam sets key=value without touching other parameters. Returns the
// input unchanged when it cannot be parsed.
func setQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Get(key) == value {
		return rawURL
	}
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
