// Package urlutil provides URL canonicalization helpers shared by the
// crawl engine, the detector, and the download manager.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize standardizes a URL to avoid duplicates.
// It lowercases the scheme and host, removes default ports, and sorts query
// parameters. It also removes fragments, which never change the resource
// identity (e.g. "#view=Fit" on PDF viewer links).
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Resolve resolves ref against base and normalizes the result. Relative
// references ("../docs/report.pdf", "/download?type=pdf") become absolute.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse ref url: %w", err)
	}
	return Normalize(b.ResolveReference(r).String())
}

// EnsureScheme prefixes bare host seeds ("example.com") with https.
func EnsureScheme(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		return rawURL
	}
	return "https://" + rawURL
}

// SameSite reports whether candidate belongs to the same site as base.
// Hosts are compared case-insensitively with a leading "www." stripped, and
// subdomains of the base host count as the same site.
func SameSite(candidate, base string) bool {
	ch := rootHost(candidate)
	bh := rootHost(base)
	if ch == "" || bh == "" {
		return false
	}
	return ch == bh || strings.HasSuffix(ch, "."+bh)
}

// Host returns the lowercased hostname of rawURL, or "" if unparsable.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func rootHost(rawURL string) string {
	h := Host(rawURL)
	return strings.TrimPrefix(h, "www.")
}
